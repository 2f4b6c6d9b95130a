// Package validation runs Laravel-style rule strings ("required|string",
// "nullable|email", "in:pub,prv") against a decoded JSON mapping.
//
// Keys may be dotted to address nested objects ("contact.company"). The
// package knows nothing about lists or members; callers hand it the rule set.
package validation

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// Rules maps a field key to its rule expression.
type Rules map[string]string

// Errors maps a field key to every message produced for it.
type Errors map[string][]string

func (e Errors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Fields returns the failing keys in sorted order.
func (e Errors) Fields() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type rule struct {
	name string
	args []string
}

func parse(expr string) []rule {
	parts := strings.Split(expr, "|")
	rules := make([]rule, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, params, found := strings.Cut(p, ":")
		r := rule{name: name}
		if found {
			r.args = strings.Split(params, ",")
		}
		rules = append(rules, r)
	}
	return rules
}

// Validate evaluates every rule against data. ok is true when errs is empty.
func Validate(data map[string]any, rules Rules) (bool, Errors) {
	errs := Errors{}

	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, field := range keys {
		checkField(errs, data, field, parse(rules[field]))
	}

	return len(errs) == 0, errs
}

func checkField(errs Errors, data map[string]any, field string, rules []rule) {
	// Nested rules only apply under an object parent.
	if i := strings.LastIndex(field, "."); i > 0 {
		if parent, ok := lookup(data, field[:i]); ok && parent != nil {
			if _, isObject := parent.(map[string]any); !isObject {
				return
			}
		}
	}

	value, present := lookup(data, field)
	attr := displayName(field)
	filled := present && !isEmpty(value)

	for _, r := range rules {
		switch r.name {
		case "required":
			if !filled {
				errs.add(field, fmt.Sprintf("The %s field is required.", attr))
				return
			}
		case "required_with":
			if !filled && anyFilled(data, r.args) {
				errs.add(field, fmt.Sprintf("The %s field is required when %s is present.", attr, strings.Join(displayNames(r.args), " / ")))
				return
			}
		}
	}

	// Nothing further applies to an absent or null value.
	if !present || value == nil {
		return
	}

	for _, r := range rules {
		switch r.name {
		case "string":
			if _, ok := value.(string); !ok {
				errs.add(field, fmt.Sprintf("The %s must be a string.", attr))
			}
		case "boolean":
			if !isBoolean(value) {
				errs.add(field, fmt.Sprintf("The %s field must be true or false.", attr))
			}
		case "array":
			if !isArray(value) {
				errs.add(field, fmt.Sprintf("The %s must be an array.", attr))
			}
		case "email":
			if s, ok := value.(string); !ok || !IsEmail(s) {
				errs.add(field, fmt.Sprintf("The %s must be a valid email address.", attr))
			}
		case "in":
			if !isIn(value, r.args) {
				errs.add(field, fmt.Sprintf("The selected %s is invalid.", attr))
			}
		}
	}
}

// IsEmail reports whether s is a bare RFC 5322 address with a domain part.
func IsEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	return ok && local != "" && domain != ""
}

func lookup(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func anyFilled(data map[string]any, fields []string) bool {
	for _, f := range fields {
		if v, ok := lookup(data, f); ok && !isEmpty(v) {
			return true
		}
	}
	return false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func isBoolean(v any) bool {
	switch t := v.(type) {
	case bool:
		return true
	case float64:
		return t == 0 || t == 1
	case int:
		return t == 0 || t == 1
	case string:
		return t == "0" || t == "1" || t == "true" || t == "false"
	}
	return false
}

func isArray(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func isIn(v any, allowed []string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

func displayName(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func displayNames(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = displayName(f)
	}
	return out
}
