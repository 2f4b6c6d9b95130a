// Package entity holds the field bookkeeping shared by lists and members:
// one set of attributes, two projections (local storage and remote API).
package entity

import (
	"github.com/Craig-Turley/listsync/pkg/utils"
)

// MergeFieldsKey is the nested group the remote API reads custom fields from.
const MergeFieldsKey = "merge_fields"

// Field is a declared attribute. Name is the internal camelCase name; the
// views use its snake_case form.
type Field struct {
	Name     string
	TopLevel bool
}

func (f Field) Key() string {
	return utils.ToSnake(f.Name)
}

// Attributes are the current values keyed by internal field name. A missing
// key means the field was never set.
type Attributes map[string]any

type Schema struct {
	Fields []Field
	// MergeKey names a non top-level field inside merge_fields.
	MergeKey func(name string) string
}

// Fill copies every declared field present in data onto attrs. Unknown keys
// are ignored and absent fields keep their current value.
func (s Schema) Fill(attrs Attributes, data map[string]any) {
	for _, f := range s.Fields {
		if v, ok := data[f.Key()]; ok {
			attrs[f.Name] = Clone(v)
		}
	}
}

// LocalView lists every declared field under its snake_case key, nil when unset.
func (s Schema) LocalView(attrs Attributes) map[string]any {
	view := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		view[f.Key()] = Clone(attrs[f.Name])
	}
	return view
}

// RemoteView puts top-level fields at the root and everything else under
// merge_fields. Unset and null fields are left out.
func (s Schema) RemoteView(attrs Attributes) map[string]any {
	merge := map[string]any{}
	view := map[string]any{MergeFieldsKey: merge}

	for _, f := range s.Fields {
		v, ok := attrs[f.Name]
		if !ok || v == nil {
			continue
		}

		if f.TopLevel || s.MergeKey == nil {
			view[f.Key()] = Clone(v)
		} else {
			merge[s.MergeKey(f.Name)] = Clone(v)
		}
	}

	return view
}

// String returns the attribute as a string, "" when unset or not a string.
func (a Attributes) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Attributes) Copy() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = Clone(v)
	}
	return out
}

// Clone deep-copies decoded JSON values so views never alias entity state.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = Clone(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = Clone(inner)
		}
		return out
	}
	return v
}
