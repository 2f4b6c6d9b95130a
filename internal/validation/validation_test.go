package validation_test

import (
	"testing"

	"github.com/Craig-Turley/listsync/internal/validation"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	rules := validation.Rules{
		"name":          "required|string",
		"email_address": "required|email",
		"phone_number":  "nullable|string",
		"visibility":    "nullable|string|in:pub,prv",
		"use_archive":   "nullable|boolean",
		"contact":       "nullable|array",
		"contact.city":  "required_with:contact|string",
	}

	tests := []struct {
		name   string
		data   map[string]any
		errors map[string][]string
	}{
		{
			name: "valid minimal",
			data: map[string]any{"name": "Newsletter", "email_address": "a@x.com"},
		},
		{
			name: "missing required",
			data: map[string]any{},
			errors: map[string][]string{
				"name":          {"The name field is required."},
				"email_address": {"The email address field is required."},
			},
		},
		{
			name: "blank string counts as missing",
			data: map[string]any{"name": "  ", "email_address": "a@x.com"},
			errors: map[string][]string{
				"name": {"The name field is required."},
			},
		},
		{
			name: "bad email",
			data: map[string]any{"name": "n", "email_address": "not-an-email"},
			errors: map[string][]string{
				"email_address": {"The email address must be a valid email address."},
			},
		},
		{
			name: "wrong types",
			data: map[string]any{
				"name":          float64(12),
				"email_address": "a@x.com",
				"phone_number":  true,
				"use_archive":   "maybe",
				"contact":       "nope",
			},
			errors: map[string][]string{
				"name":         {"The name must be a string."},
				"phone_number": {"The phone number must be a string."},
				"use_archive":  {"The use archive field must be true or false."},
				"contact":      {"The contact must be an array."},
			},
		},
		{
			name: "non-object parent skips nested rules",
			data: map[string]any{"name": "n", "email_address": "a@x.com", "contact": []any{"Sydney"}},
		},
		{
			name: "nullable accepts null",
			data: map[string]any{"name": "n", "email_address": "a@x.com", "phone_number": nil, "visibility": nil},
		},
		{
			name: "in rule",
			data: map[string]any{"name": "n", "email_address": "a@x.com", "visibility": "public"},
			errors: map[string][]string{
				"visibility": {"The selected visibility is invalid."},
			},
		},
		{
			name: "required_with nested",
			data: map[string]any{"name": "n", "email_address": "a@x.com", "contact": map[string]any{"company": "Acme"}},
			errors: map[string][]string{
				"contact.city": {"The contact.city field is required when contact is present."},
			},
		},
		{
			name: "nested satisfied",
			data: map[string]any{"name": "n", "email_address": "a@x.com", "contact": map[string]any{"city": "Sydney"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, errs := validation.Validate(tc.data, rules)
			if len(tc.errors) == 0 {
				assert.True(t, ok)
				assert.Empty(t, errs)
				return
			}
			assert.False(t, ok)
			assert.Equal(t, validation.Errors(tc.errors), errs)
		})
	}
}

func TestIsEmail(t *testing.T) {
	for _, good := range []string{"a@x.com", "first.last+tag@example.co.uk", "A@X.COM"} {
		assert.True(t, validation.IsEmail(good), good)
	}
	for _, bad := range []string{"", "not-an-email", "a@", "@x.com", "Bob <bob@x.com>", " a@x.com"} {
		assert.False(t, validation.IsEmail(bad), bad)
	}
}

func TestErrorsFieldsSorted(t *testing.T) {
	_, errs := validation.Validate(map[string]any{}, validation.Rules{"b": "required", "a": "required"})
	assert.Equal(t, []string{"a", "b"}, errs.Fields())
}
