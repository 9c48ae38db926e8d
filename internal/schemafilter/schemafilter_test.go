package schemafilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeAllowed_AllowsAllByDefault(t *testing.T) {
	cfg := Config{}

	assert.True(t, cfg.IsZero())
	assert.True(t, TypeAllowed("Product", cfg))
	assert.True(t, TypeAllowed("AuditEntry", cfg))
}

func TestTypeAllowed(t *testing.T) {
	cfg := Config{
		AllowTypes: []string{"Product*", "Order"},
		DenyTypes:  []string{"*Internal"},
	}

	tests := []struct {
		name    string
		allowed bool
	}{
		{"Product", true},
		{"ProductCategory", true},
		{"productcategory", true},
		{"Order", true},
		{"OrderItem", false},
		{"ProductInternal", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, TypeAllowed(tt.name, cfg))
		})
	}
}

func TestFieldAllowed(t *testing.T) {
	cfg := Config{
		AllowFields: map[string][]string{
			"*": {"*"},
		},
		DenyFields: map[string][]string{
			"*":    {"internal*"},
			"User": {"password*"},
		},
	}

	assert.True(t, FieldAllowed("User", "email", cfg))
	assert.False(t, FieldAllowed("User", "passwordHash", cfg))
	assert.True(t, FieldAllowed("Product", "passwordHint", cfg))
	assert.False(t, FieldAllowed("Product", "internalNotes", cfg))
}

func TestFieldAllowed_AllowListPerType(t *testing.T) {
	cfg := Config{
		AllowFields: map[string][]string{
			"Product": {"id", "name"},
		},
	}

	assert.True(t, FieldAllowed("Product", "name", cfg))
	assert.False(t, FieldAllowed("Product", "description", cfg))
	assert.True(t, FieldAllowed("Category", "description", cfg))
}

func TestFieldAllowed_TypeKeysAreCaseInsensitive(t *testing.T) {
	cfg := Config{
		DenyFields: map[string][]string{"productcategory": {"name"}},
	}

	assert.False(t, FieldAllowed("ProductCategory", "name", cfg))
	assert.True(t, FieldAllowed("Product", "name", cfg))
}

func TestInvalidPatternsNeverMatch(t *testing.T) {
	cfg := Config{DenyTypes: []string{"[Product"}}

	assert.True(t, TypeAllowed("Product", cfg))
}
