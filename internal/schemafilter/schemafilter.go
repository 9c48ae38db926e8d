// Package schemafilter applies allow/deny filters to GraphQL type and field names.
package schemafilter

import (
	"path"
	"slices"
	"strings"
)

// Config controls allow/deny filters for object types and their fields.
// Field patterns are keyed by type name; the "*" key applies to every type.
type Config struct {
	AllowTypes  []string            `mapstructure:"allow_types"`
	DenyTypes   []string            `mapstructure:"deny_types"`
	AllowFields map[string][]string `mapstructure:"allow_fields"`
	DenyFields  map[string][]string `mapstructure:"deny_fields"`
}

// IsZero reports whether the config filters nothing.
func (c Config) IsZero() bool {
	return len(c.AllowTypes) == 0 && len(c.DenyTypes) == 0 &&
		len(c.AllowFields) == 0 && len(c.DenyFields) == 0
}

// TypeAllowed reports whether an object type should be mapped to a table.
// Missing allow lists default to allow-all; deny rules always win.
func TypeAllowed(typeName string, cfg Config) bool {
	if matchesAny(typeName, cfg.DenyTypes) {
		return false
	}
	if len(cfg.AllowTypes) == 0 {
		return true
	}
	return matchesAny(typeName, cfg.AllowTypes)
}

// FieldAllowed reports whether a field of an object type should become a column.
func FieldAllowed(typeName, fieldName string, cfg Config) bool {
	denyPatterns := mergePatterns(cfg.DenyFields, typeName)
	if matchesAny(fieldName, denyPatterns) {
		return false
	}
	allowPatterns := mergePatterns(cfg.AllowFields, typeName)
	if len(allowPatterns) == 0 {
		return true
	}
	return matchesAny(fieldName, allowPatterns)
}

// mergePatterns collects the "*" patterns and the type's own patterns. Keys
// match case-insensitively since config loading lowercases map keys.
func mergePatterns(patterns map[string][]string, typeName string) []string {
	if patterns == nil {
		return nil
	}
	combined := append([]string{}, patterns["*"]...)
	for _, key := range sortedKeys(patterns) {
		if key != "*" && strings.EqualFold(key, typeName) {
			combined = append(combined, patterns[key]...)
		}
	}
	return slices.Compact(combined)
}

func matchesAny(value string, patterns []string) bool {
	value = strings.ToLower(value)
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		// matching should be case-insensitive
		ok, err := path.Match(strings.ToLower(pattern), value)
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
