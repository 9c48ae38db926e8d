// Package naming provides centralized naming logic for converting GraphQL
// schema names to SQL schema names, including optional pluralization,
// collision detection, and reserved word handling.
package naming

// Config holds naming customization options
type Config struct {
	// PluralizeTables pluralizes the last word of table names ("product" -> "products").
	PluralizeTables bool `mapstructure:"pluralize_tables"`

	// PluralOverrides maps singular -> custom plural
	// Example: {"person": "people", "status": "statuses"}
	PluralOverrides map[string]string `mapstructure:"plural_overrides"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		PluralOverrides: make(map[string]string),
	}
}
