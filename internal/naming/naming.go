package naming

import (
	"log/slog"
	"strings"
	"unicode"
)

// Namer provides all name transformation functions for converting GraphQL
// type and field names to SQL table, column, and constraint names.
// All methods are deterministic; the logger only records warnings.
type Namer struct {
	config Config
	logger *slog.Logger
}

// New creates a Namer with the given configuration
func New(cfg Config, logger *slog.Logger) *Namer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Namer{
		config: cfg,
		logger: logger,
	}
}

// Default returns a Namer with default configuration
func Default() *Namer {
	return New(DefaultConfig(), nil)
}

// TableName converts a GraphQL type name to a SQL table name (snake_case).
// Example: "ProductCategory" -> "product_category"
// With PluralizeTables the last word is pluralized: "ProductCategory" -> "product_categories"
func (n *Namer) TableName(typeName string) string {
	name := toSnakeCase(typeName)
	if !n.config.PluralizeTables || name == "" {
		return name
	}
	idx := strings.LastIndex(name, "_")
	return name[:idx+1] + n.Pluralize(name[idx+1:])
}

// ColumnName converts a GraphQL field name to a SQL column name (snake_case).
// Example: "createdAt" -> "created_at"
func (n *Namer) ColumnName(fieldName string) string {
	return toSnakeCase(fieldName)
}

// ForeignKeyColumn returns the column name referencing another table.
// Example: "product_category" -> "product_category_id"
func (n *Namer) ForeignKeyColumn(referencedTable string) string {
	return referencedTable + "_id"
}

// PrimaryKeyName returns the primary key constraint name for a table.
// Example: "product" -> "pk_product"
func (n *Namer) PrimaryKeyName(table string) string {
	return "pk_" + table
}

// ForeignKeyName returns the foreign key constraint name.
// Example: ("product_category", "product") -> "fk_product_category_product"
func (n *Namer) ForeignKeyName(referencedTable, owningTable string) string {
	return "fk_" + referencedTable + "_" + owningTable
}

// CheckReserved logs a warning when an identifier is a SQL reserved word.
// Rendered SQL quotes identifiers, so this is advisory only.
func (n *Namer) CheckReserved(kind, name string) bool {
	if !IsReservedWord(name) {
		return false
	}
	n.logger.Warn("SQL identifier is a reserved word",
		slog.String("kind", kind),
		slog.String("name", name),
	)
	return true
}

// toSnakeCase converts PascalCase or camelCase to snake_case.
// Acronym runs stay together: "HTTPRequest" -> "http_request", "userID" -> "user_id".
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
