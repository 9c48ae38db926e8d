package naming

import (
	"log/slog"
)

// CollisionDetector tracks generated SQL names and reports when two distinct
// GraphQL sources map to the same identifier. Names are never rewritten.
type CollisionDetector struct {
	seenTables  map[string]string            // table name → source type
	seenColumns map[string]map[string]string // table name → column name → source field
	logger      *slog.Logger
}

// NewCollisionDetector creates a new collision detector.
func NewCollisionDetector(logger *slog.Logger) *CollisionDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollisionDetector{
		seenTables:  make(map[string]string),
		seenColumns: make(map[string]map[string]string),
		logger:      logger,
	}
}

// RegisterTable records a table name and reports whether it collided.
func (c *CollisionDetector) RegisterTable(tableName, typeName string) bool {
	return c.register(tableName, c.seenTables, "type:"+typeName)
}

// RegisterColumn records a column name within a table and reports whether it collided.
func (c *CollisionDetector) RegisterColumn(tableName, columnName, source string) bool {
	if c.seenColumns[tableName] == nil {
		c.seenColumns[tableName] = make(map[string]string)
	}
	return c.register(columnName, c.seenColumns[tableName], "field:"+source)
}

func (c *CollisionDetector) register(name string, seen map[string]string, source string) bool {
	existingSource, exists := seen[name]
	if !exists {
		seen[name] = source
		return false
	}
	c.logger.Warn("naming collision detected",
		slog.String("name", name),
		slog.String("existing_source", existingSource),
		slog.String("new_source", source),
	)
	return true
}
