// Package sqlutil renders MySQL/TiDB DDL fragments.
package sqlutil

import "strings"

// QuoteIdentifier quotes a SQL identifier (table name, column name, etc.)
// with backticks and escapes any backticks within the identifier.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, "`", "``")
	return "`" + escaped + "`"
}

// QuoteIdentifierList quotes each identifier and joins them with ", ".
func QuoteIdentifierList(names ...string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = QuoteIdentifier(name)
	}
	return strings.Join(quoted, ", ")
}

// ColumnDefinition renders one column clause of a CREATE TABLE statement.
func ColumnDefinition(name, sqlType string, notNull, autoIncrement bool) string {
	var b strings.Builder
	b.WriteString(QuoteIdentifier(name))
	b.WriteByte(' ')
	b.WriteString(sqlType)
	if notNull {
		b.WriteString(" NOT NULL")
	}
	if autoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	return b.String()
}

// ForeignKeyClause renders an ADD CONSTRAINT clause for a single-column key.
func ForeignKeyClause(name, column, referencedTable, referencedColumn string) string {
	return "CONSTRAINT " + QuoteIdentifier(name) +
		" FOREIGN KEY (" + QuoteIdentifier(column) + ")" +
		" REFERENCES " + QuoteIdentifier(referencedTable) +
		" (" + QuoteIdentifier(referencedColumn) + ")"
}
