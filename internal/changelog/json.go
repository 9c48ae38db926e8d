package changelog

import (
	"bytes"
	"encoding/json"

	"graphql-ddl/internal/ddl"
)

// JSONSerializer writes Liquibase JSON changelogs.
type JSONSerializer struct{}

func (JSONSerializer) Format() string { return FormatJSON }

// Serialize renders the changeset as indented JSON.
func (JSONSerializer) Serialize(cs ddl.ChangeSet) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(newDocument(cs)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
