package changelog

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"graphql-ddl/internal/ddl"
)

// YAMLSerializer writes Liquibase YAML changelogs.
type YAMLSerializer struct{}

func (YAMLSerializer) Format() string { return FormatYAML }

// Serialize renders the changeset as a YAML document with two-space indent.
func (YAMLSerializer) Serialize(cs ddl.ChangeSet) (out []byte, err error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	defer func() {
		if cerr := encoder.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err == nil {
			out = buf.Bytes()
		}
	}()

	return nil, encoder.Encode(newDocument(cs))
}
