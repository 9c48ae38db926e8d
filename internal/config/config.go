// Package config loads configuration from files, env vars, and flags, and validates it.
// Precedence is flags > env (DDLGEN_*) > config file > defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"graphql-ddl/internal/ddl"
	"graphql-ddl/internal/sqltype"
)

// AutoChangeSetID asks for a generated changeset identifier.
const AutoChangeSetID = "auto"

// Registry builds the scalar type registry described by the mapping section.
func (m MappingConfig) Registry() (sqltype.Registry, error) {
	registry := sqltype.DefaultRegistry()
	if m.TextLength > 0 {
		registry = registry.WithTextLength(m.TextLength)
	}
	if strings.TrimSpace(m.IDType) != "" {
		idType, err := sqltype.ParseColumnType(m.IDType)
		if err != nil {
			return sqltype.Registry{}, fmt.Errorf("mapping.id_type: %w", err)
		}
		registry = registry.WithIDType(idType)
	}

	overrides, err := m.scalarOverrides()
	if err != nil {
		return sqltype.Registry{}, err
	}
	for _, o := range overrides {
		registry = registry.With(o.scalar, o.columnType)
	}
	return registry, nil
}

type scalarOverride struct {
	scalar     string
	columnType ddl.ColumnType
}

// scalarOverrides parses "Scalar=TYPE" entries in declaration order.
func (m MappingConfig) scalarOverrides() ([]scalarOverride, error) {
	var overrides []scalarOverride
	for _, entry := range m.Scalars {
		name, spec, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("mapping.scalars: entry %q must have the form Scalar=TYPE", entry)
		}
		if name == sqltype.IDScalar {
			return nil, fmt.Errorf("mapping.scalars: %s is configured with mapping.id_type", sqltype.IDScalar)
		}
		columnType, err := sqltype.ParseColumnType(spec)
		if err != nil {
			return nil, fmt.Errorf("mapping.scalars: scalar %s: %w", name, err)
		}
		overrides = append(overrides, scalarOverride{scalar: name, columnType: columnType})
	}
	return overrides, nil
}

// ResolvedID returns the configured changeset id, generating a UUID for "auto".
func (c ChangeSetConfig) ResolvedID() string {
	id := strings.TrimSpace(c.ID)
	if strings.EqualFold(id, AutoChangeSetID) {
		return uuid.NewString()
	}
	return id
}
