package config

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphql-ddl/internal/ddl"
)

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "basic DSN",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "shop",
			},
			expected: "root:secret@tcp(localhost:3306)/shop",
		},
		{
			name: "with special characters in password",
			config: DatabaseConfig{
				Host:     "db.example.com",
				Port:     4000,
				User:     "admin",
				Password: "p@ss:w0rd!",
				Database: "mydb",
			},
			expected: "admin:p@ss:w0rd!@tcp(db.example.com:4000)/mydb",
		},
		{
			name: "skip-verify TLS",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Database: "shop",
				TLS:      DatabaseTLSConfig{Mode: "skip-verify"},
			},
			expected: "root@tcp(localhost:3306)/shop?tls=skip-verify",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.config.DSN()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDatabaseConfig_DSN_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		ConnectionString: "app:pw@tcp(tidb:4000)/shop?parseTime=true",
		TLS:              DatabaseTLSConfig{Mode: "verify-full", CAFile: "/ca.pem"},
	}

	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "app:pw@tcp(tidb:4000)/shop?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "tls="+tlsConfigName)

	cfg.ConnectionString = "not a dsn"
	_, err = cfg.DSN()
	assert.Error(t, err)
}

func TestEffectiveDatabaseName(t *testing.T) {
	tests := []struct {
		name        string
		config      DatabaseConfig
		expected    string
		source      string
		errContains string
	}{
		{
			name:     "explicit database",
			config:   DatabaseConfig{Database: "shop"},
			expected: "shop",
			source:   "database.database",
		},
		{
			name:     "database from DSN",
			config:   DatabaseConfig{ConnectionString: "root@tcp(localhost:3306)/inventory"},
			expected: "inventory",
			source:   "dsn",
		},
		{
			name:        "mismatch",
			config:      DatabaseConfig{Database: "shop", ConnectionString: "root@tcp(localhost:3306)/inventory"},
			errContains: "database mismatch",
		},
		{
			name:        "nothing configured",
			config:      DatabaseConfig{},
			errContains: "no effective database name",
		},
		{
			name:        "my.cnf without database",
			config:      DatabaseConfig{MyCnfFile: "/etc/my.cnf"},
			errContains: "database.mycnf_file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, source, err := tt.config.EffectiveDatabaseName()
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestMappingConfig_Registry(t *testing.T) {
	mapping := MappingConfig{
		TextLength: 64,
		IDType:     "int",
		Scalars:    []string{"DateTime=DATETIME", " Email = varchar(320) "},
	}

	registry, err := mapping.Registry()
	require.NoError(t, err)

	assert.Equal(t, ddl.ColumnType{Name: "INT"}, registry.IDType())
	assert.Equal(t, ddl.ColumnType{Name: "VARCHAR", Size: 64}, registry.TextType())

	str, ok := registry.Lookup("String")
	require.True(t, ok)
	assert.Equal(t, ddl.ColumnType{Name: "VARCHAR", Size: 64}, str)

	dt, ok := registry.Lookup("DateTime")
	require.True(t, ok)
	assert.Equal(t, ddl.ColumnType{Name: "DATETIME"}, dt)

	email, ok := registry.Lookup("Email")
	require.True(t, ok)
	assert.Equal(t, ddl.ColumnType{Name: "VARCHAR", Size: 320}, email)
}

func TestMappingConfig_RegistryErrors(t *testing.T) {
	tests := []struct {
		name        string
		mapping     MappingConfig
		errContains string
	}{
		{"bad id type", MappingConfig{IDType: "BIGINT(x)"}, "mapping.id_type"},
		{"missing separator", MappingConfig{Scalars: []string{"DateTime"}}, "Scalar=TYPE"},
		{"empty type", MappingConfig{Scalars: []string{"DateTime="}}, "empty column type"},
		{"ID scalar", MappingConfig{Scalars: []string{"ID=INT"}}, "mapping.id_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mapping.Registry()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestChangeSetConfig_ResolvedID(t *testing.T) {
	assert.Equal(t, "42", ChangeSetConfig{ID: " 42 "}.ResolvedID())

	generated := ChangeSetConfig{ID: "AUTO"}.ResolvedID()
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.NotEqual(t, generated, ChangeSetConfig{ID: "auto"}.ResolvedID())
}

func TestConfig_Validate(t *testing.T) {
	validConfig := func() *Config {
		return &Config{
			Schema:    SchemaConfig{File: "schema.graphql"},
			Output:    OutputConfig{Format: "xml"},
			ChangeSet: ChangeSetConfig{ID: "1", Author: "ddlgen"},
			Mapping:   MappingConfig{TextLength: 255, IDType: "BIGINT"},
			Database: DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Database: "shop",
			},
			Logging: LoggingConfig{Level: "info", Format: "text"},
		}
	}

	t.Run("valid config passes validation", func(t *testing.T) {
		result := validConfig().Validate()
		assert.False(t, result.HasErrors())
		assert.Empty(t, result.Error())
	})

	t.Run("database ignored unless enabled", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Port = 0
		cfg.Database.TLS.Mode = "bogus"
		assert.False(t, cfg.Validate().HasErrors())
	})

	t.Run("missing schema file", func(t *testing.T) {
		cfg := validConfig()
		cfg.Schema.File = ""
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "schema.file")
	})

	t.Run("unknown output format", func(t *testing.T) {
		cfg := validConfig()
		cfg.Output.Format = "toml"
		result := cfg.Validate()
		require.True(t, result.HasErrors())
		assert.Equal(t, "output.format", result.Errors[0].Field)
		assert.Equal(t, "valid values are: xml, yaml, json, sql", result.Errors[0].Hint)
	})

	t.Run("yml alias accepted", func(t *testing.T) {
		cfg := validConfig()
		cfg.Output.Format = "YML"
		assert.False(t, cfg.Validate().HasErrors())
	})

	t.Run("non-positive text length", func(t *testing.T) {
		for _, length := range []int{0, -5} {
			cfg := validConfig()
			cfg.Mapping.TextLength = length
			result := cfg.Validate()
			assert.True(t, result.HasErrors())
			assert.Contains(t, result.Error(), "mapping.text_length")
		}
	})

	t.Run("invalid scalar mapping", func(t *testing.T) {
		cfg := validConfig()
		cfg.Mapping.Scalars = []string{"DateTime=DATETIME(abc)"}
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "mapping.scalars")
	})

	t.Run("empty changeset author", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChangeSet.Author = " "
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "changeset.author")
	})

	t.Run("whitespace rejected only for sql format", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChangeSet.Author = "jane doe"
		assert.False(t, cfg.Validate().HasErrors())

		cfg.Output.Format = "sql"
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "changeset.author")
	})

	t.Run("invalid filter globs", func(t *testing.T) {
		cfg := validConfig()
		cfg.SchemaFilters.DenyTypes = []string{"[Audit"}
		cfg.SchemaFilters.AllowFields = map[string][]string{"user": {"pass[word"}}
		result := cfg.Validate()
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "schema_filters.deny_types", result.Errors[0].Field)
		assert.Equal(t, "schema_filters.allow_fields", result.Errors[1].Field)
	})

	t.Run("plural overrides warn without pluralization", func(t *testing.T) {
		cfg := validConfig()
		cfg.Naming.PluralOverrides = map[string]string{"person": "people"}
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "naming.plural_overrides", result.Warnings[0].Field)
	})

	t.Run("invalid log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "verbose"
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "logging.level")
	})

	t.Run("otlp settings checked only when exporting", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.OTLP.Protocol = "thrift"
		assert.False(t, cfg.Validate().HasErrors())

		cfg.Observability.TracingEnabled = true
		cfg.Observability.OTLP.Endpoint = "localhost:4317"
		result := cfg.Validate()
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "observability.otlp.protocol", result.Errors[0].Field)
	})

	t.Run("trace sample ratio out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.TraceSampleRatio = 1.5
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "observability.trace_sample_ratio")
	})

	t.Run("invalid database port when applying", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Apply = true
		cfg.Database.Port = 70000
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "database.port")
	})

	t.Run("verify requires a database name", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Verify = true
		cfg.Database.Database = ""
		result := cfg.Validate()
		require.True(t, result.HasErrors())
		assert.Equal(t, "database.database", result.Errors[0].Field)
	})

	t.Run("database name resolved from DSN", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Apply = true
		cfg.Database.Database = ""
		cfg.Database.ConnectionString = "root@tcp(localhost:3306)/inventory"
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Equal(t, "inventory", cfg.Database.Database)
	})

	t.Run("TLS verify modes need a CA", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Apply = true
		cfg.Database.TLS.Mode = "verify-ca"
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "database.tls.ca_file")
	})

	t.Run("skip-verify warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Apply = true
		cfg.Database.TLS.Mode = "skip-verify"
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "database.tls.mode", result.Warnings[0].Field)
	})
}
