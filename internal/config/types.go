package config

import (
	"time"

	"graphql-ddl/internal/naming"
	"graphql-ddl/internal/schemafilter"
)

// Config holds the application configuration.
type Config struct {
	Schema        SchemaConfig        `mapstructure:"schema"`
	Output        OutputConfig        `mapstructure:"output"`
	ChangeSet     ChangeSetConfig     `mapstructure:"changeset"`
	Mapping       MappingConfig       `mapstructure:"mapping"`
	SchemaFilters schemafilter.Config `mapstructure:"schema_filters"`
	Naming        naming.Config       `mapstructure:"naming"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// SchemaConfig locates the GraphQL SDL input.
type SchemaConfig struct {
	// File is the SDL path; "@-" reads from stdin.
	File string `mapstructure:"file"`
}

// OutputConfig controls where and how the changelog is written.
type OutputConfig struct {
	// File is the destination path; empty or "-" writes to stdout.
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"`
}

// ChangeSetConfig identifies the generated changeset.
type ChangeSetConfig struct {
	// ID of "auto" generates a random UUID per run.
	ID     string `mapstructure:"id"`
	Author string `mapstructure:"author"`
}

// MappingConfig controls scalar-to-column type mapping.
type MappingConfig struct {
	TextLength int    `mapstructure:"text_length"`
	IDType     string `mapstructure:"id_type"`
	// Scalars holds "Scalar=TYPE" entries, e.g. "DateTime=DATETIME".
	Scalars []string `mapstructure:"scalars"`
	// SkipTypes replaces the default introspection skip set when non-empty.
	SkipTypes []string `mapstructure:"skip_types"`
}

// LoggingConfig holds log level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig controls OTLP trace and log export.
type ObservabilityConfig struct {
	ServiceName       string     `mapstructure:"service_name"`
	TracingEnabled    bool       `mapstructure:"tracing_enabled"`
	LogExportsEnabled bool       `mapstructure:"log_exports_enabled"`
	TraceSampleRatio  float64    `mapstructure:"trace_sample_ratio"`
	OTLP              OTLPConfig `mapstructure:"otlp"`
}

// OTLPConfig holds OTLP exporter settings shared by traces and logs.
type OTLPConfig struct {
	Endpoint          string            `mapstructure:"endpoint"`
	Protocol          string            `mapstructure:"protocol"`
	Insecure          bool              `mapstructure:"insecure"`
	TLSCertFile       string            `mapstructure:"tls_cert_file"`
	TLSClientCertFile string            `mapstructure:"tls_client_cert_file"`
	TLSClientKeyFile  string            `mapstructure:"tls_client_key_file"`
	Headers           map[string]string `mapstructure:"headers"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	Compression       string            `mapstructure:"compression"`
	RetryEnabled      bool              `mapstructure:"retry_enabled"`
}

// DatabaseTLSConfig holds TLS/SSL configuration for database connections.
type DatabaseTLSConfig struct {
	// Mode controls TLS behavior:
	//   - "off": No TLS (plaintext connection)
	//   - "skip-verify": TLS without server certificate verification (insecure)
	//   - "verify-ca": TLS with CA verification but no hostname check
	//   - "verify-full": TLS with full verification including hostname
	Mode string `mapstructure:"mode"`

	CAFile     string `mapstructure:"ca_file"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
	ServerName string `mapstructure:"server_name"`
}

// DatabaseConfig holds the optional target database used to apply and
// verify generated DDL.
type DatabaseConfig struct {
	// ConnectionString is a complete go-sql-driver/mysql Data Source Name.
	// When set, overrides Host/Port/User/Password/Database fields.
	ConnectionString string `mapstructure:"dsn"`
	// ConnectionStringFile is a path to a file containing the DSN.
	// Supports "@-" to read from stdin.
	ConnectionStringFile string `mapstructure:"dsn_file"`
	// MyCnfFile points to a MySQL defaults file (.my.cnf style).
	MyCnfFile string `mapstructure:"mycnf_file"`

	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	PasswordFile   string `mapstructure:"password_file"`
	PasswordPrompt bool   `mapstructure:"password_prompt"`
	Database       string `mapstructure:"database"`

	TLS DatabaseTLSConfig `mapstructure:"tls"`

	// Apply executes the generated DDL against the database.
	Apply bool `mapstructure:"apply"`
	// Verify compares the generated tables with INFORMATION_SCHEMA.
	Verify bool `mapstructure:"verify"`

	// ConnectionTimeout is the max time to wait for the database to accept connections.
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
	// ConnectionRetryInterval is the initial interval between connection retries.
	ConnectionRetryInterval time.Duration `mapstructure:"connection_retry_interval"`
}

// Enabled reports whether any database operation was requested.
func (d *DatabaseConfig) Enabled() bool {
	return d.Apply || d.Verify
}

type myCnfSettings struct {
	Host      string
	Port      int
	User      string
	Password  string
	Database  string
	TLSMode   string
	HasPort   bool
	HasDBName bool
}
