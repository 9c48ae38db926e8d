package config

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"graphql-ddl/internal/changelog"
	"graphql-ddl/internal/naming"
	"graphql-ddl/internal/observability"
	"graphql-ddl/internal/schemafilter"
	"graphql-ddl/internal/sqltype"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors and returns validation results.
// Database settings are only checked when apply or verify is enabled.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	c.validateInputOutput(result)
	c.ChangeSet.validate(result, c.Output.Format)
	c.Mapping.validate(result)
	validateSchemaFilters(result, c.SchemaFilters)
	validateNamingConfig(result, c.Naming)
	c.Logging.validate(result)
	c.Observability.validate(result)

	if c.Database.Enabled() {
		c.Database.validate(result)
	}

	return result
}

func (c *Config) validateInputOutput(result *ValidationResult) {
	if strings.TrimSpace(c.Schema.File) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "schema.file",
			Message: "schema file is required",
			Hint:    "pass --schema.file path/to/schema.graphql or @- for stdin",
		})
	}

	format := strings.ToLower(strings.TrimSpace(c.Output.Format))
	if _, err := changelog.ForFormat(format); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "output.format",
			Message: fmt.Sprintf("invalid output format %q", c.Output.Format),
			Hint:    "valid values are: " + strings.Join(changelog.Formats(), ", "),
		})
	}
}

func (c *ChangeSetConfig) validate(result *ValidationResult, format string) {
	if strings.TrimSpace(c.ID) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "changeset.id",
			Message: "changeset id cannot be empty",
			Hint:    "set an id or use \"auto\" to generate one",
		})
	}
	if strings.TrimSpace(c.Author) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "changeset.author",
			Message: "changeset author cannot be empty",
		})
	}

	if strings.EqualFold(strings.TrimSpace(format), changelog.FormatSQL) {
		for _, kv := range [][2]string{{"changeset.id", c.ID}, {"changeset.author", c.Author}} {
			if strings.ContainsAny(strings.TrimSpace(kv[1]), " \t\r\n") {
				result.Errors = append(result.Errors, ValidationError{
					Field:   kv[0],
					Message: fmt.Sprintf("%q cannot contain whitespace in sql format", kv[1]),
				})
			}
		}
	}
}

func (m *MappingConfig) validate(result *ValidationResult) {
	if m.TextLength <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "mapping.text_length",
			Message: fmt.Sprintf("text_length must be positive, got %d", m.TextLength),
		})
	}
	if strings.TrimSpace(m.IDType) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "mapping.id_type",
			Message: "id_type cannot be empty",
			Hint:    "use an integer type such as BIGINT",
		})
	} else if _, err := sqltype.ParseColumnType(m.IDType); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "mapping.id_type",
			Message: err.Error(),
		})
	}
	if _, err := m.scalarOverrides(); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "mapping.scalars",
			Message: strings.TrimPrefix(err.Error(), "mapping.scalars: "),
			Hint:    "use entries such as DateTime=DATETIME",
		})
	}
	for _, name := range m.SkipTypes {
		if strings.TrimSpace(name) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "mapping.skip_types",
				Message: "type name cannot be empty",
			})
		}
	}
}

func validateSchemaFilters(result *ValidationResult, filters schemafilter.Config) {
	validateGlobList(result, "schema_filters.allow_types", filters.AllowTypes)
	validateGlobList(result, "schema_filters.deny_types", filters.DenyTypes)
	validatePatternMap(result, "schema_filters.allow_fields", filters.AllowFields)
	validatePatternMap(result, "schema_filters.deny_fields", filters.DenyFields)
}

func validateNamingConfig(result *ValidationResult, cfg naming.Config) {
	for singular, plural := range cfg.PluralOverrides {
		if strings.TrimSpace(singular) == "" || strings.TrimSpace(plural) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "naming.plural_overrides",
				Message: fmt.Sprintf("override %q -> %q cannot have an empty side", singular, plural),
			})
		}
	}
	if len(cfg.PluralOverrides) > 0 && !cfg.PluralizeTables {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "naming.plural_overrides",
			Message: "plural overrides have no effect while pluralize_tables is false",
		})
	}
}

func validatePatternMap(result *ValidationResult, field string, patternMap map[string][]string) {
	keys := make([]string, 0, len(patternMap))
	for k := range patternMap {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, typePattern := range keys {
		if strings.TrimSpace(typePattern) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field,
				Message: "type key cannot be empty",
			})
			continue
		}
		for _, fieldPattern := range patternMap[typePattern] {
			if strings.TrimSpace(fieldPattern) == "" {
				result.Errors = append(result.Errors, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("field pattern for type %q cannot be empty", typePattern),
				})
				continue
			}
			if _, err := path.Match(strings.ToLower(fieldPattern), "probe"); err != nil {
				result.Errors = append(result.Errors, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("invalid field glob pattern %q for type %q: %v", fieldPattern, typePattern, err),
				})
			}
		}
	}
}

func validateGlobList(result *ValidationResult, field string, patterns []string) {
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field,
				Message: "glob pattern cannot be empty",
			})
			continue
		}
		if _, err := path.Match(strings.ToLower(pattern), "probe"); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid glob pattern %q: %v", pattern, err),
			})
		}
	}
}

func (l *LoggingConfig) validate(result *ValidationResult) {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[l.Level] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level %q", l.Level),
			Hint:    "valid values are: debug, info, warn, error",
		})
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[l.Format] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format %q", l.Format),
			Hint:    "valid values are: json, text",
		})
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.trace_sample_ratio",
			Message: fmt.Sprintf("trace_sample_ratio %v must be between 0 and 1", o.TraceSampleRatio),
		})
	}
	if !o.TracingEnabled && !o.LogExportsEnabled {
		return
	}
	if _, err := observability.ParseOTLPProtocol(o.OTLP.Protocol); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.otlp.protocol",
			Message: err.Error(),
		})
	}
	if strings.TrimSpace(o.OTLP.Endpoint) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.otlp.endpoint",
			Message: "endpoint is required when OTLP export is enabled",
		})
	}
	if o.OTLP.Compression != "" && o.OTLP.Compression != "none" && o.OTLP.Compression != "gzip" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.otlp.compression",
			Message: fmt.Sprintf("invalid compression %q", o.OTLP.Compression),
			Hint:    "valid values are: none, gzip",
		})
	}
	if (o.OTLP.TLSClientCertFile != "") != (o.OTLP.TLSClientKeyFile != "") {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.otlp.tls_client_cert_file",
			Message: "tls_client_cert_file and tls_client_key_file must be set together",
		})
	}
}

func (d *DatabaseConfig) validate(result *ValidationResult) {
	if strings.TrimSpace(d.MyCnfFile) != "" && (strings.TrimSpace(d.ConnectionString) != "" || strings.TrimSpace(d.ConnectionStringFile) != "") {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.mycnf_file",
			Message: "mycnf_file is mutually exclusive with dsn/dsn_file",
			Hint:    "set either mycnf_file or dsn/dsn_file, not both",
		})
	}

	if d.ConnectionString == "" && (d.Port < 1 || d.Port > 65535) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.port",
			Message: fmt.Sprintf("port %d is out of valid range (1-65535)", d.Port),
		})
	}

	d.TLS.validate(result)

	if d.ConnectionTimeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.connection_timeout",
			Message: "connection_timeout cannot be negative",
		})
	}
	if d.ConnectionRetryInterval < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.connection_retry_interval",
			Message: "connection_retry_interval cannot be negative",
		})
	}
	if d.ConnectionTimeout > 0 && d.ConnectionRetryInterval == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.connection_retry_interval",
			Message: "connection_retry_interval must be greater than 0 when connection_timeout is set",
			Hint:    "set a retry interval such as 2s, or set connection_timeout to 0 to disable retries",
		})
	}
	if d.ConnectionTimeout > 0 && d.ConnectionRetryInterval > d.ConnectionTimeout {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "database.connection_retry_interval",
			Message: "connection_retry_interval is greater than connection_timeout",
			Hint:    "only one connection attempt will be made",
		})
	}

	effectiveDatabase, _, err := d.EffectiveDatabaseName()
	if err != nil {
		field := "database.database"
		if strings.HasPrefix(err.Error(), "database.dsn") {
			field = "database.dsn"
		} else if strings.HasPrefix(err.Error(), "database.mycnf_file") {
			field = "database.mycnf_file"
		}
		result.Errors = append(result.Errors, ValidationError{
			Field:   field,
			Message: err.Error(),
			Hint:    "set database.database or include a /database in database.dsn",
		})
		return
	}
	d.Database = effectiveDatabase
}

func (t *DatabaseTLSConfig) validate(result *ValidationResult) {
	validModes := map[string]bool{"": true, "off": true, "skip-verify": true, "verify-ca": true, "verify-full": true}
	if !validModes[t.Mode] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.tls.mode",
			Message: fmt.Sprintf("invalid TLS mode %q", t.Mode),
			Hint:    "valid values are: off, skip-verify, verify-ca, verify-full",
		})
	}

	if (t.Mode == "verify-ca" || t.Mode == "verify-full") && t.CAFile == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.tls.ca_file",
			Message: "CA file is required for verify-ca and verify-full modes",
		})
	}

	if (t.CertFile != "") != (t.KeyFile != "") {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.tls.cert_file",
			Message: "both cert_file and key_file must be specified for client certificate authentication",
			Hint:    "provide both cert_file and key_file, or neither",
		})
	}

	if t.Mode == "skip-verify" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "database.tls.mode",
			Message: "skip-verify mode does not verify server certificates",
			Hint:    "use verify-ca or verify-full in production",
		})
	}
}
