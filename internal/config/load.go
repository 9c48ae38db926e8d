package config

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "DDLGEN"

// Load loads configuration from multiple sources with the following precedence:
// 1. Explicit overrides (v.Set) – used only for secrets read from files or prompts
// 2. Command line flags
// 3. Environment variables
// 4. Config file
// 5. Default values
//
// flags must already be parsed and should have been populated by DefineFlags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Defaults (lowest priority)
	setDefaults(v)

	// --- Config file ---
	cfgPath, _ := flags.GetString("config")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("ddlgen")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/ddlgen/")
		v.AddConfigPath("$HOME/.ddlgen")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// --- Environment variables ---
	// Canonical keys: dot + snake_case
	// Env vars: DDLGEN_OUTPUT_FORMAT, DDLGEN_DATABASE_DSN
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Flags binding (highest normal priority) ---
	bindChangedFlagsToViper(v, flags)
	if err := validateSingleStdinFileSource(v); err != nil {
		return nil, err
	}

	if v.GetBool("database.apply") || v.GetBool("database.verify") {
		if err := resolveDatabaseSecrets(v, databaseNameExplicitlyConfigured(v, flags)); err != nil {
			return nil, err
		}
	}

	// --- Unmarshal (strict) ---
	var cfg Config
	if err := unmarshalStrict(v, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func unmarshalStrict(v *viper.Viper, cfg *Config) error {
	return v.UnmarshalExact(
		cfg,
		viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				stringToStringSliceHookFunc(","),
			),
		),
	)
}

// resolveDatabaseSecrets loads DSN, my.cnf and password sources into v and
// settles the effective database name.
func resolveDatabaseSecrets(v *viper.Viper, databaseNameExplicit bool) error {
	if v.GetString("database.dsn") == "" && v.GetString("database.dsn_file") != "" {
		dsn, err := readSecretFile(v.GetString("database.dsn_file"))
		if err != nil {
			return fmt.Errorf("failed to read database DSN file: %w", err)
		}
		v.Set("database.dsn", dsn)
	}

	if myCnfPath := strings.TrimSpace(v.GetString("database.mycnf_file")); myCnfPath != "" {
		settings, err := parseMyCnfFile(myCnfPath)
		if err != nil {
			return fmt.Errorf("failed to load database my.cnf file: %w", err)
		}
		applyMyCnf(v, settings, databaseNameExplicit)
	}

	if v.GetString("database.password") == "" && v.GetString("database.password_file") != "" {
		pwd, err := readSecretFile(v.GetString("database.password_file"))
		if err != nil {
			return fmt.Errorf("failed to read database password file: %w", err)
		}
		v.Set("database.password", pwd)
	}
	if v.GetString("database.password") == "" && v.GetBool("database.password_prompt") {
		pwd, err := promptPassword()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		v.Set("database.password", pwd)
	}

	effectiveDatabase, _, err := resolveEffectiveDatabaseName(
		v.GetString("database.database"),
		v.GetString("database.dsn"),
		v.GetString("database.mycnf_file"),
	)
	if err != nil {
		return fmt.Errorf("failed to resolve effective database name: %w", err)
	}
	v.Set("database.database", effectiveDatabase)
	return nil
}

// bindChangedFlagsToViper copies only explicitly-set flags into Viper,
// preserving precedence: flags > env > file > defaults.
func bindChangedFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "version" {
			return
		}

		switch f.Value.Type() {
		case "string":
			val, _ := flags.GetString(f.Name)
			v.Set(f.Name, val)
		case "int":
			val, _ := flags.GetInt(f.Name)
			v.Set(f.Name, val)
		case "bool":
			val, _ := flags.GetBool(f.Name)
			v.Set(f.Name, val)
		case "float64":
			val, _ := flags.GetFloat64(f.Name)
			v.Set(f.Name, val)
		case "duration":
			val, _ := flags.GetDuration(f.Name)
			v.Set(f.Name, val)
		case "stringSlice":
			val, _ := flags.GetStringSlice(f.Name)
			v.Set(f.Name, val)
		default:
			v.Set(f.Name, f.Value.String())
		}
	})
}

// DefineFlags defines all command line flags using canonical snake_case keys.
func DefineFlags(flags *pflag.FlagSet) {
	// Input and output
	flags.String("schema.file", "", "Path to GraphQL SDL schema (use @- for stdin)")
	flags.String("output.file", "", "Changelog output path (default: stdout)")
	flags.String("output.format", "", "Changelog format (xml, yaml, json, sql)")
	flags.String("changeset.id", "", "Changeset identifier (auto generates a UUID)")
	flags.String("changeset.author", "", "Changeset author label")

	// Type mapping
	flags.Int("mapping.text_length", 0, "Length bound for String and enum columns")
	flags.String("mapping.id_type", "", "Column type for primary and foreign keys (e.g. BIGINT)")
	flags.StringSlice("mapping.scalars", nil, "Custom scalar mappings as Scalar=TYPE (comma-separated or repeated)")
	flags.StringSlice("mapping.skip_types", nil, "Type names never mapped to tables (replaces the default set)")
	flags.StringSlice("schema_filters.allow_types", nil, "Glob patterns of object types to include")
	flags.StringSlice("schema_filters.deny_types", nil, "Glob patterns of object types to exclude")
	flags.Bool("naming.pluralize_tables", false, "Pluralize generated table names")

	// Database connection flags
	flags.String("database.dsn", "", "Complete MySQL DSN (user:pass@tcp(host:port)/db)")
	flags.String("database.dsn_file", "", "Path to file containing database DSN (use @- for stdin)")
	flags.String("database.mycnf_file", "", "Path to MySQL defaults file (.my.cnf format)")
	flags.String("database.host", "", "Database host")
	flags.Int("database.port", 0, "Database port")
	flags.String("database.user", "", "Database user")
	flags.String("database.password", "", "Database password")
	flags.String("database.password_file", "", "Path to file containing database password (use @- for stdin)")
	flags.Bool("database.password_prompt", false, "Prompt for database password securely")
	flags.String("database.database", "", "Database name")
	flags.String("database.tls.mode", "", "TLS mode (off, skip-verify, verify-ca, verify-full)")
	flags.String("database.tls.ca_file", "", "Path to CA certificate for server verification")
	flags.String("database.tls.cert_file", "", "Path to client certificate for mTLS")
	flags.String("database.tls.key_file", "", "Path to client private key for mTLS")
	flags.String("database.tls.server_name", "", "Override TLS server name for verification")
	flags.Bool("database.apply", false, "Execute the generated DDL against the database")
	flags.Bool("database.verify", false, "Verify the generated tables against the database")
	flags.Duration("database.connection_timeout", 0, "Max time to wait for the database (0 = fail immediately)")
	flags.Duration("database.connection_retry_interval", 0, "Initial interval between connection retries")

	// Logging
	flags.String("logging.level", "", "Log level (debug, info, warn, error)")
	flags.String("logging.format", "", "Log format (json, text)")

	// Observability
	flags.Bool("observability.tracing_enabled", false, "Export spans over OTLP")
	flags.Bool("observability.log_exports_enabled", false, "Export log records over OTLP")
	flags.Float64("observability.trace_sample_ratio", 0, "Trace sampling ratio from 0.0 to 1.0")
	flags.String("observability.otlp.endpoint", "", "OTLP endpoint (e.g., localhost:4317)")
	flags.String("observability.otlp.protocol", "", "OTLP protocol (grpc, http/protobuf)")
	flags.Bool("observability.otlp.insecure", false, "Use insecure connection (no TLS)")

	// Config file flag
	flags.StringP("config", "c", "", "Config file path")
}

// setDefaults sets default values (lowest precedence).
func setDefaults(v *viper.Viper) {
	v.SetDefault("schema.file", "")
	v.SetDefault("output.file", "")
	v.SetDefault("output.format", "xml")
	v.SetDefault("changeset.id", "1")
	v.SetDefault("changeset.author", "ddlgen")

	v.SetDefault("mapping.text_length", 255)
	v.SetDefault("mapping.id_type", "BIGINT")
	v.SetDefault("mapping.scalars", []string{})
	v.SetDefault("mapping.skip_types", []string{})

	// Schema filter defaults (allow all)
	v.SetDefault("schema_filters.allow_types", []string{})
	v.SetDefault("schema_filters.deny_types", []string{})
	v.SetDefault("schema_filters.allow_fields", map[string][]string{})
	v.SetDefault("schema_filters.deny_fields", map[string][]string{})

	v.SetDefault("naming.pluralize_tables", false)
	v.SetDefault("naming.plural_overrides", map[string]string{})

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.dsn_file", "")
	v.SetDefault("database.mycnf_file", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.password_file", "")
	v.SetDefault("database.password_prompt", false)
	v.SetDefault("database.database", "")
	v.SetDefault("database.tls.mode", "")
	v.SetDefault("database.tls.ca_file", "")
	v.SetDefault("database.tls.cert_file", "")
	v.SetDefault("database.tls.key_file", "")
	v.SetDefault("database.tls.server_name", "")
	v.SetDefault("database.apply", false)
	v.SetDefault("database.verify", false)
	v.SetDefault("database.connection_timeout", 30*time.Second)
	v.SetDefault("database.connection_retry_interval", 2*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("observability.service_name", "ddlgen")
	v.SetDefault("observability.tracing_enabled", false)
	v.SetDefault("observability.log_exports_enabled", false)
	v.SetDefault("observability.trace_sample_ratio", 1.0)
	v.SetDefault("observability.otlp.endpoint", "localhost:4317")
	v.SetDefault("observability.otlp.protocol", "grpc")
	v.SetDefault("observability.otlp.insecure", false)
	v.SetDefault("observability.otlp.tls_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_key_file", "")
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.otlp.timeout", 10*time.Second)
	v.SetDefault("observability.otlp.compression", "gzip")
	v.SetDefault("observability.otlp.retry_enabled", true)
}

// promptPassword prompts on stderr so stdout stays reserved for the changelog.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Enter database password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

func readSecretFile(path string) (string, error) {
	raw, err := readRawFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func readRawFile(path string) (string, error) {
	var data []byte
	var err error

	if path == "@-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func validateSingleStdinFileSource(v *viper.Viper) error {
	stdinBackedKeys := []string{
		"schema.file",
		"database.dsn_file",
		"database.mycnf_file",
		"database.password_file",
	}

	var configured []string
	for _, key := range stdinBackedKeys {
		if strings.TrimSpace(v.GetString(key)) == "@-" {
			configured = append(configured, key)
		}
	}

	if len(configured) > 1 {
		return fmt.Errorf(
			"multiple stdin-backed file settings use @- (%s); only one @- source is allowed",
			strings.Join(configured, ", "),
		)
	}

	return nil
}

func databaseNameExplicitlyConfigured(v *viper.Viper, flags *pflag.FlagSet) bool {
	if _, ok := os.LookupEnv(EnvPrefix + "_DATABASE_DATABASE"); ok {
		return true
	}
	if flag := flags.Lookup("database.database"); flag != nil && flag.Changed {
		return true
	}
	return v.InConfig("database.database")
}

func stringToStringSliceHookFunc(sep string) mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}

		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []string{}, nil
		}

		parts := strings.Split(raw, sep)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
}
