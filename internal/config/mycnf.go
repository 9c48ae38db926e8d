package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

func parseMyCnfFile(path string) (myCnfSettings, error) {
	raw, err := readRawFile(path)
	if err != nil {
		return myCnfSettings{}, err
	}
	return parseMyCnf(raw)
}

// applyMyCnf copies [client] settings over the loaded values. A database
// name from the file never overrides one the user set explicitly.
func applyMyCnf(v *viper.Viper, settings myCnfSettings, databaseNameExplicit bool) {
	if settings.Host != "" {
		v.Set("database.host", settings.Host)
	}
	if settings.HasPort {
		v.Set("database.port", settings.Port)
	}
	if settings.User != "" {
		v.Set("database.user", settings.User)
	}
	if settings.Password != "" {
		v.Set("database.password", settings.Password)
	}
	if settings.TLSMode != "" {
		v.Set("database.tls.mode", settings.TLSMode)
	}
	if settings.HasDBName && !databaseNameExplicit {
		v.Set("database.database", settings.Database)
	}
}

// parseMyCnf reads the [client] section of a MySQL defaults file, falling
// back to [mysql] for the database name.
func parseMyCnf(raw string) (myCnfSettings, error) {
	settings := myCnfSettings{}
	section := ""

	for i, line := range strings.Split(raw, "\n") {
		lineno := i + 1
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}

		key, value, ok := parseMyCnfKeyValue(line)
		if !ok {
			return myCnfSettings{}, fmt.Errorf("invalid my.cnf syntax on line %d", lineno)
		}

		switch section {
		case "client":
			if err := settings.set(strings.ToLower(key), value); err != nil {
				return myCnfSettings{}, fmt.Errorf("invalid my.cnf %s on line %d: %w", key, lineno, err)
			}
		case "mysql":
			if strings.EqualFold(key, "database") && !settings.HasDBName {
				settings.Database = value
				settings.HasDBName = true
			}
		}
	}

	return settings, nil
}

func (s *myCnfSettings) set(key, value string) error {
	switch key {
	case "host":
		s.Host = value
	case "port":
		port, err := parsePort(value)
		if err != nil {
			return err
		}
		s.Port = port
		s.HasPort = true
	case "user":
		s.User = value
	case "password":
		s.Password = value
	case "database":
		s.Database = value
		s.HasDBName = true
	case "ssl-mode":
		tlsMode, err := mapMyCnfSSLMode(value)
		if err != nil {
			return err
		}
		s.TLSMode = tlsMode
	}
	return nil
}

func parseMyCnfKeyValue(line string) (key string, value string, ok bool) {
	if k, val, found := strings.Cut(line, "="); found {
		key = strings.TrimSpace(k)
		return key, stripOptionalQuotes(strings.TrimSpace(val)), key != ""
	}

	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], stripOptionalQuotes(strings.Join(parts[1:], " ")), true
}

func stripOptionalQuotes(value string) string {
	if len(value) >= 2 {
		if (value[0] == '\'' && value[len(value)-1] == '\'') || (value[0] == '"' && value[len(value)-1] == '"') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func parsePort(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("empty value")
	}
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d is out of valid range (1-65535)", port)
	}
	return port, nil
}

func mapMyCnfSSLMode(value string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "":
		return "", nil
	case "DISABLED":
		return "off", nil
	case "REQUIRED", "PREFERRED":
		return "skip-verify", nil
	case "VERIFY_CA":
		return "verify-ca", nil
	case "VERIFY_IDENTITY":
		return "verify-full", nil
	default:
		return "", fmt.Errorf("unsupported ssl-mode %q", value)
	}
}
