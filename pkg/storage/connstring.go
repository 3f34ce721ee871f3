package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseConnectionString reads a semicolon separated key=value connection
// string, e.g. "AccessKey=a;SecretKey=s;Endpoint=http://localhost:9000;PathStyle=true".
// Keys are case-insensitive. Only credential and endpoint fields are set.
func ParseConnectionString(s string) (Config, error) {
	var cfg Config
	for part := range strings.SplitSeq(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Config{}, fmt.Errorf("%w: connection string segment %q has no value", ErrInvalidConfig, part)
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "accesskey", "accountname":
			cfg.AccessKey = value
		case "secretkey", "accountkey":
			cfg.SecretKey = value
		case "endpoint":
			cfg.Endpoint = value
		case "region":
			cfg.Region = value
		case "pathstyle":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return Config{}, fmt.Errorf("%w: PathStyle %q is not a boolean", ErrInvalidConfig, value)
			}
			cfg.PathStyle = b
		default:
			return Config{}, fmt.Errorf("%w: unknown connection string key %q", ErrInvalidConfig, key)
		}
	}

	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return Config{}, fmt.Errorf("%w: connection string needs AccessKey and SecretKey", ErrInvalidConfig)
	}
	return cfg, nil
}
