// Package config loads the gateway configuration from the environment,
// optionally layered over a YAML file of the same keys.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Komal-TGT/Storage-service/pkg/db"
	"github.com/Komal-TGT/Storage-service/pkg/logger"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
)

// ErrInvalid wraps every configuration error.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full gateway configuration.
type Config struct {
	Port      int    `env:"PORT" envDefault:"4004"`
	PublicURL string `env:"PUBLIC_URL"`

	Storage Storage
	Access  Access
	Backup  Backup
	HTTP    HTTP

	RedisURL string `env:"REDIS_URL"`

	DB  db.Config
	Log logger.Config
}

// Storage selects the S3 account and buckets. ConnectionString, when set,
// supplies credentials and endpoint and wins over the discrete fields.
type Storage struct {
	ConnectionString string        `env:"STORAGE_CONNECTION_STRING"`
	AccessKey        string        `env:"STORAGE_ACCESS_KEY"`
	SecretKey        string        `env:"STORAGE_SECRET_KEY"`
	Endpoint         string        `env:"STORAGE_ENDPOINT"`
	Region           string        `env:"STORAGE_REGION" envDefault:"us-east-1"`
	PathStyle        bool          `env:"STORAGE_PATH_STYLE"`
	Container        string        `env:"STORAGE_CONTAINER" envDefault:"receipts"`
	BackupContainer  string        `env:"STORAGE_BACKUP_CONTAINER" envDefault:"receipts-backup"`
	CDNURL           string        `env:"STORAGE_CDN_URL"`
	CopyMaxWait      time.Duration `env:"BACKUP_COPY_MAX_WAIT" envDefault:"2m"`
}

// Access configures grant issuing.
type Access struct {
	PermanentPolicyID string        `env:"PERMANENT_POLICY_ID" envDefault:"permanent-read"`
	DefaultExpiry     time.Duration `env:"SIGNED_URL_DEFAULT_EXPIRY" envDefault:"1h"`

	// PolicyCacheTTL enables the Redis policy cache. It is ignored without
	// REDIS_URL. Zero, the default, reads the policy on every verification.
	PolicyCacheTTL time.Duration `env:"POLICY_CACHE_TTL"`
}

// Backup configures the reconciliation cycle.
type Backup struct {
	Schedule   string        `env:"BACKUP_SCHEDULE" envDefault:"10 * * * *"`
	CopyURLTTL time.Duration `env:"BACKUP_COPY_URL_TTL" envDefault:"10m"`
	LeaseTTL   time.Duration `env:"BACKUP_LEASE_TTL" envDefault:"30m"`
	Disabled   bool          `env:"BACKUP_DISABLED"`
}

// HTTP configures the gateway surface.
type HTTP struct {
	AllowOrigins    []string      `env:"ALLOW_ORIGINS" envSeparator:","`
	APIKeys         []string      `env:"API_KEYS" envSeparator:","`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// HealthTimeout bounds all readiness checks of one probe.
	HealthTimeout time.Duration `env:"HEALTH_TIMEOUT" envDefault:"3s"`
}

// Load parses the process environment over the optional YAML file at path.
// The file is a flat mapping of the same keys as the environment:
//
//	STORAGE_ENDPOINT: http://localhost:9000
//	STORAGE_PATH_STYLE: true
//	BACKUP_SCHEDULE: "*/15 * * * *"
func Load(path string) (*Config, error) {
	vars, err := readFile(path)
	if err != nil {
		return nil, err
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return Parse(vars)
}

// Parse builds a Config from an explicit set of variables.
func Parse(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string) (map[string]string, error) {
	vars := make(map[string]string)
	if path == "" {
		return vars, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalid, path, err)
	}
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalid, path, err)
	}
	return vars, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: PORT %d out of range", ErrInvalid, c.Port)
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: MAX_UPLOAD_BYTES must be positive", ErrInvalid)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GatewayURL is the externally visible base URL used in permanent links.
func (c *Config) GatewayURL() string {
	if c.PublicURL != "" {
		return strings.TrimSuffix(c.PublicURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// StorageConfig resolves the storage settings. Missing credentials yield
// storage.ErrInvalidConfig from storage.New.
func (c *Config) StorageConfig() (storage.Config, error) {
	s := c.Storage
	out := storage.Config{
		AccessKey:       s.AccessKey,
		SecretKey:       s.SecretKey,
		Endpoint:        s.Endpoint,
		Region:          s.Region,
		PathStyle:       s.PathStyle,
		Container:       s.Container,
		BackupContainer: s.BackupContainer,
		PublicURL:       s.CDNURL,
		MaxObjectSize:   c.HTTP.MaxUploadBytes,
		CopyMaxWait:     s.CopyMaxWait,
	}

	if s.ConnectionString != "" {
		parsed, err := storage.ParseConnectionString(s.ConnectionString)
		if err != nil {
			return storage.Config{}, err
		}
		out.AccessKey, out.SecretKey = parsed.AccessKey, parsed.SecretKey
		if parsed.Endpoint != "" {
			out.Endpoint = parsed.Endpoint
		}
		if parsed.Region != "" {
			out.Region = parsed.Region
		}
		out.PathStyle = out.PathStyle || parsed.PathStyle
	}

	return out, nil
}
