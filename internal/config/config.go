package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/automaton-code/internal/infra/engine/lint"
	"github.com/bryanwahyu/automaton-code/internal/infra/executor"
	"github.com/bryanwahyu/automaton-code/internal/infra/storage"
)

const (
	DefaultPath         = "config.yaml"
	DefaultPort         = 5000
	DefaultMaxCodeBytes = 512 << 10
	DefaultTimeout      = 10 * time.Second
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
		// MaxCodeBytes caps the submitted source, body or upload.
		MaxCodeBytes int64    `yaml:"max_code_bytes"`
		CORSOrigins  []string `yaml:"cors_origins"`
		RateLimit    struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Analysis struct {
		Timeout time.Duration `yaml:"timeout"`
		Workers int           `yaml:"workers"`
		Lint    lint.Options  `yaml:"lint"`
		// External tools are registered only when their binary is on PATH.
		ExternalTools bool            `yaml:"external_tools"`
		Tools         []executor.Tool `yaml:"tools"`
		// OverlayDir is laid out like the bucket: rules/sast/*.yaml,
		// rules/secrets/*.yaml and remediations.yaml.
		OverlayDir string `yaml:"overlay_dir"`
	} `yaml:"analysis"`

	LLM struct {
		Enabled   bool     `yaml:"enabled"`
		APIKey    string   `yaml:"api_key"`
		BaseURL   string   `yaml:"base_url"`
		Model     string   `yaml:"model"`
		Languages []string `yaml:"languages"`
	} `yaml:"llm"`

	// Database is an optional remediation catalog source.
	Database struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	// Minio is an optional rule pack and remediation overlay source.
	Minio struct {
		Enabled         bool `yaml:"enabled"`
		storage.Options `yaml:",inline"`
	} `yaml:"minio"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = DefaultPort
	cfg.Server.MaxCodeBytes = DefaultMaxCodeBytes
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Server.RateLimit.RPS = 5
	cfg.Server.RateLimit.Burst = 10
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Analysis.Timeout = DefaultTimeout
	cfg.Analysis.ExternalTools = true
	return &cfg
}

// LoadEnv reads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("LOG_LEVEL", &c.Log.Level)
	str("OPENAI_API_KEY", &c.LLM.APIKey)
	str("OPENAI_BASE_URL", &c.LLM.BaseURL)
	str("OPENAI_MODEL", &c.LLM.Model)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_DSN", &c.Database.DSN)
	str("MINIO_ENDPOINT", &c.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	str("MINIO_BUCKET", &c.Minio.Bucket)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("ANALYSIS_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ANALYSIS_TIMEOUT: %w", err)
		}
		c.Analysis.Timeout = d
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxCodeBytes <= 0 {
		errs = append(errs, errors.New("server.max_code_bytes must be positive"))
	}
	if c.Analysis.Timeout <= 0 {
		errs = append(errs, errors.New("analysis.timeout must be positive"))
	}
	switch strings.ToLower(c.Database.Driver) {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q not supported", c.Database.Driver))
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.enabled requires an api key (llm.api_key or OPENAI_API_KEY)"))
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.Bucket == "") {
		errs = append(errs, errors.New("minio.enabled requires endpoint and bucket"))
	}
	return errors.Join(errs...)
}

// DatabaseDSN returns the explicit DSN, or one built from the host fields.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	if c.Database.Host == "" {
		return ""
	}
	if strings.EqualFold(c.Database.Driver, "postgres") {
		return c.PostgresDSN()
	}
	return c.MySQLDSN()
}

// MySQLDSN builds a go-sql-driver/mysql DSN.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq keyword DSN.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
