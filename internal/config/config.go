package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported backend drivers.
const (
	DriverMySQL     = "mysql"
	DriverPostgres  = "postgres"
	DriverPgx       = "pgx"
	DriverSQLite    = "sqlite"
	DriverPostgREST = "postgrest"
)

type Config struct {
	Server struct {
		Port      int `yaml:"port"`
		RateLimit struct {
			Requests int           `yaml:"requests"` // per client IP per window
			Window   time.Duration `yaml:"window"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`

	Backend struct {
		Driver string `yaml:"driver"`
	} `yaml:"backend"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`

	PostgREST struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"apiKey"`
		Table  string `yaml:"table"`
	} `yaml:"postgrest"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`

	NATS struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
}

// Load baca file config.yaml, lalu env override dan default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault works like Load but falls back to defaults when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &Config{}
		cfg.applyEnv()
		cfg.applyDefaults()
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// secrets lewat env, jangan di file
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("POSTGREST_API_KEY"); v != "" {
		c.PostgREST.APIKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATS.URL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit.Requests == 0 {
		c.Server.RateLimit.Requests = 600
	}
	if c.Server.RateLimit.Window == 0 {
		c.Server.RateLimit.Window = time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Backend.Driver == "" {
		c.Backend.Driver = DriverSQLite
	}
	c.Backend.Driver = strings.ToLower(c.Backend.Driver)
	if c.SQLite.Path == "" {
		c.SQLite.Path = "data/analyses.db"
	}
	if c.PostgREST.Table == "" {
		c.PostgREST.Table = "analyses"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "analyses.events"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
}

// Validate checks the fields the selected backend needs.
func (c *Config) Validate() error {
	switch c.Backend.Driver {
	case DriverSQLite:
	case DriverMySQL, DriverPostgres, DriverPgx:
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("backend %s needs database.host and database.name", c.Backend.Driver)
		}
	case DriverPostgREST:
		if c.PostgREST.URL == "" {
			return fmt.Errorf("backend postgrest needs postgrest.url")
		}
	default:
		return fmt.Errorf("unknown backend driver %q", c.Backend.Driver)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (lib/pq dan pgx sama-sama terima URL)
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
