package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DefaultConfigFile is read when CONFIG_FILE is unset. It may be absent.
	DefaultConfigFile = "config/config.yaml"
)

// Config is the service configuration. Values come from the YAML file
// first and are then overridden by environment variables.
type Config struct {
	Env      string       `yaml:"env"`
	Server   ServerConfig `yaml:"server"`
	Database DBConfig     `yaml:"database"`
	Auth     AuthConfig   `yaml:"auth"`
	Mail     MailConfig   `yaml:"mail"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DBConfig holds database connection parameters. URL wins over the
// individual fields when set.
type DBConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type AuthConfig struct {
	AccessSecret  string        `yaml:"access_token_secret"`
	RefreshSecret string        `yaml:"refresh_token_secret"`
	AccessTTL     time.Duration `yaml:"access_token_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_token_ttl"`
}

type MailConfig struct {
	Host     string `yaml:"smtp_host"`
	Port     int    `yaml:"smtp_port"`
	User     string `yaml:"smtp_user"`
	Password string `yaml:"smtp_password"`
	From     string `yaml:"from"`
}

// DSN returns the pgx connection string
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func defaults() *Config {
	return &Config{
		Env:    EnvDevelopment,
		Server: ServerConfig{Port: "8080"},
		Auth: AuthConfig{
			AccessTTL:  5 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Mail: MailConfig{Port: 587},
	}
}

// Load reads .env, the optional YAML file and the environment, then
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit || path == "" {
		path, explicit = DefaultConfigFile, false
	}

	cfg := defaults()
	if err := cfg.readFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := []struct {
		key string
		dst *string
	}{
		{"APP_ENV", &c.Env},
		{"SERVER_PORT", &c.Server.Port},
		{"DATABASE_URL", &c.Database.URL},
		{"DB_HOST", &c.Database.Host},
		{"DB_PORT", &c.Database.Port},
		{"DB_USER", &c.Database.User},
		{"DB_PASSWORD", &c.Database.Password},
		{"DB_NAME", &c.Database.Name},
		{"ACCESS_TOKEN_SECRET", &c.Auth.AccessSecret},
		{"REFRESH_TOKEN_SECRET", &c.Auth.RefreshSecret},
		{"SMTP_HOST", &c.Mail.Host},
		{"SMTP_USER", &c.Mail.User},
		{"SMTP_PASSWORD", &c.Mail.Password},
		{"MAIL_FROM", &c.Mail.From},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", &c.Auth.AccessTTL},
		{"REFRESH_TOKEN_TTL", &c.Auth.RefreshTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		c.Mail.Port = port
	}
	return nil
}

// Validate reports the first missing or inconsistent setting
func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	if c.Database.URL == "" &&
		(c.Database.Host == "" || c.Database.Port == "" || c.Database.User == "" || c.Database.Name == "") {
		return errors.New("database settings not set (DATABASE_URL or DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}
	if c.Auth.AccessSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET not set")
	}
	if c.Auth.RefreshSecret == "" {
		return errors.New("REFRESH_TOKEN_SECRET not set")
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL must be positive")
	}
	if c.Mail.Host == "" {
		return errors.New("SMTP_HOST not set")
	}
	if c.Mail.From == "" {
		return errors.New("MAIL_FROM not set")
	}
	return nil
}
