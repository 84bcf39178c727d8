package config

import (
	"bytes"
	"fmt"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3200
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "summate"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0
	defaultUploadsDir = "uploads"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Env            string                `yaml:"env"` // "development" | "production"
	JWTSecret      string                `yaml:"jwt_secret"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	UploadsDir     string                `yaml:"uploads_dir"`
	AI             AIRuntimeConfig       `yaml:"ai"`
}

type DatabaseRuntimeConfig struct {
	DSN       string `yaml:"dsn"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Name      string `yaml:"name"`
	Charset   string `yaml:"charset"`
	ParseTime bool   `yaml:"parse_time"`
	Loc       string `yaml:"loc"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

// AIRuntimeConfig selects the model provider used for summary generation.
type AIRuntimeConfig struct {
	Provider AIProvider `yaml:"provider"`
}

// AIProvider describes one model provider endpoint.
type AIProvider struct {
	Type         string `yaml:"type"` // OpenAI | OpenAI-Compatible | Anthropic
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	DefaultModel string `yaml:"default_model"`
}

type rawAppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"`
	DatabaseURL    string                `yaml:"database_url"`
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          rawRedisConfig        `yaml:"redis"`
	Env            string                `yaml:"env"`
	NodeEnv        string                `yaml:"node_env"`
	JWTSecret      string                `yaml:"jwt_secret"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	UploadsDir     string                `yaml:"uploads_dir"`
	AI             AIRuntimeConfig       `yaml:"ai"`
	OpenAIAPIKey   string                `yaml:"openai_api_key"` // legacy flat key
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

// Load reads and validates the YAML config file.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	applyRawAppConfig(&cfg, raw)
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return nil, fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", cfg.Redis.Port, path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port:       defaultPort,
		Env:        defaultEnv,
		UploadsDir: defaultUploadsDir,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
	}
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}

	db := cfg.Database
	if v := strings.TrimSpace(raw.Database.DSN); v != "" {
		db.DSN = v
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		db.DSN = v
	}
	if v := strings.TrimSpace(raw.DatabaseURL); v != "" {
		db.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.Host); v != "" {
		db.Host = v
	}
	if raw.Database.Port != 0 {
		db.Port = raw.Database.Port
	}
	if v := strings.TrimSpace(raw.Database.User); v != "" {
		db.User = v
	}
	if v := strings.TrimSpace(raw.Database.Password); v != "" {
		db.Password = v
	}
	if v := strings.TrimSpace(raw.Database.Name); v != "" {
		db.Name = v
	}
	if v := strings.TrimSpace(raw.Database.Charset); v != "" {
		db.Charset = v
	}
	if v := strings.TrimSpace(raw.Database.Loc); v != "" {
		db.Loc = v
	}
	cfg.Database = db

	rds := cfg.Redis
	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		rds.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		rds.URL = v
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		rds.Host = v
	}
	if raw.Redis.Port != 0 {
		rds.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		rds.Username = v
	}
	if v := strings.TrimSpace(raw.Redis.Password); v != "" {
		rds.Password = v
	}
	if raw.Redis.DB != nil {
		rds.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		rds.TLS = *raw.Redis.TLS
	}
	cfg.Redis = rds

	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	if v := strings.TrimSpace(raw.UploadsDir); v != "" {
		cfg.UploadsDir = v
	}

	cfg.AI = raw.AI
	cfg.AI.Provider.Type = strings.TrimSpace(cfg.AI.Provider.Type)
	cfg.AI.Provider.APIKey = strings.TrimSpace(cfg.AI.Provider.APIKey)
	cfg.AI.Provider.Endpoint = strings.TrimSpace(cfg.AI.Provider.Endpoint)
	cfg.AI.Provider.DefaultModel = strings.TrimSpace(cfg.AI.Provider.DefaultModel)
	if cfg.AI.Provider.APIKey == "" && strings.TrimSpace(raw.OpenAIAPIKey) != "" {
		cfg.AI.Provider = AIProvider{Type: "OpenAI", APIKey: strings.TrimSpace(raw.OpenAIAPIKey)}
	}

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
}

// DSNValue assembles a MySQL DSN from the structured fields unless an
// explicit DSN was provided.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	host := c.Host
	if host == "" {
		host = defaultDBHost
	}
	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}

	params := neturl.Values{}
	params.Set("charset", c.Charset)
	params.Set("parseTime", strconv.FormatBool(c.ParseTime))
	params.Set("loc", c.Loc)

	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		c.User, c.Password, net.JoinHostPort(host, strconv.Itoa(port)), c.Name, params.Encode())
}

// URLValue assembles a redis:// URL from the structured fields unless an
// explicit URL was provided.
func (c RedisRuntimeConfig) URLValue() string {
	if u := strings.TrimSpace(c.URL); u != "" {
		if strings.HasPrefix(u, "redis://") || strings.HasPrefix(u, "rediss://") {
			return u
		}
		return "redis://" + u
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}
	host := c.Host
	if host == "" {
		host = defaultRedisHost
	}
	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}

	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = neturl.UserPassword(c.Username, c.Password)
		} else {
			u.User = neturl.User(c.Username)
		}
	} else if c.Password != "" {
		u.User = neturl.UserPassword("", c.Password)
	}
	return u.String()
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}
