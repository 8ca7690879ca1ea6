// Package config loads the dashboard configuration from defaults, an
// optional YAML file and VINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-vine/internal/service"
	"github.com/joeblew999/plat-vine/internal/session"
)

// EnvPrefix prefixes every environment override: VINE_BACKEND_URL → backend.url.
const EnvPrefix = "VINE"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Backend    BackendConfig    `mapstructure:"backend" yaml:"backend"`
	Session    SessionConfig    `mapstructure:"session" yaml:"session"`
	Map        MapConfig        `mapstructure:"map" yaml:"map"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	DevBackend DevBackendConfig `mapstructure:"devbackend" yaml:"devbackend"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// TemplatesDir, when set, loads templates from disk instead of the
	// built-in copies.
	TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir,omitempty"`
}

type BackendConfig struct {
	URL     string            `mapstructure:"url" yaml:"url"`
	Timeout time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Headers map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
}

type SessionConfig struct {
	Caps          session.Capabilities       `mapstructure:"caps" yaml:"caps"`
	Policy        string                     `mapstructure:"policy" yaml:"policy"`
	Date          string                     `mapstructure:"date" yaml:"date"`
	PromptDefault string                     `mapstructure:"prompt_default" yaml:"prompt_default"`
	TTL           time.Duration              `mapstructure:"ttl" yaml:"ttl"`
	Settings      service.Settings           `mapstructure:"settings" yaml:"settings"`
	Filters       []service.FilterDescriptor `mapstructure:"filters" yaml:"filters,omitempty"`
}

// Options returns the seed of every new session.
func (s SessionConfig) Options() session.Options {
	return session.Options{
		Caps:          s.Caps,
		Policy:        session.FetchPolicy(s.Policy),
		Date:          s.Date,
		Settings:      s.Settings.Clone(),
		Filters:       append([]service.FilterDescriptor(nil), s.Filters...),
		PromptDefault: s.PromptDefault,
	}
}

type MapConfig struct {
	Title       string  `mapstructure:"title" yaml:"title"`
	CenterLat   float64 `mapstructure:"center_lat" yaml:"center_lat"`
	CenterLon   float64 `mapstructure:"center_lon" yaml:"center_lon"`
	Zoom        int     `mapstructure:"zoom" yaml:"zoom"`
	TileURL     string  `mapstructure:"tile_url" yaml:"tile_url"`
	Attribution string  `mapstructure:"attribution" yaml:"attribution"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type DevBackendConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// DBPath is the DuckDB file; empty keeps the data in memory.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8086)
	v.SetDefault("server.templates_dir", "")

	v.SetDefault("backend.url", "http://localhost:8087")
	v.SetDefault("backend.timeout", 10*time.Second)

	v.SetDefault("session.caps.zone_click", true)
	v.SetDefault("session.caps.filters", false)
	v.SetDefault("session.caps.alerts", false)
	v.SetDefault("session.policy", string(session.PolicyLatest))
	v.SetDefault("session.date", "2021-07-31")
	v.SetDefault("session.prompt_default", "Vineyard")
	v.SetDefault("session.ttl", 30*time.Minute)

	v.SetDefault("map.title", "Vineyard disease risk")
	v.SetDefault("map.center_lat", 45.1)
	v.SetDefault("map.center_lon", 37.5)
	v.SetDefault("map.zoom", 10)
	v.SetDefault("map.tile_url", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("map.attribution", "&copy; OpenStreetMap contributors")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("devbackend.host", "0.0.0.0")
	v.SetDefault("devbackend.port", 8087)
	v.SetDefault("devbackend.db_path", "")
}

// Load reads configuration. When path is empty an optional vine.yaml in the
// working directory or ./configs is used; a named file must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("vine")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Session.Settings) == 0 {
		cfg.Session.Settings = service.DefaultSettings()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// The defaults above always decode.
	_ = v.Unmarshal(&cfg)
	cfg.Session.Settings = service.DefaultSettings()
	return &cfg
}

// Validate checks that the configuration is complete and consistent.
// Every problem is reported, not only the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if u, err := url.Parse(c.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.url must be an http(s) URL, got %q", c.Backend.URL))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}

	switch session.FetchPolicy(c.Session.Policy) {
	case session.PolicyLatest, session.PolicyLastWriteWins:
	default:
		errs = append(errs, fmt.Errorf("session.policy must be %q or %q, got %q",
			session.PolicyLatest, session.PolicyLastWriteWins, c.Session.Policy))
	}
	if !session.ValidDate(c.Session.Date) {
		errs = append(errs, fmt.Errorf("session.date must be YYYY-MM-DD, got %q", c.Session.Date))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, errors.New("session.ttl must not be negative"))
	}
	if err := c.Session.Settings.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("session.settings: %w", err))
	}
	seen := map[string]bool{}
	for _, f := range c.Session.Filters {
		if err := f.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("session.filters: %w", err))
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("session.filters: duplicate filter %q", f.Name))
		}
		seen[f.Name] = true
	}

	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		errs = append(errs, fmt.Errorf("map.zoom must be 0-22, got %d", c.Map.Zoom))
	}
	if c.DevBackend.Port <= 0 || c.DevBackend.Port > 65535 {
		errs = append(errs, fmt.Errorf("devbackend.port must be 1-65535, got %d", c.DevBackend.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
