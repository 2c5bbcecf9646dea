// Package infra handles configuration loading and infrastructure wiring.
package infra

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/coffeedash/pkg/etl"
)

// Config is the top-level configuration structure for coffeedash.
type Config struct {
	Server   ServerConfig       `yaml:"server"`
	Source   etl.SourceConfig   `yaml:"source"`
	Cleaning etl.CleaningConfig `yaml:"cleaning"`
	Views    []etl.ViewConfig   `yaml:"views"` // default: etl.DefaultViews()
	Redis    RedisConfig        `yaml:"redis"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Name         string        `yaml:"name"`          // page title; default "Coffee Analysis"
	Addr         string        `yaml:"addr"`          // default ":8050"
	Debug        bool          `yaml:"debug"`         // console logs + debug level; default true
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default 10s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default 30s
}

// RedisConfig - опциональный Redis для отчета о загрузке и кеша SVG.
// Пустой Addr (и не --dev) отключает оба.
type RedisConfig struct {
	Addr       string        `yaml:"addr"`        // host:port
	Password   string        `yaml:"password"`    // empty = no auth
	DB         int           `yaml:"db"`          // 0-based
	ResultName string        `yaml:"result_name"` // ключ отчета: coffeedash:load:<name>:state; default "coffeedash"
	ResultTTL  time.Duration `yaml:"result_ttl"`  // default 24h
	CacheTTL   time.Duration `yaml:"cache_ttl"`   // TTL кеша SVG; default 10m, 0 в файле = без кеша
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Name = "Coffee Analysis"
	cfg.Server.Addr = ":8050"
	cfg.Server.Debug = true
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Source.ApplyDefaults()
	cfg.Views = etl.DefaultViews()
	cfg.Redis.ResultName = "coffeedash"
	cfg.Redis.ResultTTL = 24 * time.Hour
	cfg.Redis.CacheTTL = 10 * time.Minute
	return cfg
}

// LoadConfig reads and validates the YAML config at path, applying defaults.
// Empty path returns Default().
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	cfg.Source.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	names := make(map[string]bool, len(c.Views))
	for i := range c.Views {
		v := &c.Views[i]
		if err := v.Validate(); err != nil {
			return fmt.Errorf("views[%d]: %w", i, err)
		}
		if v.Name == c.Source.Name {
			return fmt.Errorf("view %q: name collides with source table", v.Name)
		}
		if names[v.Name] {
			return fmt.Errorf("view %q: duplicate name", v.Name)
		}
		names[v.Name] = true
	}
	return nil
}
