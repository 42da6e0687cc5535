// Package config loads go-view settings from a YAML file, optional .env files
// and GOVIEW_ prefixed environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GOVIEW_"

// Storage drivers.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

type Config struct {
	Templates TemplatesConfig `yaml:"templates" envPrefix:"TEMPLATES_"`
	Engine    EngineConfig    `yaml:"engine" envPrefix:"ENGINE_"`
	Theme     ThemeConfig     `yaml:"theme" envPrefix:"THEME_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
}

// TemplatesConfig describes where templates live. Paths are lookup roots
// inside Dir, searched in order.
type TemplatesConfig struct {
	Dir       string   `yaml:"dir" env:"DIR"`
	Paths     []string `yaml:"paths" env:"PATHS" envSeparator:","`
	Extension string   `yaml:"extension" env:"EXTENSION"`
	Locales   []string `yaml:"locales" env:"LOCALES" envSeparator:","`
}

type EngineConfig struct {
	Layout   string   `yaml:"layout" env:"LAYOUT"`
	Wrappers []string `yaml:"wrappers" env:"WRAPPERS" envSeparator:","`
	Debug    bool     `yaml:"debug" env:"DEBUG"`
}

// ThemeConfig selects a go-theme manifest. Manifest is relative to
// Templates.Dir; an empty Manifest disables theming.
type ThemeConfig struct {
	Manifest string `yaml:"manifest" env:"MANIFEST"`
	Name     string `yaml:"name" env:"NAME"`
	Variant  string `yaml:"variant" env:"VARIANT"`
}

type StorageConfig struct {
	Driver string      `yaml:"driver" env:"DRIVER"`
	Size   int         `yaml:"size" env:"SIZE"`
	Redis  RedisConfig `yaml:"redis" envPrefix:"REDIS_"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Prefix   string `yaml:"prefix" env:"PREFIX"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Templates: TemplatesConfig{
			Dir:       "templates",
			Paths:     []string{"."},
			Extension: ".tpl",
		},
		Storage: StorageConfig{
			Driver: DriverNone,
			Size:   512,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "goview:template:",
			},
		},
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// LoadOption customises Load.
type LoadOption func(*loader)

type loader struct {
	envFiles    []string
	environment map[string]string
}

// WithEnvFiles reads additional variables from .env files. Later files win;
// the process environment wins over all of them.
func WithEnvFiles(files ...string) LoadOption {
	return func(l *loader) {
		for _, f := range files {
			if f = strings.TrimSpace(f); f != "" {
				l.envFiles = append(l.envFiles, f)
			}
		}
	}
}

// WithEnvironment replaces the process environment, mainly for tests.
func WithEnvironment(environment map[string]string) LoadOption {
	return func(l *loader) {
		l.environment = environment
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string, opts ...LoadOption) (Config, error) {
	l := &loader{}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	environment, err := l.environ()
	if err != nil {
		return Config{}, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environment,
	}); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l *loader) environ() (map[string]string, error) {
	out := map[string]string{}
	if len(l.envFiles) > 0 {
		fromFiles, err := godotenv.Read(l.envFiles...)
		if err != nil {
			return nil, fmt.Errorf("config: read env files: %w", err)
		}
		for k, v := range fromFiles {
			out[k] = v
		}
	}

	process := l.environment
	if process == nil {
		process = env.ToMap(os.Environ())
	}
	for k, v := range process {
		out[k] = v
	}
	return out, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Templates.Dir) == "" {
		errs = append(errs, errors.New("templates.dir is required"))
	}
	if ext := c.Templates.Extension; ext != "" && !strings.HasPrefix(ext, ".") {
		errs = append(errs, fmt.Errorf("templates.extension %q must start with a dot", ext))
	}

	switch c.Storage.Driver {
	case "", DriverNone, DriverMemory:
	case DriverRedis:
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			errs = append(errs, errors.New("storage.redis.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of none, memory, redis", c.Storage.Driver))
	}
	if c.Storage.Size < 0 {
		errs = append(errs, errors.New("storage.size must not be negative"))
	}

	if c.Theme.Manifest == "" && (c.Theme.Name != "" || c.Theme.Variant != "") {
		errs = append(errs, errors.New("theme.manifest is required to select a theme"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}
