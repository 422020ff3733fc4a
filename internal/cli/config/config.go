package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/jsonapi-oas/internal/openapi"
)

// FileName is the config file base name, without extension.
const FileName = "jsonapi-oas"

// EnvPrefix prefixes every environment override, e.g. JSONAPI_OAS_OUTPUT_PATH.
const EnvPrefix = "JSONAPI_OAS"

// Config represents the generator configuration
type Config struct {
	Metadata  string          `mapstructure:"metadata"`
	Output    OutputConfig    `mapstructure:"output"`
	Info      InfoConfig      `mapstructure:"info"`
	Servers   []ServerConfig  `mapstructure:"servers"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Serve     ServeConfig     `mapstructure:"serve"`
	Log       LogConfig       `mapstructure:"log"`

	// File is the config file that was read, empty when defaults were used.
	File string `mapstructure:"-"`
}

// OutputConfig controls where and how the document is written
type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// InfoConfig is copied into the document info object
type InfoConfig struct {
	Title       string `mapstructure:"title"`
	Version     string `mapstructure:"version"`
	Description string `mapstructure:"description"`
}

// ServerConfig is one entry of the document servers list
type ServerConfig struct {
	URL         string `mapstructure:"url"`
	Description string `mapstructure:"description"`
}

// GeneratorConfig tunes document assembly
type GeneratorConfig struct {
	MediaType        string `mapstructure:"media_type"`
	Parallelism      int    `mapstructure:"parallelism"`
	RelatedEndpoints bool   `mapstructure:"related_endpoints"`
	QueryParameters  bool   `mapstructure:"query_parameters"`
}

// ServeConfig represents the docs server configuration
type ServeConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("metadata", "resources.json")
	v.SetDefault("output.path", "openapi.json")
	v.SetDefault("output.format", FormatJSON)
	v.SetDefault("info.title", "JSON:API")
	v.SetDefault("info.version", "1.0.0")
	v.SetDefault("info.description", "")
	v.SetDefault("generator.media_type", openapi.DefaultMediaType)
	v.SetDefault("generator.parallelism", runtime.GOMAXPROCS(0))
	v.SetDefault("generator.related_endpoints", false)
	v.SetDefault("generator.query_parameters", false)
	v.SetDefault("serve.host", "localhost")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the configuration. An explicit path must exist; with an empty
// path the nearest jsonapi-oas.yaml (or .yml) from the working directory up
// is used, and defaults apply when there is none.
func Load(path string) (*Config, error) {
	return LoadWith(New(), path)
}

// LoadWith is Load on a caller-provided viper instance, so command flags
// bound to v take precedence over the file.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		if found, err := FindConfigFile(""); err == nil {
			path = found
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	// Relative metadata and output paths are resolved against the config file.
	if cfg.File != "" {
		dir := filepath.Dir(cfg.File)
		cfg.Metadata = resolve(dir, cfg.Metadata)
		cfg.Output.Path = resolve(dir, cfg.Output.Path)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrNoConfigFile is returned by FindConfigFile when no file exists up to
// the filesystem root.
var ErrNoConfigFile = errors.New("no " + FileName + ".yaml found")

// FindConfigFile walks up from dir (the working directory when empty)
// looking for jsonapi-oas.yaml or jsonapi-oas.yml.
func FindConfigFile(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}

	for {
		for _, ext := range []string{".yaml", ".yml"} {
			candidate := filepath.Join(dir, FileName+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoConfigFile
		}
		dir = parent
	}
}

// OpenAPI converts the configuration into assembler settings.
func (c *Config) OpenAPI() openapi.Config {
	servers := make([]openapi.Server, 0, len(c.Servers))
	for _, s := range c.Servers {
		servers = append(servers, openapi.Server{URL: s.URL, Description: s.Description})
	}

	return openapi.Config{
		Info: openapi.Info{
			Title:       c.Info.Title,
			Version:     c.Info.Version,
			Description: c.Info.Description,
		},
		Servers:          servers,
		MediaType:        c.Generator.MediaType,
		Parallelism:      c.Generator.Parallelism,
		RelatedEndpoints: c.Generator.RelatedEndpoints,
		QueryParameters:  c.Generator.QueryParameters,
	}
}

// LogLevel parses log.level.
func (c *Config) LogLevel() zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Addr returns the host:port the docs server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Serve.Host, c.Serve.Port)
}

func resolve(dir, path string) string {
	if path == "" || path == "-" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Metadata == "" {
		return fmt.Errorf("metadata must not be empty")
	}

	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	if cfg.Output.Format == "yml" {
		cfg.Output.Format = FormatYAML
	}
	if cfg.Output.Format != FormatJSON && cfg.Output.Format != FormatYAML {
		return fmt.Errorf("output.format must be %q or %q, got: %s", FormatJSON, FormatYAML, cfg.Output.Format)
	}

	if cfg.Generator.MediaType == "" {
		return fmt.Errorf("generator.media_type must not be empty")
	}
	if cfg.Generator.Parallelism < 1 {
		return fmt.Errorf("generator.parallelism must be at least 1, got: %d", cfg.Generator.Parallelism)
	}

	for i, s := range cfg.Servers {
		if s.URL == "" {
			return fmt.Errorf("servers[%d].url must not be empty", i)
		}
	}

	if cfg.Serve.Port < 1 || cfg.Serve.Port > 65535 {
		return fmt.Errorf("serve.port must be between 1 and 65535, got: %d", cfg.Serve.Port)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q is not a valid level", cfg.Log.Level)
	}
	return nil
}
