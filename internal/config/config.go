// Package config loads generator settings from a YAML or JSON file, a .env
// file and TSOA_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/HoldYourWaffle2/tsoa/internal/analyzer"
	"github.com/HoldYourWaffle2/tsoa/internal/codegen"
	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
)

// EnvPrefix prefixes every environment override, e.g. TSOA_ENTRYFILE or
// TSOA_OUTPUT_MODELS.
const EnvPrefix = "TSOA"

// Config represents the generator configuration.
type Config struct {
	// EntryFile is the declaration set to generate from.
	EntryFile string

	// NoImplicitAdditionalProperties is the additional-properties policy.
	NoImplicitAdditionalProperties codegen.Policy
	// LegacyNoImplicitAdditionalProperties is set when the file used the old
	// boolean form of noImplicitAdditionalProperties.
	LegacyNoImplicitAdditionalProperties *bool

	ExtractEnumsAsReference bool

	Controllers ControllersConfig
	Output      OutputConfig
}

// ControllersConfig selects controllers by source path.
type ControllersConfig struct {
	Include []string
	Exclude []string
}

// OutputConfig names the files written by the CLI. Empty means stdout.
type OutputConfig struct {
	Models     string
	Routes     string
	JSONSchema string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ExtractEnumsAsReference: true,
	}
}

// Load reads the config file at path. An empty path reads only defaults and
// environment variables. A .env file next to the config, or in the working
// directory when path is empty, is loaded first; variables already set in
// the environment win.
func Load(path string) (*Config, error) {
	envFile := ".env"
	if path != "" {
		envFile = filepath.Join(filepath.Dir(path), ".env")
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %q: %w", envFile, err)
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("invalid config in %q: %w", path, err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	def := DefaultConfig()
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("entryFile", def.EntryFile)
	v.SetDefault("extractEnumsAsReference", def.ExtractEnumsAsReference)
	v.SetDefault("controllers.include", def.Controllers.Include)
	v.SetDefault("controllers.exclude", def.Controllers.Exclude)
	v.SetDefault("output.models", def.Output.Models)
	v.SetDefault("output.routes", def.Output.Routes)
	v.SetDefault("output.jsonSchema", def.Output.JSONSchema)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		EntryFile:               v.GetString("entryFile"),
		ExtractEnumsAsReference: v.GetBool("extractEnumsAsReference"),
		Controllers: ControllersConfig{
			Include: v.GetStringSlice("controllers.include"),
			Exclude: v.GetStringSlice("controllers.exclude"),
		},
		Output: OutputConfig{
			Models:     v.GetString("output.models"),
			Routes:     v.GetString("output.routes"),
			JSONSchema: v.GetString("output.jsonSchema"),
		},
	}

	switch raw := v.Get("noImplicitAdditionalProperties").(type) {
	case nil:
	case bool:
		cfg.LegacyNoImplicitAdditionalProperties = &raw
	case string:
		switch raw {
		case "true", "false":
			b := raw == "true"
			cfg.LegacyNoImplicitAdditionalProperties = &b
		default:
			cfg.NoImplicitAdditionalProperties = codegen.Policy(raw)
		}
	default:
		return nil, fmt.Errorf("noImplicitAdditionalProperties: unsupported value %v", raw)
	}
	return cfg, nil
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	if c.EntryFile == "" {
		return fmt.Errorf("entryFile must not be empty")
	}
	if !c.NoImplicitAdditionalProperties.Valid() {
		return fmt.Errorf("noImplicitAdditionalProperties: invalid value %q", c.NoImplicitAdditionalProperties)
	}
	return nil
}

// AnalyzerOptions returns the resolution options of c.
func (c *Config) AnalyzerOptions(logger *slog.Logger, diags *diagnostic.Collector) analyzer.Options {
	opts := analyzer.DefaultOptions()
	opts.ExtractEnumsAsReference = c.ExtractEnumsAsReference
	opts.ControllerInclude = c.Controllers.Include
	opts.ControllerExclude = c.Controllers.Exclude
	opts.Logger = logger
	opts.Diagnostics = diags
	return opts
}

// CodegenOptions returns the materialization options of c.
func (c *Config) CodegenOptions() codegen.Options {
	return codegen.Options{
		NoImplicitAdditionalProperties:       c.NoImplicitAdditionalProperties,
		LegacyNoImplicitAdditionalProperties: c.LegacyNoImplicitAdditionalProperties,
	}
}

// ResolvePaths makes the entry file and the outputs relative to dir.
// Absolute and empty paths are left alone.
func (c *Config) ResolvePaths(dir string) {
	for _, p := range []*string{&c.EntryFile, &c.Output.Models, &c.Output.Routes, &c.Output.JSONSchema} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
