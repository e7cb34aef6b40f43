// Package config loads schemaconv settings from `.schemaconv.yaml`,
// SCHEMACONV_* environment variables and command-line flags, in increasing
// order of precedence, and validates the result against an embedded JSON
// schema.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/schemaconv/pkg/schema"
	"github.com/Sumatoshi-tech/schemaconv/pkg/transform"
)

// Sentinel errors.
var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidFileSize = errors.New("invalid max file size")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

const (
	configName = ".schemaconv"
	envPrefix  = "SCHEMACONV"
)

// Config holds all schemaconv settings.
type Config struct {
	Convert   ConvertConfig   `json:"convert"   mapstructure:"convert"`
	Logging   LoggingConfig   `json:"logging"   mapstructure:"logging"`
	Telemetry TelemetryConfig `json:"telemetry" mapstructure:"telemetry"`
}

// ConvertConfig holds the batch conversion settings.
type ConvertConfig struct {
	Input  string `json:"input"  mapstructure:"input"`
	Output string `json:"output" mapstructure:"output"`

	// Include and Ignore are doublestar globs relative to Input.
	Include []string `json:"include" mapstructure:"include"`
	Ignore  []string `json:"ignore"  mapstructure:"ignore"`

	RemoveFieldTypes []string `json:"remove_field_types" mapstructure:"remove_field_types"`
	Heuristic        string   `json:"heuristic"          mapstructure:"heuristic"`

	Workers     int    `json:"workers"       mapstructure:"workers"`
	MaxFileSize string `json:"max_file_size" mapstructure:"max_file_size"`
	CacheSize   int    `json:"cache_size"    mapstructure:"cache_size"`

	DryRun bool   `json:"dry_run" mapstructure:"dry_run"`
	Report string `json:"report"  mapstructure:"report"`

	TypeFactory          string   `json:"type_factory"          mapstructure:"type_factory"`
	FieldFactory         string   `json:"field_factory"         mapstructure:"field_factory"`
	FactorySource        string   `json:"factory_source"        mapstructure:"factory_source"`
	DeprecatedAttributes []string `json:"deprecated_attributes" mapstructure:"deprecated_attributes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"  mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// TelemetryConfig holds tracing and metrics export settings. The OTLP
// exporter itself is configured through the standard OTEL_* variables.
type TelemetryConfig struct {
	Environment  string `json:"environment"   mapstructure:"environment"`
	MetricsFile  string `json:"metrics_file"  mapstructure:"metrics_file"`
	TraceVerbose bool   `json:"trace_verbose" mapstructure:"trace_verbose"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"input":              "convert.input",
	"output":             "convert.output",
	"include":            "convert.include",
	"ignore":             "convert.ignore",
	"remove-field-types": "convert.remove_field_types",
	"heuristic":          "convert.heuristic",
	"workers":            "convert.workers",
	"max-file-size":      "convert.max_file_size",
	"dry-run":            "convert.dry_run",
	"report":             "convert.report",
	"log-level":          "logging.level",
	"log-format":         "logging.format",
	"metrics-file":       "telemetry.metrics_file",
	"trace-verbose":      "telemetry.trace_verbose",
}

// LoadConfig loads configuration from file and environment variables. An
// empty configPath searches for `.schemaconv.yaml` in the working directory
// and the user configuration directory; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	return Load(configPath, nil)
}

// Load is [LoadConfig] with flag overrides. Only the flags of flags that
// appear in the flag table and were set on the command line take part.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")

		userDir, err := os.UserConfigDir()
		if err == nil {
			viperCfg.AddConfigPath(filepath.Join(userDir, "schemaconv"))
		}
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if flags != nil {
		err := bindFlags(viperCfg, flags)
		if err != nil {
			return nil, err
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, validateErr)
	}

	return &config, nil
}

func bindFlags(viperCfg *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}

		err := viperCfg.BindPFlag(key, flag)
		if err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Convert defaults.
	viperCfg.SetDefault("convert.input", "")
	viperCfg.SetDefault("convert.output", "")
	viperCfg.SetDefault("convert.include", []string{DefaultInclude})
	viperCfg.SetDefault("convert.ignore", []string{DefaultIgnore})
	viperCfg.SetDefault("convert.remove_field_types", []string{})
	viperCfg.SetDefault("convert.heuristic", DefaultHeuristic)
	viperCfg.SetDefault("convert.workers", DefaultWorkers)
	viperCfg.SetDefault("convert.max_file_size", DefaultMaxFileSize)
	viperCfg.SetDefault("convert.cache_size", DefaultCacheSize)
	viperCfg.SetDefault("convert.dry_run", false)
	viperCfg.SetDefault("convert.report", "")
	viperCfg.SetDefault("convert.type_factory", transform.DefaultTypeFactory)
	viperCfg.SetDefault("convert.field_factory", transform.DefaultFieldFactory)
	viperCfg.SetDefault("convert.factory_source", transform.DefaultFactorySource)
	viperCfg.SetDefault("convert.deprecated_attributes", []string{DefaultDeprecatedAttribute})

	// Logging defaults.
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.metrics_file", "")
	viperCfg.SetDefault("telemetry.trace_verbose", false)
}

// validateConfig checks the structure against the embedded schema, then the
// values the schema cannot express.
func validateConfig(config *Config) error {
	err := validateSchema(config)
	if err != nil {
		return err
	}

	_, err = config.Convert.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	_, err = config.Logging.SlogLevel()

	return err
}

// MaxFileSizeBytes parses MaxFileSize ("1MB", "512 KiB"). Zero disables
// the limit.
func (c ConvertConfig) MaxFileSizeBytes() (uint64, error) {
	if strings.TrimSpace(c.MaxFileSize) == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidFileSize, c.MaxFileSize, err)
	}

	return size, nil
}

// TransformOptions builds the options of the conversion pipeline.
func (c ConvertConfig) TransformOptions(logger *slog.Logger) (transform.Options, error) {
	heuristic, err := schema.ParseHeuristic(c.Heuristic)
	if err != nil {
		return transform.Options{}, err
	}

	deprecated := c.DeprecatedAttributes
	if deprecated == nil {
		deprecated = []string{}
	}

	return transform.Options{
		Exclude:              transform.NewExclusionSet(c.RemoveFieldTypes...),
		Heuristic:            heuristic,
		TypeFactory:          c.TypeFactory,
		FieldFactory:         c.FieldFactory,
		FactorySource:        c.FactorySource,
		DeprecatedAttributes: deprecated,
		Logger:               logger,
	}, nil
}

// SlogLevel maps Level to an [slog.Level].
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Level)
	}

	return level, nil
}
