// Package config provides configuration management for vpkg using Viper for
// loading from files, environment variables, and command-line flags.
//
// Sources, highest precedence first: flags bound by the cmd package, VPKG_*
// environment variables, then the .vpkg.yml file. Rule tables start from
// rules.Default and every rules.* key present in any source replaces the
// corresponding default.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/alfariiizi/vpkg-template/internal/catalog"
	registryerrors "github.com/alfariiizi/vpkg-template/internal/errors"
	"github.com/alfariiizi/vpkg-template/internal/rules"
	"github.com/alfariiizi/vpkg-template/internal/scanner"
)

// DefaultDebounce is the quiet period watch mode waits for before
// re-running validation.
const DefaultDebounce = 300 * time.Millisecond

type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Validate ValidateConfig `yaml:"validate" mapstructure:"validate"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Watch    WatchConfig    `yaml:"watch" mapstructure:"watch"`
	// Rules is filled key by key in applyRuleOverrides.
	Rules rules.Tables `yaml:"rules" mapstructure:"-"`
}

type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type ValidateConfig struct {
	// Workers of 0 selects the CPU-based default.
	Workers     int           `yaml:"workers" mapstructure:"workers"`
	Format      string        `yaml:"format" mapstructure:"format"`
	Output      string        `yaml:"output" mapstructure:"output"`
	Color       bool          `yaml:"color" mapstructure:"color"`
	MaxFileSize int64         `yaml:"max_file_size" mapstructure:"max_file_size"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// Load builds the configuration from the global viper instance.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, registryerrors.NewConfigError("decoding configuration", err)
	}

	if config.Catalog.Path == "" {
		config.Catalog.Path = catalog.DefaultPath
	}
	if config.Validate.Format == "" {
		config.Validate.Format = "text"
	}
	if config.Validate.MaxFileSize == 0 {
		config.Validate.MaxFileSize = scanner.DefaultMaxFileSize
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = DefaultDebounce
	}

	// Handle bool flags set via viper (workaround for viper bool handling)
	if viper.IsSet("validate.color") {
		config.Validate.Color = viper.GetBool("validate.color")
	}

	config.Rules = rules.Default()
	if err := applyRuleOverrides(&config.Rules); err != nil {
		return nil, registryerrors.NewConfigError("decoding rules", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, registryerrors.NewConfigError("invalid configuration", err)
	}

	return &config, nil
}

// applyRuleOverrides replaces whole entries, never merging lists, so a
// configured list is exactly what runs. rules.extra_security_patterns is
// the exception: it is appended to the security patterns.
func applyRuleOverrides(t *rules.Tables) error {
	scalars := []struct {
		key string
		dst *string
	}{
		{"rules.name_pattern", &t.NamePattern},
		{"rules.version_pattern", &t.VersionPattern},
		{"rules.schema_version_pattern", &t.SchemaVersionPattern},
		{"rules.module_type", &t.ModuleType},
		{"rules.template_suffix", &t.TemplateSuffix},
		{"rules.open_delim", &t.OpenDelim},
		{"rules.close_delim", &t.CloseDelim},
		{"rules.declaration_pattern", &t.DeclarationPattern},
		{"rules.exported_func_pattern", &t.ExportedFuncPattern},
		{"rules.doc_comment_prefix", &t.DocCommentPrefix},
		{"rules.heading_pattern", &t.HeadingPattern},
		{"rules.install_marker", &t.InstallMarker},
	}
	for _, s := range scalars {
		if viper.IsSet(s.key) {
			*s.dst = viper.GetString(s.key)
		}
	}

	lists := []struct {
		key string
		dst *[]string
	}{
		{"rules.package_types", &t.PackageTypes},
		{"rules.source_suffixes", &t.SourceSuffixes},
		{"rules.doc_markers", &t.DocMarkers},
		{"rules.module_imports", &t.ModuleImports},
		{"rules.module_export_patterns", &t.ModuleExportPatterns},
		{"rules.code_fences", &t.CodeFences},
	}
	for _, l := range lists {
		if viper.IsSet(l.key) {
			*l.dst = viper.GetStringSlice(l.key)
		}
	}

	if viper.IsSet("rules.security_patterns") {
		var patterns []rules.SecurityPattern
		if err := viper.UnmarshalKey("rules.security_patterns", &patterns); err != nil {
			return fmt.Errorf("rules.security_patterns: %w", err)
		}
		t.SecurityPatterns = patterns
	}
	if viper.IsSet("rules.extra_security_patterns") {
		var extra []rules.SecurityPattern
		if err := viper.UnmarshalKey("rules.extra_security_patterns", &extra); err != nil {
			return fmt.Errorf("rules.extra_security_patterns: %w", err)
		}
		t.SecurityPatterns = append(t.SecurityPatterns, extra...)
	}

	return nil
}

// RuleSet compiles the configured rule tables.
func (c *Config) RuleSet() (*rules.RuleSet, error) {
	rs, err := c.Rules.Compile()
	if err != nil {
		return nil, registryerrors.NewConfigError("compiling rules", err)
	}
	return rs, nil
}
