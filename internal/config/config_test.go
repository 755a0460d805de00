package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	registryerrors "github.com/alfariiizi/vpkg-template/internal/errors"
	"github.com/alfariiizi/vpkg-template/internal/logging"
	"github.com/alfariiizi/vpkg-template/internal/rules"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "packages.json", config.Catalog.Path)
	assert.Equal(t, "text", config.Validate.Format)
	assert.Equal(t, 0, config.Validate.Workers)
	assert.False(t, config.Validate.Color)
	assert.Equal(t, int64(1024*1024), config.Validate.MaxFileSize)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, DefaultDebounce, config.Watch.Debounce)
	assert.Equal(t, rules.Default(), config.Rules)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, config *Config)
	}{
		{
			name: "validate section",
			setup: func() {
				viper.Set("catalog.path", "registry/packages.yaml")
				viper.Set("validate.workers", 3)
				viper.Set("validate.format", "json")
				viper.Set("validate.color", true)
				viper.Set("validate.timeout", "30s")
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "registry/packages.yaml", config.Catalog.Path)
				assert.Equal(t, 3, config.Validate.Workers)
				assert.Equal(t, "json", config.Validate.Format)
				assert.True(t, config.Validate.Color)
				assert.Equal(t, 30*time.Second, config.Validate.Timeout)
			},
		},
		{
			name: "rule overrides replace defaults",
			setup: func() {
				viper.Set("rules.package_types", []string{"service"})
				viper.Set("rules.install_marker", "setup")
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, []string{"service"}, config.Rules.PackageTypes)
				assert.Equal(t, "setup", config.Rules.InstallMarker)
				assert.Equal(t, rules.Default().NamePattern, config.Rules.NamePattern)
			},
		},
		{
			name: "extra security patterns are appended",
			setup: func() {
				viper.Set("rules.extra_security_patterns", []map[string]interface{}{
					{"name": "net.listen", "category": "net", "description": "opens a listener", "pattern": `net\.Listen\(`},
				})
			},
			check: func(t *testing.T, config *Config) {
				patterns := config.Rules.SecurityPatterns
				require.Len(t, patterns, len(rules.Default().SecurityPatterns)+1)
				assert.Equal(t, "net.listen", patterns[len(patterns)-1].Name)
			},
		},
		{
			name: "negative workers",
			setup: func() {
				viper.Set("validate.workers", -1)
			},
			expectError: true,
		},
		{
			name: "unknown format",
			setup: func() {
				viper.Set("validate.format", "xml")
			},
			expectError: true,
		},
		{
			name: "unknown log level",
			setup: func() {
				viper.Set("log.level", "verbose")
			},
			expectError: true,
		},
		{
			name: "unknown log format",
			setup: func() {
				viper.Set("log.format", "logfmt")
			},
			expectError: true,
		},
		{
			name: "broken rule pattern",
			setup: func() {
				viper.Set("rules.name_pattern", "[a-z")
			},
			expectError: true,
		},
		{
			name: "invalid viper config",
			setup: func() {
				viper.Set("validate.workers", "many")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			tt.setup()

			config, err := Load()

			if tt.expectError {
				assert.Error(t, err)
				assert.True(t, registryerrors.IsConfigError(err))
				assert.Nil(t, config)
				return
			}
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, ".vpkg.yml")
	require.NoError(t, os.WriteFile(path, []byte(`catalog:
  path: catalog.yaml
validate:
  workers: 2
  format: yaml
log:
  level: debug
  format: json
rules:
  doc_markers: [readme, guide]
`), 0644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "catalog.yaml", config.Catalog.Path)
	assert.Equal(t, 2, config.Validate.Workers)
	assert.Equal(t, "yaml", config.Validate.Format)
	assert.Equal(t, []string{"readme", "guide"}, config.Rules.DocMarkers)

	lc := config.LoggerConfig()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)

	rs, err := config.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, rules.KindDocumentation, rs.KindOf("docs/GUIDE.md.tmpl"))
}
