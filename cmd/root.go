// Package cmd provides the vpkg command-line interface.
//
// Configuration System:
//
//	Settings come from several sources with clear precedence:
//	1. Command-line flags (--catalog, --workers, etc.) - highest priority
//	2. Individual environment variables (VPKG_VALIDATE_WORKERS, etc.)
//	3. The configuration file: --config, else VPKG_CONFIG_FILE, else .vpkg.yml
//
// Environment Variables:
//
//	VPKG_CONFIG_FILE: Path to a custom configuration file
//	VPKG_CATALOG_PATH: Catalog document to validate
//	VPKG_VALIDATE_WORKERS: Number of packages validated in parallel
//	VPKG_LOG_LEVEL: Log level (debug, info, warn, error)
//	And every other key following the VPKG_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alfariiizi/vpkg-template/internal/config"
	"github.com/alfariiizi/vpkg-template/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vpkg",
	Short: "Validate code-generation packages before they enter the registry",
	Long: `vpkg checks a package registry submission: the catalog document, every
declared package, and every template under each package's templates
directory. It reports all findings at once and exits non-zero when any of
them is an error.

Quick Start:
  vpkg validate                      Validate ./packages.json
  vpkg validate --format json        Machine-readable report for CI
  vpkg validate --watch              Re-validate on every change
  vpkg rules                         Show the rule tables in effect

Exit Status:
  0  all packages passed
  1  validation failed
  2  catalog document not found
  3  catalog document malformed
  4  invalid configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd.Root().PersistentFlags(), map[string]string{
			"log.level":  "log-level",
			"log.format": "log-format",
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .vpkg.yml, can also use VPKG_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initConfig initializes the configuration system.
//
// Configuration file lookup (highest to lowest):
//  1. --config flag
//  2. VPKG_CONFIG_FILE environment variable
//  3. .vpkg.yml in the current directory
//
// Environment variables use the VPKG_ prefix with dots replaced by
// underscores, e.g. VPKG_VALIDATE_FORMAT=json.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("VPKG_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vpkg")
	}

	viper.SetEnvPrefix("VPKG")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; a broken one is reported by Load.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Cannot read config file:", err)
	}
}

// newLogger builds the logger for a command. Logs never go to stdout.
func newLogger(cfg *config.Config, w io.Writer) logging.Logger {
	lc := cfg.LoggerConfig()
	lc.Output = w
	return logging.NewLogger(lc)
}
