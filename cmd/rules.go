package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alfariiizi/vpkg-template/internal/config"
)

var rulesOutput *OutputFlags

// rulesCmd prints the effective rule tables.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the rule tables in effect",
	Long: `Print the rule tables validate runs with: the built-in defaults merged
with any rules section of the configuration. The YAML output can be pasted
into .vpkg.yml under "rules:" as a starting point for overrides.

Examples:
  vpkg rules                  # YAML
  vpkg rules --format json    # JSON`,
	Args: cobra.NoArgs,
	RunE: runRulesCommand,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesOutput = AddOutputFlags(rulesCmd, "yaml", "yaml, json")
}

func runRulesCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	w, closeOutput, err := openOutput(cmd, rulesOutput.Output)
	if err != nil {
		return err
	}

	switch rulesOutput.Format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(cfg.Rules)
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(cfg.Rules)
	default:
		err = fmt.Errorf("unsupported format: %s (supported: yaml, json)", rulesOutput.Format)
	}

	if cerr := closeOutput(); err == nil {
		err = cerr
	}
	return err
}
