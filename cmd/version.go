package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alfariiizi/vpkg-template/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for vpkg including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)

Examples:
  vpkg version                # Show version and platform
  vpkg version --short        # Show the version only
  vpkg version --format json  # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	detailed, _ := cmd.Flags().GetBool("detailed")
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json":
		return outputVersionJSON(out)
	case "text":
		if versionShort {
			_, err := fmt.Fprintln(out, version.GetShortVersion())
			return err
		}
		if detailed {
			return outputVersionDetailed(out)
		}
		return outputVersionDefault(out)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}

func outputVersionDefault(out io.Writer) error {
	info := version.GetBuildInfo()

	fmt.Fprintf(out, "vpkg %s", info.Version)
	if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
		fmt.Fprintf(out, " (%s)", info.GitCommit[:7])
	}
	if info.Dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)

	_, err := fmt.Fprintf(out, "Go: %s\nPlatform: %s\n", info.GoVersion, info.Platform)
	return err
}

func outputVersionDetailed(out io.Writer) error {
	fmt.Fprintln(out, version.GetDetailedVersion())

	buildType := "development"
	if version.IsRelease() {
		buildType = "release"
	}
	_, err := fmt.Fprintf(out, "Build type: %s\n", buildType)
	return err
}

func outputVersionJSON(out io.Writer) error {
	info := version.GetBuildInfo()

	jsonInfo := map[string]interface{}{
		"version":    info.Version,
		"git_commit": info.GitCommit,
		"build_time": info.BuildTime,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
		"is_release": version.IsRelease(),
		"is_dirty":   info.Dirty,
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonInfo)
}
