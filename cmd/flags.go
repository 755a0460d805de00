package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// OutputFlags are the report destination flags shared by commands.
type OutputFlags struct {
	Format string
	Output string
}

// AddOutputFlags registers --format and --output on cmd.
func AddOutputFlags(cmd *cobra.Command, defaultFormat, formats string) *OutputFlags {
	flags := &OutputFlags{}
	cmd.Flags().StringVarP(&flags.Format, "format", "f", defaultFormat, fmt.Sprintf("Output format (%s)", formats))
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Write output to a file instead of stdout")
	return flags
}

// bindFlags binds viper keys to flags of fs. It panics on a missing flag,
// which is a programming error caught by any test that touches the command.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		flag := fs.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("binding %s: flag --%s is not defined", key, name))
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			panic(fmt.Sprintf("binding %s: %v", key, err))
		}
	}
}

// openOutput returns the writer for path, or the command's stdout when
// path is empty. The returned close function must always be called.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
