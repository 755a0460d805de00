package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alfariiizi/vpkg-template/internal/catalog"
	"github.com/alfariiizi/vpkg-template/internal/config"
	registryerrors "github.com/alfariiizi/vpkg-template/internal/errors"
	"github.com/alfariiizi/vpkg-template/internal/logging"
	"github.com/alfariiizi/vpkg-template/internal/report"
	"github.com/alfariiizi/vpkg-template/internal/validator"
	"github.com/alfariiizi/vpkg-template/internal/watcher"
)

var validateWatch bool

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate [catalog]",
	Short: "Validate the catalog and every package template",
	Long: `Validate a registry submission:

- Catalog structure and schema version
- Required package fields, name, type and version formats
- Templates directory presence
- Template substitution syntax
- Source template structure (package declaration, fx module markers,
  doc comments on exported functions)
- Documentation templates (heading, install section, code fence)
- Security scan for hardcoded secrets, process execution and unsafe code

Examples:
  vpkg validate                          # Validate ./packages.json
  vpkg validate registry/packages.yaml   # Validate another catalog
  vpkg validate --format json -o out.json
  vpkg validate --watch                  # Re-validate on change`,
	Args: cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd.Flags(), validateFlagKeys)
	},
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	AddOutputFlags(validateCmd, "text", "text, json, yaml")
	validateCmd.Flags().StringP("catalog", "c", catalog.DefaultPath, "Catalog document to validate")
	validateCmd.Flags().IntP("workers", "w", 0, "Packages validated in parallel (0 = number of CPUs, at most 8)")
	validateCmd.Flags().Bool("color", false, "Colorize the text report")
	validateCmd.Flags().Duration("timeout", 0, "Abort a validation run after this long (0 = no limit)")
	validateCmd.Flags().Int64("max-file-size", 0, "Largest template read, in bytes (0 = 1MiB)")
	validateCmd.Flags().BoolVar(&validateWatch, "watch", false, "Re-validate whenever the catalog or a template changes")
}

// validateFlagKeys maps configuration keys to validate flags. Binding
// happens in PreRun so it survives viper.Reset between runs.
var validateFlagKeys = map[string]string{
	"catalog.path":           "catalog",
	"validate.format":        "format",
	"validate.output":        "output",
	"validate.workers":       "workers",
	"validate.color":         "color",
	"validate.timeout":       "timeout",
	"validate.max_file_size": "max-file-size",
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		viper.Set("catalog.path", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rs, err := cfg.RuleSet()
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	v := validator.New(rs, logger, validator.Options{
		Workers:     cfg.Validate.Workers,
		MaxFileSize: cfg.Validate.MaxFileSize,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if validateWatch {
		return watchAndValidate(ctx, cmd, cfg, v, logger)
	}

	return validateOnce(ctx, cmd, cfg, v, logger)
}

// validateOnce runs one validation and writes the report. The report is
// written even when the run was interrupted, covering what completed.
func validateOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, v *validator.Validator, logger logging.Logger) error {
	if cfg.Validate.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Validate.Timeout)
		defer cancel()
	}

	rep, runErr := v.ValidatePath(ctx, cfg.Catalog.Path)
	if rep == nil {
		return runErr
	}

	format, err := report.ParseFormat(cfg.Validate.Format)
	if err != nil {
		return registryerrors.NewConfigError("invalid format", err)
	}

	w, closeOutput, err := openOutput(cmd, cfg.Validate.Output)
	if err != nil {
		return err
	}
	renderErr := report.Render(w, rep, report.Options{
		Format: format,
		Color:  cfg.Validate.Color,
		Source: cfg.Catalog.Path,
	})
	if err := closeOutput(); renderErr == nil {
		renderErr = err
	}
	if renderErr != nil {
		return renderErr
	}

	if runErr != nil {
		return runErr
	}

	logger.Info(ctx, "Validation finished",
		"catalog", cfg.Catalog.Path,
		"errors", rep.Errors,
		"warnings", rep.Warnings,
		"valid", rep.Valid)

	if !rep.Valid {
		return registryerrors.ErrValidationFailed
	}
	return nil
}

// watchAndValidate validates once, then again after every debounced batch
// of changes, until ctx is done. Failed runs are logged, not returned.
func watchAndValidate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, v *validator.Validator, logger logging.Logger) error {
	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	if err := fw.AddPath(cfg.Catalog.Path); err != nil {
		return registryerrors.NewNotFoundError(cfg.Catalog.Path, err)
	}

	fw.AddFilter(watcher.NoScratchFilter)
	fw.AddFilter(watcher.AnyFilter(
		watcher.PathFilter(cfg.Catalog.Path),
		watcher.SuffixFilter(cfg.Rules.TemplateSuffix),
	))

	run := func(ctx context.Context) {
		watchTemplateDirs(ctx, fw, cfg.Catalog.Path, logger)

		err := validateOnce(ctx, cmd, cfg, v, logger)
		switch {
		case err == nil:
		case errors.Is(err, registryerrors.ErrValidationFailed):
			logger.Info(ctx, "Validation failed, waiting for changes")
		default:
			logger.Error(ctx, err, "Validation run failed, waiting for changes")
		}
	}

	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		logger.Info(ctx, "Change detected", "files", len(events), "first", events[0].Path)
		run(ctx)
		return nil
	})

	run(ctx)

	if err := fw.Start(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Watching for changes", "catalog", cfg.Catalog.Path, "debounce", cfg.Watch.Debounce.String())
	<-ctx.Done()
	return nil
}

// watchTemplateDirs adds the templates directory of every package that
// currently has one. Adding a directory twice is harmless.
func watchTemplateDirs(ctx context.Context, fw *watcher.FileWatcher, path string, logger logging.Logger) {
	cat, err := catalog.Load(path)
	if err != nil {
		return
	}
	for i := range cat.Packages {
		p := &cat.Packages[i]
		if p.TemplatesDir == "" {
			continue
		}
		dir := cat.TemplatesPath(p)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := fw.AddRecursive(dir); err != nil {
			logger.Warn(ctx, err, "Cannot watch templates directory", "package", p.Index, "path", dir)
		}
	}
}
