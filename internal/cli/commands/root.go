package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/conduit-lang/jsonapi-oas/internal/cli/config"
	"github.com/conduit-lang/jsonapi-oas/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

var (
	// Global flags
	configFile string
	verbose    bool
	noColor    bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jsonapi-oas",
		Short: "Generate OpenAPI 3.0 documents from JSON:API resource metadata",
		Long: color.CyanString(`jsonapi-oas - OpenAPI generator for JSON:API services

jsonapi-oas reads a resource metadata graph (JSON, YAML, HCL or CUE) and
compiles it into a single OpenAPI 3.0 document describing the JSON:API
surface of every resource.

Features:
  • Primary and relationship endpoints per resource
  • Shared component schemas with cycle-safe references
  • Deterministic JSON and YAML output
  • Watch mode and a live document server`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: nearest jsonapi-oas.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewGenerateCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the jsonapi-oas version, Git commit, build date, and Go version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "jsonapi-oas version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}

// reportedError wraps an error that was already rendered for the user, so
// Execute does not print it a second time.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// flagBinding maps a command flag onto a config key.
type flagBinding struct {
	flag string
	key  string
	path bool
}

// loadConfig reads the configuration with every changed flag in bindings
// taking precedence. Path flags are made absolute first so they stay relative
// to the working directory instead of the config file.
func loadConfig(cmd *cobra.Command, bindings []flagBinding) (*config.Config, error) {
	v := config.New()
	if err := bindFlags(cmd.Flags(), v, bindings); err != nil {
		return nil, err
	}

	cfg, err := config.LoadWith(v, configFile)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err, noColor))
		return nil, reportedError{err}
	}
	return cfg, nil
}

func bindFlags(flags *pflag.FlagSet, v *viper.Viper, bindings []flagBinding) error {
	for _, b := range bindings {
		f := flags.Lookup(b.flag)
		if f == nil || !f.Changed {
			continue
		}
		if b.path && f.Value.String() != "-" && !filepath.IsAbs(f.Value.String()) {
			abs, err := filepath.Abs(f.Value.String())
			if err != nil {
				return err
			}
			if err := f.Value.Set(abs); err != nil {
				return err
			}
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return err
		}
	}
	return nil
}

// newLogger builds the command logger. --verbose selects the development
// logger; otherwise the production logger runs at log.level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
	zapConfig.Sampling = nil
	return zapConfig.Build()
}
