package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/jsonapi-oas/internal/cli/config"
	"github.com/conduit-lang/jsonapi-oas/internal/cli/ui"
)

var generateBindings = []flagBinding{
	{flag: "metadata", key: "metadata", path: true},
	{flag: "output", key: "output.path", path: true},
	{flag: "format", key: "output.format"},
	{flag: "related", key: "generator.related_endpoints"},
	{flag: "query-params", key: "generator.query_parameters"},
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the OpenAPI document",
		Long: `Generate an OpenAPI 3.0 document from the resource metadata graph.

The metadata file format is chosen by extension: .json, .yaml/.yml, .hcl or
.cue. Every resource contributes its collection and item endpoints, and every
relationship its relationship endpoints, according to the resource's
readable, creatable, writable and deletable flags.

Generation is all or nothing: malformed metadata, unsupported field types
and conflicting paths abort without writing any output.`,
		Example: `  # Generate openapi.json from resources.json
  jsonapi-oas generate

  # Generate YAML from an HCL metadata file
  jsonapi-oas generate --metadata api.hcl -o openapi.yaml

  # Print to stdout
  jsonapi-oas generate -o -

  # Regenerate whenever the metadata changes
  jsonapi-oas generate --watch`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}

	cmd.Flags().StringP("metadata", "m", "", "Metadata file (default: resources.json)")
	cmd.Flags().StringP("output", "o", "", "Output file, - for stdout (default: openapi.json)")
	cmd.Flags().StringP("format", "f", "", "Output format: json or yaml (default: from output extension)")
	cmd.Flags().Bool("related", false, "Emit related resource and to-many add/remove endpoints")
	cmd.Flags().Bool("query-params", false, "Document JSON:API query parameters on collection reads")
	cmd.Flags().BoolP("watch", "w", false, "Regenerate when the metadata or config changes")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := generateConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	if err := generate(cmd, cfg, logger); err != nil {
		return err
	}

	watchEnabled, _ := cmd.Flags().GetBool("watch")
	if !watchEnabled {
		return nil
	}

	infoColor := color.New(color.FgCyan)
	infoColor.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes... (Ctrl+C to stop)\n", cfg.Metadata)

	return watchUntilDone(cmd.Context(), watchedFiles(cfg), logger, func() error {
		next, err := generateConfig(cmd)
		if err == nil {
			err = generate(cmd, next, logger)
		}
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(cfg.Output.Path+" left unchanged", noColor))
		}
		return nil
	})
}

// generateConfig loads the configuration for generate. An --output with a
// .json or .yaml extension picks the format unless --format is given.
func generateConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd, generateBindings)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("output") && !cmd.Flags().Changed("format") {
		if format, ok := formatFromExtension(cfg.Output.Path); ok {
			cfg.Output.Format = format
		}
	}
	return cfg, nil
}

// generate builds the document and writes it to cfg.Output.
func generate(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) error {
	doc, err := buildDocument(cfg, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	data, err := encodeDocument(doc, cfg.Output.Format)
	if err != nil {
		return err
	}

	if cfg.Output.Path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := writeFileAtomic(cfg.Output.Path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.Output.Path, err)
	}

	ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Generated %s (%d paths, %d operations, %d schemas)",
		cfg.Output.Path, doc.Paths.Len(), len(doc.Operations()), len(doc.Components.Schemas)), noColor)
	return nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place, so path holds either its previous content or all of data.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".openapi-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// formatFromExtension maps .yaml/.yml and .json output paths to a format.
func formatFromExtension(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.FormatYAML, true
	case ".json":
		return config.FormatJSON, true
	default:
		return "", false
	}
}
