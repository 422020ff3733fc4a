package commands

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/conduit-lang/jsonapi-oas/internal/cli/config"
	"github.com/conduit-lang/jsonapi-oas/internal/cli/ui"
	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
	"github.com/conduit-lang/jsonapi-oas/internal/openapi"
	"github.com/conduit-lang/jsonapi-oas/internal/watch"
)

// buildDocument loads the metadata named by cfg and assembles it. Failures
// are rendered to errOut and returned as reportedError.
func buildDocument(cfg *config.Config, logger *zap.Logger, errOut io.Writer) (*openapi.Document, error) {
	graph, err := loadGraph(cfg, errOut)
	if err != nil {
		return nil, err
	}
	return assembleDocument(cfg, graph, logger, errOut)
}

func loadGraph(cfg *config.Config, errOut io.Writer) (*metadata.Graph, error) {
	graph, err := metadata.Load(cfg.Metadata)
	if err != nil {
		ui.Write(errOut, ui.Message{
			Level:        ui.LevelError,
			Context:      "metadata error",
			Problem:      err.Error(),
			HelpCommands: []string{"Supported formats: .json, .yaml, .yml, .hcl, .cue"},
			NoColor:      noColor,
		})
		return nil, reportedError{err}
	}
	return graph, nil
}

func assembleDocument(cfg *config.Config, graph *metadata.Graph, logger *zap.Logger, errOut io.Writer) (*openapi.Document, error) {
	doc, err := openapi.NewAssembler(cfg.OpenAPI(), logger).Assemble(graph)
	if err != nil {
		fmt.Fprint(errOut, ui.GenerationError(err, graph.Types(), noColor))
		return nil, reportedError{err}
	}
	return doc, nil
}

// encodeDocument renders doc in the given output format.
func encodeDocument(doc *openapi.Document, format string) ([]byte, error) {
	switch format {
	case config.FormatJSON:
		return doc.JSON()
	case config.FormatYAML:
		return doc.YAML()
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// watchedFiles returns the files whose changes trigger a rebuild.
func watchedFiles(cfg *config.Config) []string {
	files := []string{cfg.Metadata}
	if cfg.File != "" {
		files = append(files, cfg.File)
	}
	return files
}

// watchUntilDone runs rebuild on every change to files until ctx is done.
func watchUntilDone(ctx context.Context, files []string, logger *zap.Logger, rebuild func() error) error {
	watcher, err := watch.NewFileWatcher(files, logger, func(changed []string) error {
		logger.Debug("metadata changed", zap.Strings("files", changed))
		return rebuild()
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Stop()

	<-ctx.Done()
	return nil
}
