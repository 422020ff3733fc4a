package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/jsonapi-oas/internal/cli/config"
	"github.com/conduit-lang/jsonapi-oas/internal/cli/ui"
	"github.com/conduit-lang/jsonapi-oas/internal/openapi"
)

var serveBindings = []flagBinding{
	{flag: "metadata", key: "metadata", path: true},
	{flag: "host", key: "serve.host"},
	{flag: "port", key: "serve.port"},
	{flag: "related", key: "generator.related_endpoints"},
	{flag: "query-params", key: "generator.query_parameters"},
}

// shutdownTimeout bounds how long in-flight requests may finish on exit.
const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the OpenAPI document over HTTP",
		Long: `Serve the generated OpenAPI document over HTTP.

Endpoints:
  GET /openapi.json   the document as JSON
  GET /openapi.yaml   the document as YAML
  GET /healthz        server status and document summary

With --watch the document is rebuilt whenever the metadata or config file
changes. A failed rebuild keeps serving the last good document.`,
		Example: `  # Serve on localhost:8080
  jsonapi-oas serve

  # Serve on a custom port and rebuild on changes
  jsonapi-oas serve --port 3000 --watch`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringP("metadata", "m", "", "Metadata file (default: resources.json)")
	cmd.Flags().String("host", "", "Host to bind (default: localhost)")
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (default: 8080)")
	cmd.Flags().Bool("related", false, "Emit related resource and to-many add/remove endpoints")
	cmd.Flags().Bool("query-params", false, "Document JSON:API query parameters on collection reads")
	cmd.Flags().BoolP("watch", "w", false, "Rebuild when the metadata or config changes")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, serveBindings)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	doc, err := buildDocument(cfg, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	docs := newDocServer(logger)
	if err := docs.update(doc); err != nil {
		return err
	}

	ctx := cmd.Context()
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           docs.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Fprintf(cmd.OutOrStdout(), "Serving OpenAPI document at http://%s/openapi.json\n", cfg.Addr())

	watchEnabled, _ := cmd.Flags().GetBool("watch")
	if watchEnabled {
		go func() {
			err := watchUntilDone(ctx, watchedFiles(cfg), logger, func() error {
				next, err := loadConfig(cmd, serveBindings)
				if err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.Warning("still serving the previous document", noColor))
					return nil
				}
				doc, err := buildDocument(next, logger, cmd.ErrOrStderr())
				if err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.Warning("still serving the previous document", noColor))
					return nil
				}
				return docs.update(doc)
			})
			if err != nil {
				logger.Error("watch failed", zap.Error(err))
			}
		}()
	}

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// docServer holds the rendered document served over HTTP.
type docServer struct {
	mu        sync.RWMutex
	jsonDoc   []byte
	yamlDoc   []byte
	paths     int
	ops       int
	updatedAt time.Time
	logger    *zap.Logger
}

func newDocServer(logger *zap.Logger) *docServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &docServer{logger: logger}
}

// update renders doc in both formats and swaps it in.
func (s *docServer) update(doc *openapi.Document) error {
	jsonDoc, err := encodeDocument(doc, config.FormatJSON)
	if err != nil {
		return err
	}
	yamlDoc, err := encodeDocument(doc, config.FormatYAML)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.jsonDoc = jsonDoc
	s.yamlDoc = yamlDoc
	s.paths = doc.Paths.Len()
	s.ops = len(doc.Operations())
	s.updatedAt = time.Now().UTC()
	s.mu.Unlock()

	s.logger.Info("document updated", zap.Int("paths", doc.Paths.Len()), zap.Int("operations", len(doc.Operations())))
	return nil
}

func (s *docServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/openapi.json", s.serveDocument("application/json", func() []byte { return s.jsonDoc }))
	r.Get("/openapi.yaml", s.serveDocument("application/yaml", func() []byte { return s.yamlDoc }))
	r.Get("/healthz", s.handleHealth)

	return r
}

func (s *docServer) serveDocument(contentType string, body func() []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		data := body()
		s.mu.RUnlock()

		if data == nil {
			http.Error(w, "document not generated yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(data)
	}
}

type healthResponse struct {
	Status     string    `json:"status"`
	Paths      int       `json:"paths"`
	Operations int       `json:"operations"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (s *docServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := healthResponse{
		Status:     "ok",
		Paths:      s.paths,
		Operations: s.ops,
		UpdatedAt:  s.updatedAt,
	}
	ready := s.jsonDoc != nil
	s.mu.RUnlock()

	status := http.StatusOK
	if !ready {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
