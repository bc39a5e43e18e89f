package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/gathercontent-resolver/internal/config"
	"github.com/Sternrassler/gathercontent-resolver/pkg/enhancer"
	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
	"github.com/Sternrassler/gathercontent-resolver/pkg/logging"
	"github.com/Sternrassler/gathercontent-resolver/pkg/metrics"
	"github.com/Sternrassler/gathercontent-resolver/pkg/registry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP resolve service",
		Long: `Serves:
  GET  /health                 liveness
  GET  /metrics                Prometheus metrics
  POST /resolve                resolve a batch of parameters
  GET  /templates?source=KEY   list a source's templates`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger("gc-proxy")

	svc, err := config.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	e, err := enhancer.New(enhancer.Options{Registry: svc.Registry})
	if err != nil {
		return err
	}

	templates := make(map[string]templateLister, len(svc.Clients))
	for source, client := range svc.Clients {
		templates[source] = client
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newServer(e, templates, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Strs("sources", svc.Registry.Sources()).
			Int("throttle_limit", cfg.Throttle.Limit).
			Dur("throttle_interval", cfg.Throttle.Interval).
			Msg("Starting gc-proxy")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down gc-proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// templateLister is the part of the client the templates endpoint needs.
type templateLister interface {
	GetTemplates(ctx context.Context) ([]gathercontent.Template, error)
}

type server struct {
	enhancer  *enhancer.Enhancer
	templates map[string]templateLister
	logger    zerolog.Logger
}

func newServer(e *enhancer.Enhancer, templates map[string]templateLister, logger zerolog.Logger) *server {
	return &server{enhancer: e, templates: templates, logger: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /resolve", s.resolveHandler)
	mux.HandleFunc("GET /templates", s.templatesHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

type resolveParameter struct {
	Component string `json:"component"`
	enhancer.Parameter
}

type resolveRequest struct {
	Preview    bool               `json:"preview"`
	Parameters []resolveParameter `json:"parameters"`
}

type resolveResult struct {
	Name  string               `json:"name"`
	Items []gathercontent.Item `json:"items"`
	Error string               `json:"error,omitempty"`
}

type resolveResponse struct {
	Results []resolveResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// resolveHandler runs every queueable parameter of the request through
// one batch. Results follow request order.
func (s *server) resolveHandler(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	tasks := make([]*enhancer.FetchTask, len(req.Parameters))
	var queued []enhancer.Task
	for i, p := range req.Parameters {
		if !enhancer.ShouldQueue(p.Parameter) {
			continue
		}
		tasks[i] = enhancer.NewFetchTask(enhancer.Component{Type: p.Component}, p.Parameter)
		queued = append(queued, tasks[i])
	}

	ectx := enhancer.Context{Preview: req.Preview}
	if err := s.enhancer.HandleBatch(r.Context(), queued, ectx); err != nil {
		status := http.StatusInternalServerError
		var cfgErr *gathercontent.ConfigurationError
		if errors.As(err, &cfgErr) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	resp := resolveResponse{Results: make([]resolveResult, len(req.Parameters))}
	for i, p := range req.Parameters {
		result := resolveResult{Name: p.Name}
		if tasks[i] != nil {
			items, err := tasks[i].Wait(r.Context())
			if err != nil {
				result.Error = err.Error()
			}
			result.Items = items
		}
		resp.Results[i] = result
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) templatesHandler(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = registry.DefaultSource
	}

	client, ok := s.templates[source]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("unknown source '%s'", source)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	templates, err := client.GetTemplates(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("source", source).Msg("Failed to list templates")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: fmt.Sprintf("GatherContent request failed: %v", err)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": templates})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
