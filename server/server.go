package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	playground "github.com/themsquared/agent-playground"
	"github.com/themsquared/agent-playground/config"
	"github.com/themsquared/agent-playground/evaluation"
	"github.com/themsquared/agent-playground/logging"
)

// Options configure the HTTP server.
type Options struct {
	// Addr overrides the listen address from the configuration.
	Addr string

	// EvaluationStore persists evaluation runs. When nil the evaluation
	// save and results endpoints report the store as unavailable.
	EvaluationStore *evaluation.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Server exposes the playground over HTTP.
type Server struct {
	addr    string
	handler http.Handler
	logger  logging.Logger
}

// New builds the server around an assembled playground. The configuration
// supplies the listen address and the allowed CORS origins; credentials stay
// inside cfg so the settings endpoint can report them masked.
func New(pg *playground.Playground, cfg *config.Config, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:   cfg.Server.Address,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	h := &Handler{
		playground: pg,
		config:     cfg,
		runner: evaluation.NewRunner(pg, func(o *evaluation.RunnerOptions) {
			o.Logger = opts.Logger
		}),
		store:  opts.EvaluationStore,
		logger: opts.Logger,
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", h.Attach)

	return &Server{
		addr:    opts.Addr,
		handler: r,
		logger:  opts.Logger,
	}
}

// Handler returns the assembled router, e.g. for tests or custom listeners.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.handler,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	}
}
