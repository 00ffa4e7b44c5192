package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	playground "github.com/themsquared/agent-playground"
	"github.com/themsquared/agent-playground/config"
	"github.com/themsquared/agent-playground/evaluation"
	"github.com/themsquared/agent-playground/logging"
	"github.com/themsquared/agent-playground/server"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	addr := flag.String("addr", "", "listen address, overrides the configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *addr != "" {
		cfg.Server.Address = *addr
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stdout,
	})

	pg, err := playground.New(func(o *playground.Options) {
		o.Config = cfg
		o.Logger = logger
	})
	if err != nil {
		log.Fatalf("assemble playground: %v", err)
	}

	var store *evaluation.Store
	if cfg.Database.Path != "" {
		store, err = evaluation.OpenStore(cfg.Database.Path)
		if err != nil {
			log.Fatalf("open evaluation store: %v", err)
		}
		defer store.Close()
	}

	srv := server.New(pg, cfg, func(o *server.Options) {
		o.EvaluationStore = store
		o.Logger = logger
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logs total uptime when the server winds down.
	defer logger.StartTimer("serve")()

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("Server stopped", "error", err)
	}

	if err := pg.Cleanup(); err != nil {
		logger.Warn("Cleanup finished with errors", "error", err)
	}
}
