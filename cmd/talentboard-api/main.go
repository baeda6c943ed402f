package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"talentboard/internal/backend"
	"talentboard/internal/config"
	server "talentboard/internal/http"
	"talentboard/internal/selection"
	"talentboard/internal/services"
	"talentboard/internal/store"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)

	if cfg.Backend.BaseURL == "" {
		log.Fatal("backend.baseURL is required")
	}

	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	api := backend.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.Token,
		time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond,
	)

	st := store.New(api)
	sel := selection.New()

	itemTimeout := time.Duration(cfg.Bulk.PerItemTimeoutMs) * time.Millisecond
	transition := services.NewTransitionService(api, st, logger, itemTimeout)
	bulk := services.NewBulkService(api, st, logger, cfg.Bulk.MaxConcurrent, itemTimeout)

	s := server.NewServer(cfg, server.Deps{
		API:        api,
		Store:      st,
		Selection:  sel,
		Transition: transition,
		Bulk:       bulk,
	}, logger)
	if err := s.Listen(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
