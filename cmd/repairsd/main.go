package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	"github.com/yegors/cctv-repairs/internal/api"
	"github.com/yegors/cctv-repairs/internal/config"
	"github.com/yegors/cctv-repairs/internal/normalizer"
	"github.com/yegors/cctv-repairs/internal/normalizer/openai"
	"github.com/yegors/cctv-repairs/internal/options"
	"github.com/yegors/cctv-repairs/internal/repairs"
	"github.com/yegors/cctv-repairs/internal/session"
	"github.com/yegors/cctv-repairs/internal/store"
	"github.com/yegors/cctv-repairs/internal/store/postgres"
	"github.com/yegors/cctv-repairs/internal/store/sqlite"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "repairsd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recordStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer recordStore.Close()

	optionProvider := options.NewProvider(recordStore, cfg.Options.TTL(), log)
	repairsService := repairs.NewService(recordStore, optionProvider, log)

	aiClient := openai.NewClient(openai.Config{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout(),
	}, log)
	norm := normalizer.New(aiClient, log)

	sessions := session.NewManager(session.Credentials{
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	}, log)

	router := api.NewRouter(sessions, repairsService, norm, cfg, log)

	listener, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr(), err)
	}
	if cfg.Server.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.Server.MaxConnections)
	}

	server := &http.Server{
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening",
			logger.String("addr", cfg.Server.Addr()),
			logger.String("backend", cfg.Storage.Backend),
		)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := sqlite.New(cfg.Storage.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, nil
	case "postgres":
		s, err := postgres.New(ctx, cfg.Storage.PostgresDSN, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
