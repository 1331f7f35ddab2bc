package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/chainscanhq/chainscan-backend/internal/metrics"
	"github.com/chainscanhq/chainscan-backend/internal/query"
	"github.com/chainscanhq/chainscan-backend/internal/storage"
	"github.com/chainscanhq/chainscan-backend/internal/storage/leveldbstore"
	"github.com/chainscanhq/chainscan-backend/internal/storage/postgres"
	"github.com/chainscanhq/chainscan-backend/internal/transport"
)

var config struct {
	Addr        string `long:"addr" env:"API_SERVER_ADDR" description:"HTTP listen address" default:":8001"`
	DBBackend   string `long:"db-backend" env:"API_SERVER_DB_BACKEND" description:"storage backend" choice:"leveldb" choice:"postgres" default:"postgres"`
	LevelDBPath string `long:"leveldb-path" env:"API_SERVER_LEVELDB_PATH" description:"LevelDB data directory"`
	PostgresDSN string `long:"postgres-dsn" env:"API_SERVER_POSTGRES_DSN" description:"PostgreSQL DSN"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&config, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, logger); err != nil {
		logger.Fatal("api server failed", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	store, err := openStorage()
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("closing storage", zap.Error(closeErr))
		}
	}()

	svc, err := query.NewService(logger, store)
	if err != nil {
		return err
	}
	api, err := transport.NewAPIHandler(logger, svc, metrics.NewHTTP())
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", api)
	mux.Handle("/metrics", promhttp.Handler())

	s := &http.Server{
		Addr:              config.Addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting HTTP server", zap.String("addr", config.Addr))
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStorage() (storage.Storage, error) {
	switch config.DBBackend {
	case "leveldb":
		return leveldbstore.Open(config.LevelDBPath, metrics.NewStorage("leveldb"))
	default:
		return postgres.Open(config.PostgresDSN, metrics.NewStorage("postgres"))
	}
}
