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
	"go.uber.org/zap"

	"github.com/chainscanhq/chainscan-backend/internal/follower"
	"github.com/chainscanhq/chainscan-backend/internal/metrics"
	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/node"
	"github.com/chainscanhq/chainscan-backend/internal/storage"
	"github.com/chainscanhq/chainscan-backend/internal/storage/leveldbstore"
	"github.com/chainscanhq/chainscan-backend/internal/storage/postgres"
)

type config struct {
	NodeURL       string        `long:"node-url" env:"SCANNER_NODE_URL" description:"node JSON-RPC URL" default:"http://127.0.0.1:13030"`
	Network       string        `long:"network" env:"SCANNER_NETWORK" description:"network name" required:"true"`
	DBBackend     string        `long:"db-backend" env:"SCANNER_DB_BACKEND" description:"storage backend" choice:"leveldb" choice:"postgres" default:"leveldb"`
	LevelDBPath   string        `long:"leveldb-path" env:"SCANNER_LEVELDB_PATH" description:"LevelDB data directory" default:"./data/index"`
	PostgresDSN   string        `long:"postgres-dsn" env:"SCANNER_POSTGRES_DSN" description:"PostgreSQL DSN"`
	PollInterval  time.Duration `long:"poll-interval" env:"SCANNER_POLL_INTERVAL" description:"best block poll interval" default:"5s"`
	MaxReorgDepth uint64        `long:"max-reorg-depth" env:"SCANNER_MAX_REORG_DEPTH" description:"maximum rollback depth before the scanner stops" default:"100"`
	RPCRateLimit  int           `long:"rpc-rate-limit" env:"SCANNER_RPC_RATE_LIMIT" description:"node calls per second, 0 disables pacing" default:"0"`
	RPCTimeout    time.Duration `long:"rpc-timeout" env:"SCANNER_RPC_TIMEOUT" description:"timeout per node call" default:"30s"`
	MetricsAddr   string        `long:"metrics-addr" env:"SCANNER_METRICS_ADDR" description:"prometheus listen address" default:":9090"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	startMetricsServer(ctx, logger, cfg.MetricsAddr)

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("scanner failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	network := model.Network(cfg.Network)

	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("closing storage", zap.Error(closeErr))
		}
	}()

	client, err := node.NewClient(cfg.NodeURL, metrics.NewRPCClient(network), node.ClientOptions{
		CallTimeout: cfg.RPCTimeout,
		RateLimit:   cfg.RPCRateLimit,
	})
	if err != nil {
		return fmt.Errorf("init node client: %w", err)
	}
	defer func() {
		_ = client.Close()
	}()

	svc, err := follower.NewService(
		store,
		client,
		metrics.NewFollower(network),
		network,
		follower.Config{
			PollInterval:  cfg.PollInterval,
			MaxReorgDepth: cfg.MaxReorgDepth,
		},
		logger,
		nil,
	)
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}

func openStorage(cfg config) (storage.Storage, error) {
	switch cfg.DBBackend {
	case "postgres":
		return postgres.Open(cfg.PostgresDSN, metrics.NewStorage("postgres"))
	default:
		return leveldbstore.Open(cfg.LevelDBPath, metrics.NewStorage("leveldb"))
	}
}

func startMetricsServer(ctx context.Context, logger *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
	go func() {
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}
