// Command server runs the accolade authentication API.
//
// Configuration is read from a YAML file (-config, ACCOLADE_CONFIG,
// ./config.yaml or /etc/accolade/config.yaml) and ACCOLADE_* environment
// variables. The signing secret is required:
//
//	ACCOLADE_JWT_SECRET      - token signing secret (or ACCOLADE_JWT_SECRET_FILE)
//	ACCOLADE_TOKEN_TTL       - token lifetime (default: 1h)
//	ACCOLADE_PORT            - listen port (default: 8080)
//	ACCOLADE_STORAGE         - "memory" or "postgres" (default: "memory")
//	ACCOLADE_POSTGRES_DSN    - connection string when storage is postgres
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rhuss/accolade/pkg/account"
	"github.com/rhuss/accolade/pkg/auth"
	"github.com/rhuss/accolade/pkg/auth/password"
	"github.com/rhuss/accolade/pkg/auth/token"
	"github.com/rhuss/accolade/pkg/config"
	"github.com/rhuss/accolade/pkg/debug"
	"github.com/rhuss/accolade/pkg/storage"
	"github.com/rhuss/accolade/pkg/storage/memory"
	"github.com/rhuss/accolade/pkg/storage/postgres"
	transporthttp "github.com/rhuss/accolade/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})
	debug.Log(debug.CategoryConfig, "configuration loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"token_ttl", cfg.Auth.TokenTTL,
		"login_path", cfg.Auth.LoginPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	codec, err := token.NewCodec(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	limiter := auth.NewLoginLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst)
	accounts, err := account.NewService(store, password.New(cfg.Auth.BcryptCost), codec, limiter)
	if err != nil {
		return fmt.Errorf("creating account service: %w", err)
	}

	adapterCfg := transporthttp.DefaultConfig()
	adapterCfg.LoginPath = cfg.Auth.LoginPath
	adapterCfg.MaxBodySize = cfg.Server.MaxBodySize
	adapterCfg.MetricsPath = ""
	if cfg.Observability.Metrics.Enabled {
		adapterCfg.MetricsPath = cfg.Observability.Metrics.Path
	}

	srv := transporthttp.NewServer(accounts, store,
		auth.Middleware(codec, store, cfg.Auth.LoginPath),
		adapterCfg,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(slog.Default()),
	)

	slog.Info("accolade starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"metrics", adapterCfg.MetricsPath,
	)

	return srv.Run(ctx)
}

// openStore creates the configured user store.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.UserStore, error) {
	switch cfg.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, nil
	default:
		slog.Info("storage enabled", "type", "memory")
		return memory.New(), nil
	}
}
