package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/propvest/ledger/internal/audit"
	"github.com/propvest/ledger/internal/ledger"
	"github.com/propvest/ledger/internal/logger"
	"github.com/propvest/ledger/internal/metrics"
	"github.com/propvest/ledger/internal/rail"
	"github.com/propvest/ledger/internal/server"
	"github.com/propvest/ledger/internal/store/memory"
	"github.com/propvest/ledger/internal/store/postgres"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	bindFlag := flag.String("bind", "0.0.0.0", "HTTP bind host (or set LEDGER_BIND env var)")
	portFlag := flag.Int("port", 8080, "HTTP port (or set LEDGER_PORT env var)")
	storeFlag := flag.String("store", "memory", "store backend: 'postgres' or 'memory' (or set LEDGER_STORE env var)")
	postgresDSNFlag := flag.String("postgres-dsn", "", "PostgreSQL connection string (or set POSTGRES_DSN env var)")
	postgresMigrateFlag := flag.Bool("postgres-migrate", false, "run PostgreSQL migrations on startup")

	clickhouseAddrFlag := flag.String("clickhouse-addr", "", "ClickHouse address (host:port) for the audit sink; empty disables it (or set CLICKHOUSE_ADDR_TCP env var)")
	clickhouseDatabaseFlag := flag.String("clickhouse-database", "default", "ClickHouse database name (or set CLICKHOUSE_DATABASE env var)")
	clickhouseUsernameFlag := flag.String("clickhouse-username", "default", "ClickHouse username (or set CLICKHOUSE_USERNAME env var)")
	clickhousePasswordFlag := flag.String("clickhouse-password", "", "ClickHouse password (or set CLICKHOUSE_PASSWORD env var)")
	clickhouseSecureFlag := flag.Bool("clickhouse-secure", false, "enable TLS for ClickHouse Cloud (or set CLICKHOUSE_SECURE=true env var)")
	auditFlushIntervalFlag := flag.Duration("audit-flush-interval", 5*time.Second, "audit sink flush interval")
	auditBatchSizeFlag := flag.Int("audit-batch-size", 256, "audit sink early-flush batch size")

	allowedOriginsFlag := flag.StringSlice("allowed-origins", nil, "CORS allowed origins; empty disables cross-origin access")
	rateLimitFlag := flag.Int("rate-limit", 0, "per-IP requests per minute; 0 disables limiting")
	rateBurstFlag := flag.Int("rate-burst", 20, "per-IP burst size")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", 30*time.Second, "maximum time to drain in-flight requests during shutdown")

	flag.Parse()

	// .env is optional; flags and real env take precedence.
	_ = godotenv.Load()

	if env := os.Getenv("LEDGER_BIND"); env != "" {
		*bindFlag = env
	}
	if env := os.Getenv("LEDGER_PORT"); env != "" {
		port, err := strconv.Atoi(env)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_PORT: %w", err)
		}
		*portFlag = port
	}
	if env := os.Getenv("LEDGER_STORE"); env != "" {
		*storeFlag = env
	}
	if env := os.Getenv("POSTGRES_DSN"); env != "" {
		*postgresDSNFlag = env
	}
	if env := os.Getenv("CLICKHOUSE_ADDR_TCP"); env != "" {
		*clickhouseAddrFlag = env
	}
	if env := os.Getenv("CLICKHOUSE_DATABASE"); env != "" {
		*clickhouseDatabaseFlag = env
	}
	if env := os.Getenv("CLICKHOUSE_USERNAME"); env != "" {
		*clickhouseUsernameFlag = env
	}
	if env := os.Getenv("CLICKHOUSE_PASSWORD"); env != "" {
		*clickhousePasswordFlag = env
	}
	if os.Getenv("CLICKHOUSE_SECURE") == "true" {
		*clickhouseSecureFlag = true
	}

	log := logger.New(*verboseFlag)
	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
	log.Info("starting ledgerd", "version", version, "commit", commit, "store", *storeFlag)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store      ledger.Store
		readyCheck func(ctx context.Context) error
	)
	switch *storeFlag {
	case "postgres":
		if *postgresDSNFlag == "" {
			return fmt.Errorf("--postgres-dsn is required with --store=postgres")
		}
		if *postgresMigrateFlag {
			if err := postgres.MigrateUp(log, *postgresDSNFlag); err != nil {
				return err
			}
		}
		pg, err := postgres.NewStore(ctx, postgres.Config{Logger: log, DSN: *postgresDSNFlag})
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
		readyCheck = pg.Ping
	case "memory":
		log.Warn("using in-memory store, state is lost on restart")
		store = memory.NewStore()
	default:
		return fmt.Errorf("unknown store backend %q", *storeFlag)
	}

	emitters := ledger.MultiEmitter{ledger.LogEmitter{Log: log}}
	var recorder *audit.Recorder
	if *clickhouseAddrFlag != "" {
		client, err := audit.NewClient(ctx, log, *clickhouseAddrFlag, *clickhouseDatabaseFlag,
			*clickhouseUsernameFlag, *clickhousePasswordFlag, *clickhouseSecureFlag)
		if err != nil {
			return err
		}
		defer client.Close()

		recorder, err = audit.NewRecorder(audit.Config{
			Logger:        log,
			Client:        client,
			FlushInterval: *auditFlushIntervalFlag,
			BatchSize:     *auditBatchSizeFlag,
		})
		if err != nil {
			return err
		}
		if err := recorder.EnsureSchema(ctx); err != nil {
			return err
		}
		emitters = append(emitters, recorder)
	}

	custodian := rail.NewCustodian(log)
	// The custodian registers itself as mint authority holder for each
	// campaign as the creation event is emitted.
	emitters = append(emitters, custodian)
	svc, err := ledger.New(ledger.Config{
		Logger:  log,
		Store:   store,
		Rail:    custodian,
		Mint:    custodian,
		Emitter: emitters,
	})
	if err != nil {
		return err
	}

	// Custodian state is in-process, so authorities for campaigns persisted
	// before this start must be rebound.
	campaigns, err := svc.ListCampaigns(ctx)
	if err != nil {
		return err
	}
	for _, c := range campaigns {
		custodian.RegisterMintAuthority(c.PropertyMint, c.ID)
	}

	srv, err := server.New(server.Config{
		Logger:            log,
		Service:           svc,
		Bind:              *bindFlag,
		Port:              *portFlag,
		AllowedOrigins:    *allowedOriginsFlag,
		RequestsPerMinute: *rateLimitFlag,
		Burst:             *rateBurstFlag,
		ReadyCheck:        readyCheck,
		OnRamp:            custodian,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), *shutdownTimeoutFlag)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if recorder != nil {
		g.Go(func() error {
			if err := recorder.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("ledgerd stopped")
	return nil
}
