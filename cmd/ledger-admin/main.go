package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/propvest/ledger/internal/ledger"
	"github.com/propvest/ledger/internal/logger"
	"github.com/propvest/ledger/internal/rail"
	"github.com/propvest/ledger/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	postgresDSNFlag := flag.String("postgres-dsn", "", "PostgreSQL connection string (or set POSTGRES_DSN env var)")

	// Commands
	migrateFlag := flag.Bool("migrate", false, "run all pending PostgreSQL migrations")
	migrateDownFlag := flag.Bool("migrate-down", false, "roll back the last PostgreSQL migration")
	migrateStatusFlag := flag.Bool("migrate-status", false, "show PostgreSQL migration status")
	initPlatformFlag := flag.Bool("init-platform", false, "initialize the platform record")
	whitelistAddFlag := flag.Bool("whitelist-add", false, "whitelist a creator wallet")
	whitelistRemoveFlag := flag.Bool("whitelist-remove", false, "remove a creator wallet from the whitelist")

	// Command options
	adminFlag := flag.String("admin", "", "acting admin wallet")
	platformWalletFlag := flag.String("platform-wallet", "", "platform wallet that receives equity shares")
	walletFlag := flag.String("wallet", "", "target wallet for whitelist commands")

	flag.Parse()

	_ = godotenv.Load()
	if env := os.Getenv("POSTGRES_DSN"); env != "" {
		*postgresDSNFlag = env
	}

	log := logger.New(*verboseFlag)
	ctx := context.Background()

	if *postgresDSNFlag == "" {
		return fmt.Errorf("--postgres-dsn is required")
	}

	switch {
	case *migrateFlag:
		return postgres.MigrateUp(log, *postgresDSNFlag)
	case *migrateDownFlag:
		return postgres.MigrateDown(log, *postgresDSNFlag)
	case *migrateStatusFlag:
		return postgres.MigrateStatus(log, *postgresDSNFlag)
	}

	svc, closeStore, err := newService(ctx, log, *postgresDSNFlag)
	if err != nil {
		return err
	}
	defer closeStore()

	switch {
	case *initPlatformFlag:
		if *adminFlag == "" || *platformWalletFlag == "" {
			return fmt.Errorf("--admin and --platform-wallet are required for --init-platform")
		}
		if err := svc.InitializePlatform(ctx, *adminFlag, *platformWalletFlag); err != nil {
			return err
		}
		log.Info("platform initialized", "admin", *adminFlag, "wallet", *platformWalletFlag)
		return nil

	case *whitelistAddFlag:
		if *adminFlag == "" || *walletFlag == "" {
			return fmt.Errorf("--admin and --wallet are required for --whitelist-add")
		}
		if err := svc.AddToWhitelist(ctx, *adminFlag, *walletFlag); err != nil {
			return err
		}
		log.Info("wallet whitelisted", "wallet", *walletFlag)
		return nil

	case *whitelistRemoveFlag:
		if *adminFlag == "" || *walletFlag == "" {
			return fmt.Errorf("--admin and --wallet are required for --whitelist-remove")
		}
		if err := svc.RemoveFromWhitelist(ctx, *adminFlag, *walletFlag); err != nil {
			return err
		}
		log.Info("wallet removed from whitelist", "wallet", *walletFlag)
		return nil
	}

	flag.Usage()
	return fmt.Errorf("no command given")
}

func newService(ctx context.Context, log *slog.Logger, dsn string) (*ledger.Service, func(), error) {
	store, err := postgres.NewStore(ctx, postgres.Config{Logger: log, DSN: dsn})
	if err != nil {
		return nil, nil, err
	}
	custodian := rail.NewCustodian(log)
	svc, err := ledger.New(ledger.Config{
		Logger: log,
		Store:  store,
		Rail:   custodian,
		Mint:   custodian,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return svc, store.Close, nil
}
