package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/siteadmin/internal/adminctl"
	"github.com/dmitrijs2005/siteadmin/internal/dbx"
	"github.com/dmitrijs2005/siteadmin/internal/logging"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"github.com/dmitrijs2005/siteadmin/internal/server/config"
	"github.com/dmitrijs2005/siteadmin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/siteadmin/internal/server/services"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "adminctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	opts, err := adminctl.ParseOptions(os.Args[1:])
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()

	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}

	db, err := dbx.Open(ctx, cfg.DatabaseDSN, dbx.DefaultPoolOptions, 5*time.Second)
	if err != nil {
		return err
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return err
	}

	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}

	svc := services.NewAdminService(db, rm, hasher, logger)

	return adminctl.Run(ctx, svc, opts, os.Stdin, int(os.Stdin.Fd()), os.Stdout)
}
