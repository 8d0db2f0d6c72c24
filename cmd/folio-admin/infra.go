package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boycepro/folio/config"
	"github.com/boycepro/folio/internal/bootstrap"
	"github.com/boycepro/folio/internal/data"
	"github.com/boycepro/folio/internal/devseed"
	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/service"
)

const defaultMigrationTimeout = 5 * time.Minute

// roleAssigner is the slice of AdminService the CLI needs.
type roleAssigner interface {
	SetRoles(ctx context.Context, role domainauth.Role, emails []string) ([]service.RoleAssignment, error)
}

// infra holds connected dependencies for one command.
type infra struct {
	Admin  roleAssigner
	closer func()
}

func (i *infra) Close() {
	if i != nil && i.closer != nil {
		i.closer()
	}
}

// connectInfra opens Postgres and Redis and builds the admin service.
func connectInfra(ctx context.Context, cmdCtx *commandContext, cfg *config.AppConfig) (*infra, error) {
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: cmdCtx.Logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	redisClient, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, Logger: cmdCtx.Logger})
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close db: %w", closeErr))
		}
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	closeAll := func() { closeConnections(cmdCtx, db, redisClient) }

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		closeAll()
		return nil, err
	}
	return &infra{Admin: services.Admin, closer: closeAll}, nil
}

func closeConnections(cmdCtx *commandContext, db *sql.DB, redisClient redis.UniversalClient) {
	if err := redisClient.Close(); err != nil {
		cmdCtx.Logger.Warn("redis close failed", "error", err)
	}
	if err := db.Close(); err != nil {
		cmdCtx.Logger.Warn("db close failed", "error", err)
	}
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "migration timeout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	cfg, err := cmdCtx.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: cmdCtx.Logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return migrateErr
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("db-seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "seed timeout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	cfg, err := cmdCtx.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.IsDev {
		return errors.New("db-seed only runs with DEV=true")
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: cmdCtx.Logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return migrateErr
	}
	cmdCtx.Logger.Info("seeding development data")
	return devseed.Run(ctx, devseed.Services{
		Identities: data.NewIdentityRepo(db),
		Roles:      data.NewRoleRepo(db),
		Content:    data.NewContentRepo(db),
	}, cmdCtx.Logger)
}
