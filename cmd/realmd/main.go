package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wowemu/realmd/internal/auth"
	"github.com/wowemu/realmd/internal/config"
	"github.com/wowemu/realmd/internal/db"
	"github.com/wowemu/realmd/internal/realm"
)

const ConfigPath = "config/realmd.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Configure slog
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	slog.Info("realmd starting")

	// Load config
	cfgPath := ConfigPath
	if p := os.Getenv("REALMD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadRealmd(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded", "bind", cfg.BindAddress, "port", cfg.Port, "auto_create", cfg.AutoCreateAccounts)

	// Connect to database
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	// Run migrations
	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	gateway := db.NewPostgresAccountGateway(database.Pool())

	// Initial realm list load
	realms := realm.NewStore(gateway.LoadRealms, time.Duration(cfg.RealmsUpdateInterval)*time.Second)
	if err := realms.Refresh(ctx); err != nil {
		return fmt.Errorf("loading realm list: %w", err)
	}
	if realms.Len() == 0 {
		return errors.New("no valid realms configured")
	}
	slog.Info("realm list loaded", "realms", realms.Len())

	// Deactivate bans that expired while the server was down
	if err := gateway.CleanupExpiredBans(ctx); err != nil {
		slog.Error("cleaning up expired bans", "err", err)
	}

	server := auth.NewServer(cfg, gateway, realms)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting auth server")
		if err := server.Run(gctx); err != nil {
			return fmt.Errorf("auth server: %w", err)
		}
		return nil
	})

	// Periodic database ping keeps idle pool connections alive
	g.Go(func() error {
		interval := time.Duration(cfg.MaxPingTime) * time.Minute
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				slog.Debug("pinging database to keep connection alive")
				if err := database.Ping(gctx); err != nil {
					slog.Error("database ping failed", "err", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
