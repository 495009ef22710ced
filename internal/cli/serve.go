package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quadra/internal/amqp"
	"quadra/internal/config"
	"quadra/internal/core"
	apphttp "quadra/internal/http"
	"quadra/internal/identity"
	"quadra/internal/scheduler"
	"quadra/internal/services"
	"quadra/internal/storage"
)

// systemActor drives background window refreshes. It acts with admin
// rights so the window keeps rolling even when no admin opens the app.
var systemActor = core.Member{ID: "system-scheduler", Role: core.RoleAdmin}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	// The server runs without AMQP when the broker is down; publishes are
	// skipped and the worker's pending scan catches up later.
	var amqpClient *amqp.Client
	if client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); err != nil {
		slog.Warn("AMQP unavailable, continuing without message publishing", "error", err)
	} else {
		amqpClient = client
		defer amqpClient.Close()
	}

	hour, minute := cfg.Kickoff()
	rule := core.GameRule{Weekday: cfg.Weekday(), Hour: hour, Minute: minute}

	ident := identity.NewService(repo)
	sched := scheduler.New(repo, amqpClient, rule, cfg.GameLocation)
	games := services.NewGameService(repo, sched)
	finance := services.NewFinanceService(repo, amqpClient)
	members := services.NewMemberService(repo)

	srv := apphttp.NewServer(ident, games, finance, members)
	srv.SetReadyCheck(repo.Ping)

	httpServer := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        srv.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting quadra server", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Periodic window refresh so occurrences exist before anyone asks.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()

		if _, err := games.Refresh(ctx, systemActor, time.Now()); err != nil {
			slog.Error("Initial window refresh failed", "error", err)
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := games.Refresh(ctx, systemActor, time.Now()); err != nil {
					slog.Error("Window refresh failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped gracefully")
	return nil
}
