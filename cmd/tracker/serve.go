package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tracker/internal/config"
	"tracker/internal/history"
	"tracker/internal/manager"
	"tracker/internal/server"
	"tracker/internal/storage/sqlite"
)

func serveCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tracker HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			return serve(cfg, logger)
		},
	}

	d := config.Defaults()
	cmd.Flags().String("addr", d.Addr, "HTTP listen address")
	cmd.Flags().Int("history-limit", d.HistoryLimit, "Maximum history entries (0 keeps all)")

	return cmd
}

func serve(cfg config.Config, logger *slog.Logger) error {
	logger.Info("tracker starting", slog.String("version", Version))

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer store.Close()

	tasks, err := restore(context.Background(), store, history.New(cfg.HistoryLimit), logger)
	if err != nil {
		return err
	}

	srv := server.New(tasks, store, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen on %s: %w", httpServer.Addr, err)
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}

// restore builds a manager from the last saved snapshot.
func restore(ctx context.Context, store *sqlite.Store, tracker *history.Tracker, logger *slog.Logger) (*manager.Manager, error) {
	saved, nextID, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	tasks := manager.New(tracker, logger)
	if err := tasks.Restore(saved); err != nil {
		return nil, err
	}
	tasks.SetNextFreeID(nextID)
	return tasks, nil
}
