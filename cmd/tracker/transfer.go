package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"tracker/internal/history"
	"tracker/internal/manager"
	"tracker/internal/storage/csvfile"
	"tracker/internal/storage/sqlite"
)

func exportCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Write the stored tasks to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			store, err := sqlite.Open(cfg.DBPath, logger)
			if err != nil {
				return fmt.Errorf("unable to open database: %w", err)
			}
			defer store.Close()

			tasks, err := restore(cmd.Context(), store, history.New(0), logger)
			if err != nil {
				return err
			}
			snapshot := tasks.Snapshot()
			if err := csvfile.SaveFile(args[0], snapshot); err != nil {
				return err
			}
			logger.Info("tasks exported", slog.String("file", args[0]), slog.Int("count", len(snapshot)))
			return nil
		},
	}
}

func importCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Replace the stored tasks with the contents of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			return importFile(cmd.Context(), args[0], cfg.DBPath, logger)
		},
	}
}

// importFile validates the CSV by restoring it into a fresh manager before
// anything is written to the database.
func importFile(ctx context.Context, path, dbPath string, logger *slog.Logger) error {
	loaded, err := csvfile.LoadFile(path)
	if err != nil {
		return err
	}

	tasks := manager.New(history.New(0), logger)
	if err := tasks.Restore(loaded); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	store, err := sqlite.Open(dbPath, logger)
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer store.Close()

	if err := store.Save(ctx, tasks.Snapshot(), tasks.NextFreeID()); err != nil {
		return err
	}
	logger.Info("tasks imported", slog.String("file", path), slog.Int("count", len(loaded)))
	return nil
}
