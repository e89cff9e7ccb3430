package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tracker/internal/config"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Tracker - tasks, epics and subtasks with scheduling and view history",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	d := config.Defaults()
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().String("db-path", d.DBPath, "Path to sqlite database file")
	root.PersistentFlags().String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")

	load := func(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
		cfg, err := config.Load(configPath, cmd.Flags())
		if err != nil {
			return config.Config{}, nil, err
		}
		level, _ := cfg.Level()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		return cfg, logger, nil
	}

	root.AddCommand(serveCmd(load))
	root.AddCommand(exportCmd(load))
	root.AddCommand(importCmd(load))
	return root
}

type loadFunc func(cmd *cobra.Command) (config.Config, *slog.Logger, error)
