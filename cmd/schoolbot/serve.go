package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kosten114/schoolbot/internal/blobs"
	"github.com/kosten114/schoolbot/internal/bot"
	"github.com/kosten114/schoolbot/internal/bot/telegram"
	"github.com/kosten114/schoolbot/internal/config"
	"github.com/kosten114/schoolbot/internal/dashboard"
	"github.com/kosten114/schoolbot/internal/db"
	"github.com/kosten114/schoolbot/internal/store"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Long:  "Connects to Telegram, dispatches user dialogues and runs the reminder scheduler.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "schoolbot.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	records, err := store.New(gormDB)
	if err != nil {
		return err
	}

	// Media store is optional: a failure degrades motivation features
	// instead of refusing to start.
	media, err := blobs.New(cfg.Motivation.Dir)
	if err != nil {
		fmt.Fprintf(out, "media store unavailable (%v); motivation disabled\n", err)
		media = nil
	}

	adapter, err := telegram.New(telegram.AdapterOpts{Token: cfg.Telegram.Token})
	if err != nil {
		return err
	}

	daemon, err := bot.NewDaemon(bot.DaemonOpts{
		Records: records,
		Config:  cfg,
		Adapter: adapter,
		Media:   media,
		Out:     out,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if cfg.Dashboard.Enabled {
		go func() {
			err := dashboard.Start(ctx, dashboard.StartOpts{
				DB:   gormDB,
				Port: cfg.Dashboard.Port,
				Out:  out,
			})
			if err != nil {
				log.Printf("dashboard: %v", err)
			}
		}()
	}

	return daemon.Run(ctx)
}
