package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/websearch/internal/server"
	"github.com/kitbuilder587/websearch/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP tool server (and the Telegram bot if TELEGRAM_BOT_TOKEN is set)",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func serveRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(server.Config{
		Addr:        a.cfg.HTTP.Addr,
		CORSOrigins: a.cfg.HTTP.CORSOrigins,
	}, []server.Tool{a.tool}, a.metrics, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(ctx)
	})

	if a.cfg.Telegram.Token != "" {
		bot, err := telegram.New(telegram.BotConfig{
			Token:             a.cfg.Telegram.Token,
			RequestsPerMinute: a.cfg.Telegram.RequestsPerMinute,
		}, a.tool, a.svc, a.logger, a.metrics)
		if err != nil {
			return fmt.Errorf("start telegram bot: %w", err)
		}
		g.Go(func() error {
			return bot.Run(ctx)
		})
	} else {
		a.logger.Info("telegram bot disabled, TELEGRAM_BOT_TOKEN not set")
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("serve stopped with error", zap.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
