package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"ytsheet"
	"ytsheet/config"
)

func main() {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrMissingAPIKey) {
		fmt.Fprintln(os.Stderr, "Error: YOUTUBE_API_KEY not found in the environment or .env file")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := ytsheet.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, closer, err := ytsheet.NewSyncer(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	defer closer.Close()

	logger.WithFields(logrus.Fields{
		"channel_id": cfg.ChannelID,
		"limit":      cfg.FetchLimit,
	}).Info("bot started, waiting for schedule")

	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("scheduler exited")
	}
	logger.Info("shutting down")
}
