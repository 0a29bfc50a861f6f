package ytsheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"ytsheet/config"
	httpx "ytsheet/http"
	"ytsheet/internal/retry"
	"ytsheet/sheets"
	"ytsheet/syncer"
	"ytsheet/youtube"
)

// NewLogger builds the process logger from cfg's level and format.
func NewLogger(cfg *config.Config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// NewHTTPClient returns the rate limited client shared by both Google APIs.
func NewHTTPClient(cfg *config.Config) *http.Client {
	hc := httpx.DefaultConfig()
	hc.RateLimiter.HostRates = map[string]float64{
		httpx.YouTubeHost:      cfg.YouTubeRPS,
		httpx.LegacyGoogleAPIs: cfg.YouTubeRPS,
		httpx.SheetsHost:       cfg.SheetsRPS,
	}
	return httpx.New(hc)
}

// NewSyncer wires the fetcher and table described by cfg into a Syncer.
// The returned closer releases the table (the local file lock, if any).
func NewSyncer(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*syncer.Syncer, io.Closer, error) {
	client := NewHTTPClient(cfg)
	rc := retryConfig(cfg)

	fetcher, err := youtube.NewAPIFetcher(ctx, cfg.APIKey, client, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create youtube fetcher: %w", err)
	}
	fetcher.RetryConfig = &rc

	var (
		table  sheets.Table
		closer io.Closer = nopCloser{}
	)
	if cfg.UsesLocalTable() {
		ft, err := sheets.OpenFileTable(cfg.TableFile, sheets.DefaultLockTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("open table file: %w", err)
		}
		table, closer = ft, ft
		logger.WithField("path", ft.Path()).Info("using local table file")
	} else {
		gs, err := sheets.NewGoogleSheet(ctx, cfg.ServiceAccountFile, cfg.SpreadsheetID, cfg.SheetName, client, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open google sheet: %w", err)
		}
		gs.RetryConfig = &rc
		table = gs
	}

	return syncer.New(fetcher, table, cfg, logger), closer, nil
}

// SyncOnce runs a single sync cycle with the components cfg describes.
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := ytsheet.SyncOnce(ctx, cfg, nil)
func SyncOnce(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*syncer.CycleResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s, closer, err := NewSyncer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return s.RunCycle(ctx)
}

func retryConfig(cfg *config.Config) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.MaxRetries
	rc.InitialBackoff = cfg.InitialBackoff
	rc.MaxBackoff = cfg.MaxBackoff
	rc.Multiplier = cfg.BackoffMultiplier
	return rc
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
