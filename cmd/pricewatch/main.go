package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/qepting91/pricewatch/internal/collector"
	"github.com/qepting91/pricewatch/internal/dashboard"
	"github.com/qepting91/pricewatch/internal/domain"
	"github.com/qepting91/pricewatch/internal/ingest"
	"github.com/qepting91/pricewatch/internal/monitor"
	"github.com/qepting91/pricewatch/internal/notify"
	"github.com/qepting91/pricewatch/internal/storage"
	"github.com/qepting91/pricewatch/internal/tracker"
)

type options struct {
	configPath  string
	logPath     string
	baseDir     string
	journalPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Price tracker failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "pricewatch",
		Short: "Track storefront prices and mail on drops",
		Long: `pricewatch checks every configured product page with a headless browser,
compares the price with the previous check and the target price, and mails
the owner when a price drops.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(o)
		},
	}
	cmd.Flags().StringVar(&o.configPath, "config", "", "configuration JSON file (required)")
	cmd.Flags().StringVar(&o.logPath, "log", "", "also write logs to this file")
	cmd.Flags().StringVar(&o.baseDir, "base-dir", "", "change to this directory before resolving other paths")
	cmd.Flags().StringVar(&o.journalPath, "journal", "", "append observations and events as NDJSON to this file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func run(o options) error {
	// 1. Setup
	if o.baseDir != "" {
		if err := os.Chdir(o.baseDir); err != nil {
			return fmt.Errorf("change to base dir: %w", err)
		}
	}
	godotenv.Load()

	logger, closeLog, err := newLogger(o.logPath, os.Getenv("LOG_LEVEL"))
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	// 2. Load Inputs
	cfg, err := ingest.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	logger.Info("Configuration loaded", "path", o.configPath, "products", len(cfg.Products), "interval", cfg.CheckInterval)
	for _, p := range cfg.Products {
		if !p.Store.Supported() {
			logger.Warn("Product uses an unsupported store and will be skipped", "url", p.URL, "store", p.Store)
		}
	}

	// 3. Notifier
	var notifier domain.Notifier = notify.LogNotifier{Currency: cfg.Currency}
	if cfg.Email != "" {
		port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
		notifier = notify.NewMailer(notify.MailerConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     port,
			Address:  cfg.Email,
			Password: cfg.AppPassword,
			Currency: cfg.Currency,
		})
	} else {
		logger.Warn("No email configured, notifications will only be logged")
	}

	// 4. Initialize Extractors (Using Factory)
	extractors, browser, err := collector.NewExtractors(collector.DefaultSessionConfig())
	if err != nil {
		return fmt.Errorf("initialize extractors: %w", err)
	}
	logger.Info("Extractors initialized", "mode", os.Getenv("EXTRACTOR_MODE"))

	// 5. Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger := tracker.NewLedger(cfg.Products)

	var writerWg sync.WaitGroup
	var journal chan storage.Record
	if o.journalPath != "" {
		journal = make(chan storage.Record, 100)
		writer := &storage.WriterService{FilePath: o.journalPath}
		writerWg.Add(1)
		go writer.Start(&writerWg, journal)
	}

	m := monitor.New(monitor.Config{
		Ledger:     ledger,
		Extractors: extractors,
		Notifier:   notifier,
		Browser:    browser,
		Journal:    journal,
		Interval:   cfg.CheckInterval,
	})

	// 6. Run Dashboard
	if port := os.Getenv("DASHBOARD_PORT"); port != "" {
		h := dashboard.NewHandler(dashboard.Options{
			Ledger:   ledger,
			Running:  m.Running,
			Interval: cfg.CheckInterval,
			Currency: cfg.Currency,
		})
		go func() {
			logger.Info("Starting Dashboard", "port", port)
			if err := dashboard.StartServer(ctx, ":"+port, h); err != nil {
				logger.Error("Dashboard failed", "err", err)
			}
		}()
	}

	// 7. Poll until interrupted
	err = m.Run(ctx)

	if journal != nil {
		close(journal)
		writerWg.Wait()
	}
	logger.Info("Price tracker stopped")
	return err
}
