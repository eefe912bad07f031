package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yksanjo/competitor-price-tracker/internal/config"
	"github.com/yksanjo/competitor-price-tracker/internal/db"
	"github.com/yksanjo/competitor-price-tracker/internal/detect"
	"github.com/yksanjo/competitor-price-tracker/internal/logger"
	"github.com/yksanjo/competitor-price-tracker/internal/notifications"
	"github.com/yksanjo/competitor-price-tracker/internal/repository"
	"github.com/yksanjo/competitor-price-tracker/internal/scrape"
	"github.com/yksanjo/competitor-price-tracker/internal/tracker"
)

var (
	flagAdd      string
	flagURL      string
	flagSelector string
	flagRemove   string
	flagHistory  string
	flagList     bool
	flagCheck    bool
	flagWatch    bool
	flagInterval int
)

var rootCmd = &cobra.Command{
	Use:           "tracker",
	Short:         "Track competitor prices and get alerts on changes",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagAdd, "add", "", "product name to add")
	f.StringVar(&flagURL, "url", "", "product URL")
	f.StringVar(&flagSelector, "selector", "", "CSS selector for the price element")
	f.StringVar(&flagRemove, "remove", "", "remove product from tracking")
	f.BoolVar(&flagList, "list", false, "list tracked products")
	f.BoolVar(&flagCheck, "check", false, "check all products once")
	f.StringVar(&flagHistory, "history", "", "show price history for a product")
	f.BoolVar(&flagWatch, "watch", false, "run continuous monitoring")
	f.IntVar(&flagInterval, "interval", 0, "check interval in seconds (overrides CHECK_INTERVAL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if flagAdd == "" && flagRemove == "" && flagHistory == "" && !flagList && !flagCheck && !flagWatch {
		return cmd.Help()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, syncLog, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer syncLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to %s:%d/%s: %w", cfg.DBHost, cfg.DBPort, cfg.DBName, err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	productRepo := repository.NewProductRepo(pool)
	obsRepo := repository.NewObservationRepo(pool)

	source := scrape.NewClient(scrape.Options{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.HTTPTimeout,
		MaxAttempts: cfg.FetchMaxAttempts,
	})
	detector := detect.NewDetector(detect.Thresholds{
		Epsilon:    cfg.PriceChangeEpsilon,
		MinPercent: cfg.PriceChangeMinPercent,
	})
	webhook := notifications.NewWebhookSender(cfg.SlackWebhookURL, cfg.BotName, log)
	mail := notifications.NewEmailSender(cfg.EmailTo, notifications.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, log)
	notify := notifications.NewNotifier(webhook, mail, log)

	trk := tracker.New(productRepo, obsRepo, source, detector, notify,
		tracker.Config{ChecksPerMinute: cfg.ChecksPerMinute}, log)

	switch {
	case flagAdd != "":
		return runAdd(ctx, trk)
	case flagRemove != "":
		return runRemove(ctx, trk)
	case flagList:
		return runList(ctx, trk)
	case flagHistory != "":
		return runHistory(ctx, trk)
	case flagCheck:
		return runCheck(ctx, trk)
	default:
		return runWatch(ctx, cfg, pool, trk, notify, log)
	}
}

func runAdd(ctx context.Context, trk *tracker.Tracker) error {
	if flagURL == "" || flagSelector == "" {
		return fmt.Errorf("--add requires --url and --selector")
	}

	p, err := trk.Add(ctx, flagAdd, flagURL, flagSelector)
	if err != nil {
		if errors.Is(err, repository.ErrProductExists) {
			return fmt.Errorf("product %q is already tracked", flagAdd)
		}
		return fmt.Errorf("add %q: %w", flagAdd, err)
	}

	fmt.Printf("Added product: %s\n", p.Name)
	if p.CurrentPrice != nil {
		fmt.Printf("Current price: $%.2f\n", *p.CurrentPrice)
	} else {
		fmt.Println("Current price: unknown (initial check failed, will retry on next check)")
	}
	return nil
}

func runRemove(ctx context.Context, trk *tracker.Tracker) error {
	if err := trk.Remove(ctx, flagRemove); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return fmt.Errorf("product %q not found", flagRemove)
		}
		return fmt.Errorf("remove %q: %w", flagRemove, err)
	}
	fmt.Printf("Removed product: %s\n", flagRemove)
	return nil
}

func runList(ctx context.Context, trk *tracker.Tracker) error {
	products, err := trk.List(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	renderProducts(products)
	return nil
}

func runHistory(ctx context.Context, trk *tracker.Tracker) error {
	obs, err := trk.History(ctx, flagHistory, 0)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return fmt.Errorf("product %q not found", flagHistory)
		}
		return fmt.Errorf("history for %q: %w", flagHistory, err)
	}
	renderHistory(flagHistory, obs)
	return nil
}

func runCheck(ctx context.Context, trk *tracker.Tracker) error {
	results, err := trk.CheckAll(ctx)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No products to track. Add products with --add")
		return nil
	}
	renderResults(results)
	return nil
}

func watchInterval(cfg *config.Config) time.Duration {
	if flagInterval > 0 {
		return time.Duration(flagInterval) * time.Second
	}
	return cfg.CheckInterval
}
