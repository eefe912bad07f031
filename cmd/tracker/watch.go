package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yksanjo/competitor-price-tracker/internal/api"
	"github.com/yksanjo/competitor-price-tracker/internal/config"
	"github.com/yksanjo/competitor-price-tracker/internal/notifications"
	"github.com/yksanjo/competitor-price-tracker/internal/scheduler"
	"github.com/yksanjo/competitor-price-tracker/internal/tracker"
	"go.uber.org/zap"
)

// runWatch blocks until SIGINT/SIGTERM, checking all products on a fixed
// interval and serving the status API when configured.
func runWatch(
	ctx context.Context,
	cfg *config.Config,
	pool *pgxpool.Pool,
	trk *tracker.Tracker,
	notify *notifications.Notifier,
	log *zap.SugaredLogger,
) error {
	interval := watchInterval(cfg)

	cfg.Print()
	if notify.Enabled() {
		notify.Announce(fmt.Sprintf("Starting price watch (checking every %s)", interval))
	} else {
		log.Warn("no notification channels configured; price changes will only be logged")
	}

	var srv *api.Server
	if cfg.StatusAPIPort > 0 {
		srv = api.NewServer(pool, cfg.StatusAPIPort, cfg.APIKey, cfg.CORSAllowOrigin, log)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("status API: %s", err)
			}
		}()
	}

	w := scheduler.NewWatcher(scheduler.WatchConfig{
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := trk.CheckAll(ctx)
			return err
		},
	}, log)
	w.Start()

	<-ctx.Done()
	log.Info("shutting down")

	w.Stop()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("status API shutdown: %s", err)
		}
	}
	return nil
}
