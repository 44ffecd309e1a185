package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxibooking/internal/cache"
	"taxibooking/internal/clock"
	"taxibooking/internal/httpapi"
	"taxibooking/internal/notify"
	"taxibooking/internal/wizard"
	"taxibooking/pkg/config"
	"taxibooking/pkg/db"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	store, closeCache, err := cache.Open(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
	if err != nil {
		// The cache only speeds up public reads.
		log.Printf("cache disabled err=%v", err)
		store = cache.Nop{}
	} else {
		defer func() { _ = closeCache() }()
	}

	senders := []notify.Sender{notify.Log{}}
	if cfg.Notify.SendGridAPIKey != "" && cfg.Notify.FromEmail != "" && cfg.Notify.ToEmail != "" {
		senders = append(senders, notify.NewEmail(cfg.Notify.SendGridAPIKey, cfg.Notify.FromName, cfg.Notify.FromEmail, cfg.Notify.ToEmail))
		log.Printf("booking e-mails enabled to=%s", cfg.Notify.ToEmail)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		k := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic)
		defer func() { _ = k.Close() }()
		senders = append(senders, k)
		log.Printf("booking events enabled topic=%s", cfg.Kafka.BookingTopic)
	}

	notifier := notify.NewMulti(nil, senders...)
	clk := clock.NewSystem()
	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:      cfg,
		DB:       conn,
		Cache:    store,
		Notifier: notifier,
		Clock:    clk,
	})

	go sweepDrafts(ctx, wizard.NewRepository(conn), clk, time.Hour)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if err := notifier.Wait(shutdownCtx); err != nil {
		log.Printf("pending notifications dropped err=%v", err)
	}
}

// sweepDrafts deletes abandoned wizard drafts once they have been expired for a day.
func sweepDrafts(ctx context.Context, drafts *wizard.Repository, c clock.Clock, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := drafts.DeleteExpired(ctx, c.Now().Add(-24*time.Hour))
			if err != nil {
				log.Printf("draft sweep failed err=%v", err)
				continue
			}
			if n > 0 {
				log.Printf("draft sweep deleted=%d", n)
			}
		}
	}
}
