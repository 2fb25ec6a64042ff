package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quote-service/internal/catalog"
	"quote-service/internal/config"
	"quote-service/internal/dispatch"
	"quote-service/internal/document"
	"quote-service/internal/export"
	"quote-service/internal/notify"
	"quote-service/internal/pricing"
	"quote-service/internal/server"
	"quote-service/internal/wizard"
	"quote-service/pkg/emailjs"
	"quote-service/pkg/logger"
	"quote-service/pkg/redis"
)

func main() {
	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("Service failed", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		log.Info("Catalog loaded", zap.String("path", cfg.CatalogPath))
	}

	var store wizard.Store = wizard.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisClient, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		store = wizard.NewRedisStore(redisClient, cfg.SessionTTL)
		log.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr))
	} else {
		log.Info("Using in-memory session store")
	}

	engine := pricing.NewEngine(cat)

	relay := emailjs.NewClient(
		cfg.EmailJSBaseURL,
		cfg.EmailJSServiceID,
		cfg.EmailJSTemplateID,
		cfg.EmailJSPublicKey,
		cfg.RequestTimeout,
		log,
	)
	dispatcher := dispatch.NewDispatcher(relay, cat, log)

	var notifier notify.Notifier
	if cfg.TelegramToken != "" && cfg.AdminChatID != 0 {
		notifier, err = notify.NewTelegram(cfg.TelegramToken, cfg.AdminChatID, cat, log)
		if err != nil {
			return err
		}
	}

	renderers := map[string]document.Renderer{
		"pdf":  document.NewPDFRenderer(cat, document.DefaultIssuer),
		"xlsx": document.NewExcelRenderer(cat),
	}
	exporter := export.NewExporter(renderers, dispatcher, notifier, engine, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(store, cat, engine, exporter, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
