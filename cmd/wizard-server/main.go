// cmd/wizard-server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"application-wizard/internal/common/config"
	"application-wizard/internal/common/database"
	"application-wizard/internal/common/logger"
	"application-wizard/internal/draft"
	"application-wizard/internal/i18n"
	"application-wizard/internal/server"
	"application-wizard/internal/submit"
	"application-wizard/internal/suggest"
	"application-wizard/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting application wizard", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	redisClient, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Error("failed to create redis client", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx); err != nil {
		// Drafts degrade to in-memory only; the wizard still works.
		log.Warn("redis not reachable at startup", map[string]interface{}{"error": err.Error()})
	}
	cancel()

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		log.Error("failed to load form registry", map[string]interface{}{
			"path":  cfg.Registry.Path,
			"error": err.Error(),
		})
		os.Exit(1)
	}

	drafts := draft.NewStore(redisClient, log, cfg.Draft.Expiry())

	submitter := submit.NewClient(&submit.Config{
		BaseURL:    cfg.Submission.BaseURL,
		Timeout:    time.Duration(cfg.Submission.Timeout) * time.Millisecond,
		MaxRetries: cfg.Submission.MaxRetries,
	}, log)

	suggester := suggest.NewClient(&suggest.Config{
		BaseURL:    cfg.Suggestion.BaseURL,
		APIKey:     cfg.Suggestion.APIKey,
		Timeout:    time.Duration(cfg.Suggestion.Timeout) * time.Millisecond,
		MaxRetries: cfg.Suggestion.MaxRetries,
		Locale:     cfg.Suggestion.Locale,
	}, log)

	sessions := server.NewSessionManager(drafts, submitter, suggester, i18n.Default(), cfg, log)
	srv := server.New(sessions, reg, redisClient, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Router(cfg.Server),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}
