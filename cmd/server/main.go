package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/ai-assistant/internal/bootstrap"
	"github.com/suPer8Hu/ai-assistant/internal/config"
	"github.com/suPer8Hu/ai-assistant/internal/httpapi"
	"github.com/suPer8Hu/ai-assistant/internal/httpapi/handlers"
	"github.com/suPer8Hu/ai-assistant/internal/logx"
	"github.com/suPer8Hu/ai-assistant/internal/store/rabbitmq"
)

func main() {
	logx.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	h := handlers.NewHandler(app.Service, app.Catalog, cfg.UploadDir)

	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Printf("rabbitmq unavailable, async turns disabled: %v", err)
		} else {
			defer pub.Close()
			h.WithJobs(app.Repo, pub)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(h, cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s (provider=%s transcript=%s recommend=%s)",
			cfg.HTTPAddr, cfg.AIProvider, cfg.TranscriptBackend, cfg.RecommendMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
