package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comandapos/comanda-backend/internal/realtime"
	"github.com/comandapos/comanda-backend/pkg/config"
	"github.com/comandapos/comanda-backend/pkg/logger"
	"github.com/comandapos/comanda-backend/pkg/metrics"
	"github.com/comandapos/comanda-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "realtime"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "realtime",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	realtimeMetrics := metrics.NewRealtimeMetrics(prometheus.DefaultRegisterer)
	hub, err := realtime.NewHub(realtime.NewMemoryRegistry(), cfg.Realtime.ClientBuffer, realtimeMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create hub", err)
		os.Exit(1)
	}

	pubsub, err := redisClient.Subscribe(ctx, cfg.Realtime.Channel)
	if err != nil {
		logg.Error(ctx, "failed to subscribe to event channel", err)
		os.Exit(1)
	}

	subscriber, err := realtime.NewSubscriber(pubsub, hub, logg)
	if err != nil {
		logg.Error(ctx, "failed to create subscriber", err)
		os.Exit(1)
	}

	go func() {
		if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "subscriber stopped unexpectedly", err)
			stop()
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/events", realtime.NewHandler(cfg.JWT, cfg.Realtime, hub, logg))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"status":"live"}}`))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"channel": cfg.Realtime.Channel,
	})
	logg.Info(ctx, "starting realtime server")

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hub.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "hub shutdown failed", err)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "realtime server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "realtime server shutting down gracefully")
}
