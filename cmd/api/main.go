package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Viduth04/imax-backend/handlers"
	"github.com/Viduth04/imax-backend/internal/appointments"
	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/internal/cart"
	"github.com/Viduth04/imax-backend/internal/config"
	"github.com/Viduth04/imax-backend/internal/orders"
	"github.com/Viduth04/imax-backend/internal/payments"
	"github.com/Viduth04/imax-backend/internal/products"
	"github.com/Viduth04/imax-backend/internal/stores/kafka"
	"github.com/Viduth04/imax-backend/internal/stores/postgres"
	"github.com/Viduth04/imax-backend/internal/stores/redis"
	"github.com/Viduth04/imax-backend/internal/users"
	"github.com/Viduth04/imax-backend/middleware"
	"github.com/Viduth04/imax-backend/pkg/logkey"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", slog.String(logkey.Error, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}
	cfg := config.Load()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	rdb := redis.NewConf(cfg.RedisAddr)
	defer rdb.Close()

	k, err := kafka.NewConf(cfg.KafkaBrokers)
	if err != nil {
		return fmt.Errorf("connecting to kafka: %w", err)
	}
	defer k.Close()

	keys, err := auth.NewKeys(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("loading auth keys: %w", err)
	}
	mid, err := middleware.NewMid(keys)
	if err != nil {
		return fmt.Errorf("building middleware: %w", err)
	}

	userStore, err := users.NewConf(db)
	if err != nil {
		return err
	}
	productStore, err := products.NewConf(db)
	if err != nil {
		return err
	}
	cartStore, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	orderStore, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	apptStore, err := appointments.NewConf(db)
	if err != nil {
		return err
	}

	orderSvc := orders.NewService(orderStore, productStore, cartStore, orders.DefaultPolicy())
	paymentSvc := payments.NewService(orderStore, productStore, cartStore,
		payments.NewStripeProcessor(cfg.StripeKey), cfg.StripeCurrency)
	apptSvc := appointments.NewService(apptStore, userStore)

	h := handlers.NewHandler(cfg, userStore, productStore, cartStore,
		orderSvc, paymentSvc, apptSvc, keys, k, rdb)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handlers.API(cfg, mid, h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("Addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutting down", slog.String("Signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}
