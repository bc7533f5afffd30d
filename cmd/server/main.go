package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoply-be/internal/cart"
	"shoply-be/internal/category"
	"shoply-be/internal/config"
	"shoply-be/internal/db"
	"shoply-be/internal/events"
	"shoply-be/internal/logger"
	"shoply-be/internal/metrics"
	"shoply-be/internal/middleware"
	"shoply-be/internal/order"
	"shoply-be/internal/product"
	"shoply-be/internal/router"
	"shoply-be/internal/user"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error {
		return srv.ListenAndServe()
	}
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter()
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, database, publisher, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.Bool("events_enabled", len(cfg.KafkaBrokers) > 0),
		)
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func newServer(cfg *config.Config, database *sql.DB, publisher events.Publisher, limiter *middleware.RateLimiter) http.Handler {
	tokens := user.NewTokenManager(cfg.JWTSecret, 0)
	stats := metrics.NewCheckoutStats()

	productRepo := product.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	orderRepo := order.NewRepository(database)
	userRepo := user.NewRepository(database)

	txRunner := db.NewTxRunner(database, &sql.TxOptions{Isolation: sql.LevelReadCommitted})

	productSvc := product.NewService(productRepo)
	cartSvc := cart.NewService(cartRepo, productRepo)
	userSvc := user.NewService(userRepo, tokens)
	orderSvc := order.NewService(orderRepo, cartRepo, productRepo, txRunner, order.Options{
		TxTimeout: cfg.OrderTxTimeout,
		Publisher: publisher,
		Stats:     stats,
	})

	return router.New(router.Deps{
		DB:         database,
		Tokens:     tokens,
		Limiter:    limiter,
		Stats:      stats,
		Users:      user.NewHandler(userSvc),
		Products:   product.NewHandler(productSvc),
		Categories: category.NewHandler(category.NewRepository(database)),
		Carts:      cart.NewHandler(cartSvc),
		Orders:     order.NewHandler(orderSvc),
	})
}
