package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahil-darj/Rewear/internal/config"
	"github.com/sahil-darj/Rewear/internal/handlers"
	"github.com/sahil-darj/Rewear/internal/logging"
	"github.com/sahil-darj/Rewear/internal/market"
	"github.com/sahil-darj/Rewear/internal/session"
	"github.com/sahil-darj/Rewear/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	if cfg.FileUsed == "" {
		logger.Info("no config file found, using defaults")
	}

	// init store
	rec, err := store.Open(cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = rec.Close() }()

	svc := market.NewService(rec, market.Options{
		SignupGrant: &cfg.Points.SignupGrant,
		AdminEmail:  cfg.Auth.AdminEmail,
		AutoApprove: cfg.Moderation.AutoApprove,
		Logger:      logger.Named("market"),
	})
	ctx := context.Background()
	if err := svc.Load(ctx); err != nil {
		return err
	}
	if cfg.Seed.Demo {
		if err := svc.SeedDemo(ctx); err != nil {
			return err
		}
	}

	sessions, err := session.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, nil)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handlers.New(svc, sessions, logger.Named("http")).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
