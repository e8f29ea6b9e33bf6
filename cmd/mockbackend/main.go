package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"autoservice-dashboard/config"
	"autoservice-dashboard/internal/app"
	"autoservice-dashboard/internal/mockapi"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var opts []mockapi.Option
	if secret := os.Getenv("MOCK_JWT_SECRET"); secret != "" {
		opts = append(opts, mockapi.WithSecret(secret))
	}
	backend := mockapi.NewBackend(logger.Named("mock"), opts...)

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", cfg.Mock.BookingPort), Handler: mockapi.NewBookingAPI(backend)},
		{Addr: fmt.Sprintf(":%d", cfg.Mock.AccountPort), Handler: mockapi.NewAccountAPI(backend)},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Info("mock server starting", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown failed", zap.String("addr", srv.Addr), zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("mock backend stopped", zap.Error(err))
	}
	logger.Info("mock backend stopped")
}
