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

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"autoservice-dashboard/config"
	"autoservice-dashboard/internal/api"
	"autoservice-dashboard/internal/app"
	"autoservice-dashboard/internal/auth"
	"autoservice-dashboard/internal/booking"
	"autoservice-dashboard/internal/db"
	"autoservice-dashboard/internal/gateway"
	"autoservice-dashboard/internal/notification"
	"autoservice-dashboard/internal/poller"
	"autoservice-dashboard/internal/status"
	"autoservice-dashboard/internal/store"
	"autoservice-dashboard/internal/vehicle"
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
	logger.Info("configuration loaded", zap.String("path", configPath), zap.String("env", cfg.Environment))

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := store.NewSessionStore(db.NewSessionRepository(gormDB), logger.Named("session"))
	bookings := store.NewBookingStore()
	vehicles := store.NewVehicleStore()

	navigator := &api.Navigator{}
	gw := gateway.New(cfg.Gateway, session, navigator, logger.Named("gateway"))

	authSvc := auth.NewService(gw, session, logger.Named("auth"))
	if ok, err := authSvc.RestoreSession(); err != nil {
		logger.Warn("failed to restore session", zap.Error(err))
	} else if ok {
		logger.Info("session restored")
	}

	subscriptions := db.NewSubscriptionRepository(gormDB)

	var (
		webpushOptions *webpush.Options
		bookingOpts    = []booking.Option{booking.WithSession(session)}
		statusNotifier status.Notifier
		pollNotifier   poller.Notifier
	)
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, subscriptions, webpushOptions, logger.Named("push"))
		pool.Start(ctx)
		bookingOpts = append(bookingOpts, booking.WithNotifier(pool))
		statusNotifier, pollNotifier = pool, pool
	} else {
		logger.Info("VAPID keys not configured, push notifications disabled")
	}

	bookingFlow := booking.NewWorkflow(gw, bookings, vehicles, logger.Named("booking"), bookingOpts...)
	statusFlow := status.NewWorkflow(gw, bookings, statusNotifier, logger.Named("status"))

	go poller.NewService(cfg.Poller, statusFlow, bookings, session, pollNotifier, logger.Named("poller")).Run(ctx)

	handler := api.NewHandler(api.Deps{
		Booking:       bookingFlow,
		Status:        statusFlow,
		Vehicles:      vehicle.NewManager(gw, vehicles, logger.Named("vehicle")),
		Auth:          authSvc,
		Session:       session,
		Bookings:      bookings,
		VehicleStore:  vehicles,
		Gateway:       gw,
		Subscriptions: subscriptions,
		WebPush:       webpushOptions,
		Navigator:     navigator,
		Logger:        logger.Named("http"),
	})

	router := api.NewRouter(ctx, handler, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}

	logger.Info("server gracefully stopped")
}
