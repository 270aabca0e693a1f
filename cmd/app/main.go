package main

import (
	"context"
	"errors"
	"flag"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"harmonychain/config"
	"harmonychain/handlers"
	"harmonychain/logger"
	"harmonychain/models"
	"harmonychain/repository"
	"harmonychain/service"
)

var configPath = flag.String("config", "", "Path to an optional YAML configuration file")

func main() {
	flag.Parse()

	cfg := config.LoadConfigOrPanic(*configPath)
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repoImpl := repository.NewMemoryRepository()

	opts := service.DefaultOptions()
	opts.StartingBalance = models.FromHMT(cfg.Economy.StartingBalance)
	opts.MiningPower = cfg.Economy.MiningPower
	opts.StreamReward = models.FromHMT(cfg.Economy.StreamReward)
	opts.Market.Days = cfg.Market.Days
	opts.Market.MinCents = int(math.Round(cfg.Market.MinPrice * 100))
	opts.Market.MaxCents = int(math.Round(cfg.Market.MaxPrice * 100))
	opts.RegenerateOnRender = cfg.Market.RegenerateOnRender
	opts.SessionTTL = cfg.Session.TTL
	opts.Logger = log

	svc := service.NewService(repoImpl, opts)
	go svc.RunJanitor(ctx, cfg.Session.SweepInterval)

	h := handlers.NewHandler(
		svc,
		handlers.NewSessionTokens(cfg.Session.Secret, cfg.Session.TTL),
		handlers.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.SecureCookie},
		log,
	)

	srv := http.Server{
		Handler:      handlers.NewRouter(h),
		Addr:         ":" + cfg.Server.Port,
		WriteTimeout: cfg.Server.WriteTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
	}

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", "error", err)
		}
	}()

	log.Info("server listening",
		"port", cfg.Server.Port,
		"regenerate_prices", cfg.Market.RegenerateOnRender,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-idle
	log.Info("server stopped")
}
