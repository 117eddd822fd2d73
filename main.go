package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bookflow/config"
	"bookflow/internal/book"
	"bookflow/internal/dashboard"
	"bookflow/internal/feed"
	"bookflow/internal/sim"
	"bookflow/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Bookflow.Name,
		"version": cfg.Bookflow.Version,
	}).Info("starting bookflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := book.NewStore()
	supervisor := feed.NewSupervisor(cfg, store, nil, nil)
	simulator := sim.NewSimulator(cfg.Simulator.MaxDelay)

	if err := supervisor.Start(ctx); err != nil {
		log.WithError(err).Error("Failed to start feed supervisor")
		os.Exit(1)
	}

	server := dashboard.NewServer(cfg.Dashboard, store, supervisor, simulator)
	var serverErr chan error
	if server != nil {
		serverErr = make(chan error, 1)
		go func() {
			serverErr <- server.Run(ctx)
		}()
	} else {
		log.WithComponent("main").Info("dashboard disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("dashboard server failed")
		}
		serverErr = nil
	}

	cancel()
	supervisor.Stop()

	if serverErr != nil {
		if err := <-serverErr; err != nil {
			log.WithError(err).Error("dashboard shutdown failed")
		}
	}

	log.Info("bookflow stopped")
}
