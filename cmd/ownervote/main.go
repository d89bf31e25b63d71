package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abrezinsky/ownervote/internal/app"
	"github.com/abrezinsky/ownervote/internal/config"
	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/pkg/registry"
)

var (
	version = "dev"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal("Invalid configuration: ", err)
	}

	if cfg.ShowVersion {
		fmt.Printf("ownervote %s\n", version)
		os.Exit(0)
	}

	appLog := logger.NewWithOptions(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
	})
	if cfg.HTTPLogging {
		appLog.EnableHTTPLogging()
	}

	var registryClient registry.Client
	if cfg.RegistryURL != "" {
		client := registry.NewHTTPClient(cfg.RegistryURL, appLog.With("component", "registry"))
		client.SetToken(cfg.RegistryToken)
		registryClient = client
	}

	a, err := app.New(appLog, cfg, registryClient)
	if err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLog.Info("ownervote starting",
		"version", version,
		"db", cfg.DBPath,
		"sweep_interval", cfg.SweepInterval.String(),
		"registry", cfg.RegistryURL != "",
	)

	if err := a.Run(ctx, cfg.Addr()); err != nil {
		appLog.Error("Server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
}
