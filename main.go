package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/api"
	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

func main() {
	logger := logging.SetupLogging()
	logger.Info("ledger-server starting")

	if err := config.LoadDotEnv(); err != nil {
		logger.WithError(err).Fatal("config.LoadDotEnv")
		return
	}

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logger.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}
	if err := logging.SetLevel(logger, envConfig.LogLevel); err != nil {
		logger.WithError(err).Fatal("logging.SetLevel")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.NewService(ctx, service.ServerBackendConfig(envConfig), envConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("service.NewService")
		return
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.WithError(err).Error("service.Close")
		}
	}()

	svc.Transactions.Subscribe(service.ObserverFunc(func(e service.Event) {
		logger.WithFields(logrus.Fields{
			"op":      e.Op,
			"count":   len(e.Mutation.Records),
			"durable": e.Mutation.Durable(),
		}).Info("Ledger.changed")
	}))

	httpRest := api.Rest{
		Logger:  logger,
		Port:    envConfig.Port,
		Service: svc,
	}
	if err := httpRest.Serve(ctx); err != nil {
		logger.WithError(err).Error("HttpServer.Serve")
	}
	logger.Info("ledger-server stopped")
}
