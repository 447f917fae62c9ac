package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/handlers/v1/status"
	"github.com/carson-networks/ledger-server/internal/handlers/v1/summary"
	"github.com/carson-networks/ledger-server/internal/handlers/v1/transaction"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// NewRouter wires every endpoint over coordinator.
func NewRouter(logger *logrus.Logger, coordinator *service.Coordinator) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(recoverer(logger))
	r.Use(cors)
	r.MethodNotAllowed(methodNotAllowed)

	statusHandler := status.NewHandler(coordinator)
	r.Get("/status", logging.LoggingWrapper("Status", logger, statusHandler.Handler))

	txHandler := transaction.NewHandler(coordinator)
	r.Get("/transactions", logging.LoggingWrapper("ListTransactions", logger, txHandler.List))
	r.Post("/transactions", logging.LoggingWrapper("CreateTransaction", logger, txHandler.Create))
	r.Put("/transactions", logging.LoggingWrapper("UpdateTransaction", logger, txHandler.Update))
	r.Delete("/transactions", logging.LoggingWrapper("DeleteTransaction", logger, txHandler.Delete))
	r.Get("/transactions/{id}", logging.LoggingWrapper("GetTransaction", logger, txHandler.List))
	r.Put("/transactions/{id}", logging.LoggingWrapper("UpdateTransaction", logger, txHandler.Update))
	r.Delete("/transactions/{id}", logging.LoggingWrapper("DeleteTransaction", logger, txHandler.Delete))

	humaAPI := humachi.New(r, huma.DefaultConfig("Ledger API", "1.0.0"))
	humaAPI.UseMiddleware(logging.HumaMiddleware(logger))
	summary.NewHandler(coordinator).Register(humaAPI)

	return r
}

type Rest struct {
	Logger  *logrus.Logger
	Port    string
	Service *service.Service
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (r *Rest) Serve(ctx context.Context) error {
	server := http.Server{
		Addr:              ":" + r.Port,
		Handler:           NewRouter(r.Logger, r.Service.Transactions),
		ReadTimeout:       time.Duration(30) * time.Second,
		WriteTimeout:      time.Duration(30) * time.Second,
		IdleTimeout:       time.Duration(10) * time.Second,
		ReadHeaderTimeout: time.Duration(10) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.Logger.WithField("port", r.Port).Info("HttpServer.Serve.listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			r.Logger.WithError(err).Error("HttpServer.Serve.listen error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	r.Logger.Info("HttpServer.Serve.shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
