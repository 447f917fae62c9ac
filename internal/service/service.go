package service

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/ledger"
)

// Service bundles a started Coordinator with the backend resources it owns.
type Service struct {
	Transactions *Coordinator
	closer       io.Closer
}

// NewService opens the backend described by bc, builds a Coordinator over it
// and loads the ledger. A degraded load is logged; it does not fail startup.
func NewService(ctx context.Context, bc BackendConfig, cfg *config.Config, logger *logrus.Logger) (*Service, error) {
	backend, closer, err := OpenBackend(ctx, bc, logger)
	if err != nil {
		return nil, err
	}

	opts := ledger.DefaultOptions(logger)
	opts.CacheWindow = cfg.CacheWindow
	opts.MigrationEnabled = cfg.MigrationEnabled

	coordinator := NewCoordinator(backend, opts)
	if err := coordinator.Start(ctx); err != nil {
		logger.WithError(err).WithField("backend", backend.Name()).Warn("Service.NewService.storage degraded")
	}

	return &Service{Transactions: coordinator, closer: closer}, nil
}

// Close stops the coordinator and releases the backend.
func (s *Service) Close() error {
	s.Transactions.Close()
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
