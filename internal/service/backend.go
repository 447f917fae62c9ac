package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/kv"
	"github.com/carson-networks/ledger-server/internal/storage/local"
	"github.com/carson-networks/ledger-server/internal/storage/remote"
)

// BackendConfig selects and configures the persistence backend.
type BackendConfig struct {
	Backend       string
	LocalDriver   string
	LocalPath     string
	LocalMaxBytes int64
	RemoteBaseURL string
	RemoteTimeout time.Duration
}

// ClientBackendConfig is the CLI's backend selection.
func ClientBackendConfig(cfg *config.Config) BackendConfig {
	return BackendConfig{
		Backend:       cfg.Backend,
		LocalDriver:   cfg.LocalDriver,
		LocalPath:     cfg.LocalPath,
		LocalMaxBytes: cfg.LocalMaxBytes,
		RemoteBaseURL: cfg.RemoteBaseURL,
		RemoteTimeout: cfg.RemoteTimeout,
	}
}

// ServerBackendConfig is the REST endpoint's own store. It is always local.
func ServerBackendConfig(cfg *config.Config) BackendConfig {
	return BackendConfig{
		Backend:       config.BackendLocal,
		LocalDriver:   cfg.ServerLocalDriver,
		LocalPath:     cfg.ServerLocalPath,
		LocalMaxBytes: cfg.LocalMaxBytes,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBackend picks the backend once, at startup. Local is used when its
// probe succeeds. Remote is used when configured, or when the local slot is
// unusable and a remote base URL is set. With neither, the unavailable local
// backend is returned and the ledger runs from memory.
func OpenBackend(ctx context.Context, bc BackendConfig, logger *logrus.Logger) (storage.Backend, io.Closer, error) {
	if bc.Backend == config.BackendRemote {
		return openRemote(bc, logger), nopCloser{}, nil
	}

	slot, err := OpenSlot(bc.LocalDriver, bc.LocalPath, bc.LocalMaxBytes)
	if err != nil {
		logger.WithError(err).WithField("driver", bc.LocalDriver).Warn("Service.OpenBackend.local slot failed to open")
	}

	backend := local.New(slot, logger)
	if backend.Available() {
		return backend, backend, nil
	}

	if bc.RemoteBaseURL != "" {
		_ = backend.Close()
		logger.WithField("baseURL", bc.RemoteBaseURL).Warn("Service.OpenBackend.local unavailable, using remote")
		rb := openRemote(bc, logger)
		if err := rb.Probe(ctx); err != nil {
			logger.WithError(err).Warn("Service.OpenBackend.remote probe failed")
		}
		return rb, nopCloser{}, nil
	}

	return backend, backend, nil
}

func openRemote(bc BackendConfig, logger *logrus.Logger) *remote.Backend {
	return remote.New(remote.Config{BaseURL: bc.RemoteBaseURL, Timeout: bc.RemoteTimeout}, logger)
}

// OpenSlot opens the key-value slot for driver.
func OpenSlot(driver, path string, maxBytes int64) (kv.Slot, error) {
	switch driver {
	case config.DriverMemory, "":
		return kv.NewMemorySlot(maxBytes), nil
	case config.DriverBolt:
		slot, err := kv.OpenBolt(path, maxBytes)
		if err != nil {
			return nil, err
		}
		return slot, nil
	case config.DriverSQLite:
		slot, err := kv.OpenSQLite(path, maxBytes)
		if err != nil {
			return nil, err
		}
		return slot, nil
	}
	return nil, fmt.Errorf("unknown local driver %q", driver)
}
