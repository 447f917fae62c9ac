package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

type Config struct {
	Backend          string
	RemoteBaseURL    string
	RemoteTimeout    time.Duration
	CacheWindow      time.Duration
	MigrationEnabled bool

	// LocalDriver and LocalPath back the CLI's local slot.
	LocalDriver   string
	LocalPath     string
	LocalMaxBytes int64

	// ServerLocalDriver and ServerLocalPath back the REST endpoint's own store.
	ServerLocalDriver string
	ServerLocalPath   string

	Port     string
	LogLevel string
}

// LoadDotEnv reads KEY=value pairs from the given files (".env" when none are
// given) into the environment. Missing files are skipped and variables that
// are already set win.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

func ProcessEnvironmentVariables() (*Config, error) {
	// Defaults run everything on this machine: local bolt file for the CLI,
	// in-memory store for the server.
	env := Config{
		Backend:           BackendLocal,
		RemoteBaseURL:     "http://localhost:9446",
		RemoteTimeout:     10 * time.Second,
		CacheWindow:       100 * time.Millisecond,
		MigrationEnabled:  true,
		LocalDriver:       DriverBolt,
		LocalPath:         "./data/ledger.db",
		LocalMaxBytes:     5 << 20,
		ServerLocalDriver: DriverMemory,
		ServerLocalPath:   "./data/server.db",
		Port:              "9446",
		LogLevel:          "info",
	}

	var err error

	if v := os.Getenv("LEDGER_BACKEND"); len(v) != 0 {
		if env.Backend, err = oneOf("LEDGER_BACKEND", v, BackendLocal, BackendRemote); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("LEDGER_REMOTE_BASE_URL"); len(v) != 0 {
		env.RemoteBaseURL = v
	}

	if v := os.Getenv("LEDGER_REMOTE_TIMEOUT_MS"); len(v) != 0 {
		if env.RemoteTimeout, err = millis("LEDGER_REMOTE_TIMEOUT_MS", v); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("LEDGER_CACHE_WINDOW_MS"); len(v) != 0 {
		if env.CacheWindow, err = millis("LEDGER_CACHE_WINDOW_MS", v); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("LEDGER_MIGRATION_ENABLED"); len(v) != 0 {
		if env.MigrationEnabled, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("LEDGER_MIGRATION_ENABLED: %w", err)
		}
	}

	if v := os.Getenv("LEDGER_LOCAL_DRIVER"); len(v) != 0 {
		if env.LocalDriver, err = oneOf("LEDGER_LOCAL_DRIVER", v, DriverMemory, DriverBolt, DriverSQLite); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("LEDGER_LOCAL_PATH"); len(v) != 0 {
		env.LocalPath = v
	}

	if v := os.Getenv("LEDGER_LOCAL_MAX_BYTES"); len(v) != 0 {
		if env.LocalMaxBytes, err = strconv.ParseInt(v, 10, 64); err != nil || env.LocalMaxBytes < 0 {
			return nil, fmt.Errorf("LEDGER_LOCAL_MAX_BYTES: invalid size %q", v)
		}
	}

	if v := os.Getenv("SERVER_LOCAL_DRIVER"); len(v) != 0 {
		if env.ServerLocalDriver, err = oneOf("SERVER_LOCAL_DRIVER", v, DriverMemory, DriverBolt, DriverSQLite); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("SERVER_LOCAL_PATH"); len(v) != 0 {
		env.ServerLocalPath = v
	}

	if v := os.Getenv("PORT"); len(v) != 0 {
		env.Port = v
	}

	if v := os.Getenv("LOG_LEVEL"); len(v) != 0 {
		env.LogLevel = v
	}

	return &env, nil
}

func millis(name, v string) (time.Duration, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid milliseconds %q", name, v)
	}
	return time.Duration(n) * time.Millisecond, nil
}

func oneOf(name, v string, allowed ...string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s: %q is not one of %s", name, v, strings.Join(allowed, ", "))
}
