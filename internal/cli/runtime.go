package cli

import (
	"context"
	"errors"
	"time"

	"fintracker/internal/backend"
	"fintracker/internal/config"
	"fintracker/internal/core"
	"fintracker/internal/log"
)

var errNotLoggedIn = errors.New("no active session, run 'fintracker login' first")

// runtime is what a one-shot command needs: config, logger and the ledger
// loaded for the current session.
type runtime struct {
	cfg     *config.Config
	logger  *log.Logger
	storage *backend.BackendResult
	*Ledger
}

func openRuntime(ctx context.Context) *runtime {
	LoadEnvFile()
	logger := SetupLogger(config.Load().LogLevel)
	cfg := LoadAndValidateConfig(logger)

	res := InitStorage(ctx, logger, cfg)
	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		storage: res,
		Ledger:  NewLedger(logger, cfg, res.Backend),
	}
	rt.Monitor.Check(ctx)
	return rt
}

func (rt *runtime) requireUser() error {
	if rt.Store.UserID() == "" {
		return errNotLoggedIn
	}
	return nil
}

func (rt *runtime) Close() {
	if rt.storage.Cleanup != nil {
		if err := rt.storage.Cleanup(); err != nil {
			rt.logger.Warn("Failed to close storage", log.FieldError, err)
		}
	}
}

// parseDateOrToday parses s, defaulting to the current date when empty.
func parseDateOrToday(s string) (core.Date, error) {
	if s == "" {
		now := time.Now()
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	return core.ParseDate(s)
}
