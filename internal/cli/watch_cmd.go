package cli

import (
	"context"
	"flag"
	"time"

	"github.com/google/subcommands"

	"fintracker/internal/cache"
	"fintracker/internal/config"
	"fintracker/internal/log"
	"fintracker/internal/session"
	"fintracker/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type watchCmd struct {
	noWatch bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "keep the ledger aligned with the active session" }
func (*watchCmd) Usage() string {
	return `fintracker watch [-no-fsnotify]

  Runs until interrupted. The session file is polled every
  IDENTITY_POLL_INTERVAL and watched for changes; with AMQP_URL set, session
  events published by other fintracker processes trigger a check as well.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.noWatch, "no-fsnotify", false, "Only poll the session file.")
}

func (c *watchCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	LoadEnvFile()
	logger := SetupLogger(config.Load().LogLevel)
	cfg := LoadAndValidateConfig(logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	res := InitStorage(initCtx, logger, cfg)
	initCancel()

	cacheManager := cache.NewManager(logger)
	if res.Cleaner != nil {
		cacheManager.Register(res.Cleaner)
		cacheManager.StartCleanup(cfg.CacheTTL)
	}

	l := NewLedger(logger, cfg, res.Backend)

	var opts []worker.Option
	if !c.noWatch {
		opts = append(opts, worker.WithNotifier(session.NewWatcher(cfg.SessionFile, logger)))
	}
	amqpClient := InitAMQP(logger, cfg)
	if amqpClient != nil {
		opts = append(opts, worker.WithEventSource(amqpClient))
	}

	w := worker.NewIdentityWorker(l.Monitor, cfg.IdentityPollInterval, cfg.IdentityDebounce, logger, opts...)

	ctx, done := GracefulShutdown(logger, shutdownTimeout, func() {
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Failed to close storage", log.FieldError, err)
			}
		}
	})

	logger.Info("Identity watcher starting",
		"session_file", cfg.SessionFile,
		"poll_interval", cfg.IdentityPollInterval,
		"backend", cfg.StorageBackend)

	if err := w.Run(ctx); err != nil {
		logger.Error("Identity watcher stopped", log.FieldError, err)
		return subcommands.ExitFailure
	}

	WaitForShutdown(ctx, done)
	return subcommands.ExitSuccess
}

// Commands lists every fintracker subcommand for registration.
var Commands = []subcommands.Command{
	&watchCmd{},
	&loginCmd{},
	&logoutCmd{},
	&budgetCmd{},
	&expenseCmd{},
	&goalCmd{},
	&groupCmd{},
	&summaryCmd{},
	&balancesCmd{},
	&purgeCmd{},
}
