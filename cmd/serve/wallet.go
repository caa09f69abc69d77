package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/ris/client"
	"github.com/sig-0/ris/cmd/env"
	"github.com/sig-0/ris/ingest"
	"github.com/sig-0/ris/provider/ves"
	"github.com/sig-0/ris/screen"
	"github.com/sig-0/ris/server"
	"github.com/sig-0/ris/server/config"
	"github.com/sig-0/ris/session"
	"github.com/sig-0/ris/storage"
	"github.com/sig-0/ris/tasks"
)

var errMissingToken = errors.New("missing session token")

// wallet is the assembled daemon: backend client, state, scheduler, screens and API
type wallet struct {
	logger *slog.Logger

	svc          *session.Service
	orchestrator *ingest.Orchestrator
	screens      *screen.Manager
	server       *server.Server
}

// newLogger creates the daemon logger at the given level
func newLogger(level string) *slog.Logger {
	var lvl slog.Level

	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// loadEnv loads the .env file, if any
func loadEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}
}

// newWallet wires the daemon components over the given rate history store
func newWallet(cfg *config.Config, store storage.Storage, logger *slog.Logger) (*wallet, error) {
	token := os.Getenv(env.Prefix + env.SessionTokenSuffix)
	if token == "" {
		return nil, fmt.Errorf("%w: set %s", errMissingToken, env.Prefix+env.SessionTokenSuffix)
	}

	timeout, err := cfg.Backend.Timeout()
	if err != nil {
		return nil, err
	}

	intervals, err := cfg.Polling.Parse()
	if err != nil {
		return nil, err
	}

	backend := client.New(
		cfg.Backend.BaseURL,
		client.WithToken(token),
		client.WithTimeout(timeout),
		client.WithRateLimit(cfg.Backend.RequestsPerSecond, cfg.Backend.Burst),
		client.WithLogger(logger.With("component", "client")),
	)

	var (
		state = session.NewState(session.WithStateLogger(logger.With("component", "state")))
		svc   = session.NewService(
			backend,
			state,
			session.WithStorage(store),
			session.WithLogger(logger.With("component", "session")),
		)

		orchestrator = ingest.New(ingest.WithLogger(logger.With("component", "ingest")))
		screens      = screen.NewManager(orchestrator, screen.WithLogger(logger.With("component", "screen")))
	)

	// The app scope runs for the whole process lifetime
	var appTasks []ingest.Task

	if cfg.Reference.Enabled {
		scraper := ves.NewBCVScraper(cfg.Reference.URL, timeout)

		appTasks = append(appTasks, tasks.NewReferenceTask(svc, scraper, intervals.Reference))
	}

	if err := screens.Register(screen.App, appTasks...); err != nil {
		return nil, err
	}

	err = screens.Register(
		screen.Home,
		tasks.NewRatesTask(svc, intervals.Rates, intervals.RatesBackoff),
		tasks.NewNotificationsTask(svc, intervals.Notifications),
	)
	if err != nil {
		return nil, err
	}

	if err := screens.Register(screen.Support, tasks.NewSupportTask(svc, intervals.Support)); err != nil {
		return nil, err
	}

	// PIX status tasks are added per charge, while the screen is focused
	if err := screens.Register(screen.Pix); err != nil {
		return nil, err
	}

	s, err := server.New(
		svc,
		screens,
		store,
		server.WithLogger(logger),
		server.WithConfig(cfg),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create server, %w", err)
	}

	return &wallet{
		logger:       logger,
		svc:          svc,
		orchestrator: orchestrator,
		screens:      screens,
		server:       s,
	}, nil
}

// run serves the wallet until the context is cancelled, or a signal arrives
func (w *wallet) run(ctx context.Context) error {
	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	// Conversions work from the last recorded table until the first fetch lands
	if err := w.svc.WarmStart(runCtx); err != nil {
		w.logger.Warn("unable to warm start rates", "err", err)
	}

	for _, name := range []string{screen.App, screen.Home} {
		if err := w.screens.Focus(name); err != nil {
			return fmt.Errorf("unable to start background tasks, %w", err)
		}
	}

	defer w.screens.BlurAll()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return w.server.Serve(gCtx)
	})

	// Start the background tasks
	group.Go(func() error {
		return w.orchestrator.Start(gCtx)
	})

	return group.Wait()
}
