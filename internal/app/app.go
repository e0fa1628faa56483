// Package app wires keeperbot together and runs it until a termination
// signal arrives.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/keeperbot/internal/bot"
	"github.com/dmitrijs2005/keeperbot/internal/config"
	"github.com/dmitrijs2005/keeperbot/internal/logging"
	"github.com/dmitrijs2005/keeperbot/internal/registry"
	"github.com/dmitrijs2005/keeperbot/internal/remote"
	"github.com/dmitrijs2005/keeperbot/internal/session"
	"github.com/dmitrijs2005/keeperbot/internal/syncer"
	"github.com/dmitrijs2005/keeperbot/internal/telegram"
	"github.com/dmitrijs2005/keeperbot/internal/vault"
	"golang.org/x/sync/errgroup"
)

type runner interface {
	Run(ctx context.Context) error
}

// Seams for tests.
var (
	newObjectStore = func(ctx context.Context, c remote.S3Config) (remote.ObjectStore, error) {
		return remote.NewS3Store(ctx, c)
	}
	newTransport = func(token string, h telegram.Handler, workers int, poll time.Duration, logger logging.Logger) (runner, error) {
		return telegram.NewTransport(token, h, workers, poll, logger)
	}
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	service   *bot.StoreService
	transport runner
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := newObjectStore(ctx, remote.S3Config{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	sync := syncer.New(store, c.RemotePath, c.LocalPath, logger.With("component", "syncer"))
	service := bot.NewStoreService(sync, vault.Open, []byte(c.MasterPassword), c.SerializeMutations, logger.With("component", "store"))

	results := registry.New()
	sessions := session.NewStore(c.SessionIdleTimeout)
	sessions.OnExpire = results.Forget

	router := bot.NewRouter(bot.NewGate(c.AuthorizedUsers), service, sessions, results, c.ResultLimit, logger.With("component", "router"))

	transport, err := newTransport(c.BotToken, router, c.Workers, c.PollTimeout, logger.With("component", "telegram"))
	if err != nil {
		return nil, err
	}

	return &App{config: c, logger: logger, service: service, transport: transport}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run checks that the store can be fetched and opened, then serves
// updates until ctx is cancelled or a signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "serialize_mutations", app.config.SerializeMutations)

	if err := app.service.Check(ctx); err != nil {
		app.logger.Error(ctx, "store check failed", "error", err)
		return err
	}

	app.initSignalHandler(ctx, cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.transport.Run(gctx)
	})

	err := g.Wait()
	app.logger.Info(ctx, "app stopped")
	return err
}
