package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabhub-server/internal/activity"
	redisbus "github.com/vovakirdan/collabhub-server/internal/bus/redis"
	"github.com/vovakirdan/collabhub-server/internal/config"
	"github.com/vovakirdan/collabhub-server/internal/core"
	"github.com/vovakirdan/collabhub-server/internal/metrics"
	"github.com/vovakirdan/collabhub-server/internal/presence"
	"github.com/vovakirdan/collabhub-server/internal/store/memory"
	"github.com/vovakirdan/collabhub-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/collabhub-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	recorder        *activity.Recorder
	journal         *sqlite.Journal
	publisher       *redisbus.Publisher
	closeConns      context.CancelFunc
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. ctx bounds
// the startup checks of external sinks.
func New(ctx context.Context, cfg config.Config, version string, logger *zerolog.Logger) (*App, error) {
	rooms := memory.New()
	collector := metrics.New()
	var sinks []activity.Sink

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	if cfg.JournalPath != "" {
		journal, err := sqlite.New(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("init activity journal: %w", err)
		}
		a.journal = journal
		sinks = append(sinks, journal)
		logger.Info().Str("journal_path", cfg.JournalPath).Msg("activity journal initialized")
	}

	if cfg.RedisAddr != "" {
		publisher, err := redisbus.New(ctx, redisbus.Options{
			Addr:    cfg.RedisAddr,
			DB:      cfg.RedisDB,
			Channel: cfg.RedisChannel,
		}, logger)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init activity bus: %w", err)
		}
		a.publisher = publisher
		sinks = append(sinks, publisher)
		logger.Info().Str("redis_addr", cfg.RedisAddr).Str("channel", publisher.Channel()).Msg("activity bus connected")
	}

	a.recorder = activity.NewRecorder(logger, 0, sinks...).Inline(collector)
	collector.TrackDropped(a.recorder.Dropped)
	a.hub = core.NewHub(rooms, core.WithLogger(logger), core.WithActivity(a.recorder))
	collector.TrackGauges(
		func() int { return a.hub.Stats().ActiveConnections },
		func() int { return rooms.Stats().ActiveRooms },
	)

	svc := presence.New(rooms, a.hub, presence.WithLogger(logger), presence.WithActivity(a.recorder))
	deps := transporthttp.Deps{
		Hub:      a.hub,
		Presence: svc,
		Metrics:  collector.Handler(),
		Version:  version,
	}
	if a.journal != nil {
		deps.Journal = a.journal
	}

	// Websocket handlers derive their context from here, so cancelling it
	// closes hijacked connections that Shutdown does not track.
	connCtx, closeConns := context.WithCancel(context.Background())
	a.closeConns = closeConns
	a.server = transporthttp.NewServer(cfg, deps, logger)
	a.server.BaseContext = func(net.Listener) context.Context { return connCtx }

	return a, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()
	go a.recorder.Run(recorderCtx)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	var runErr error
	select {
	case err := <-serverErr:
		runErr = err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("shutdown http server: %w", err)
		} else {
			runErr = <-serverErr
		}
	}

	a.closeConns()
	stopHub()
	stopRecorder()
	select {
	case <-a.recorder.Done():
	case <-time.After(a.shutdownTimeout):
		a.log.Warn().Msg("activity recorder did not flush in time")
	}
	a.cleanup()
	return runErr
}

// cleanup closes activity sinks.
func (a *App) cleanup() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close activity journal")
		} else {
			a.log.Info().Msg("activity journal closed")
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
