package common

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownHook is executed after the context is cancelled but before the HTTP
// servers begin their graceful shutdown. A failing hook is logged; shutdown continues.
type ShutdownHook func(ctx context.Context) error

// TimeoutConfig holds server and shutdown related timeouts.
type TimeoutConfig struct {
	ReadHeader time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	Read       time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	Write      time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	Idle       time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	Shutdown   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	Hook       time.Duration `envconfig:"HOOK_TIMEOUT" default:"5s"`
}

// RunServersWithShutdown starts every server and blocks until ctx is done (usually a
// signal context) or a server fails to listen. It then runs the hooks in order, each
// with its own timeout inside the overall shutdown deadline, and shuts the servers down.
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//	err := common.RunServersWithShutdown(ctx, logger, cfg.TimeoutConfig, []*http.Server{api, debug}, saveHook)
func RunServersWithShutdown(ctx context.Context, logger *zap.Logger, timeouts TimeoutConfig, servers []*http.Server, hooks ...ShutdownHook) error {
	logger = OrNop(logger)
	hookTimeout := timeouts.Hook
	if hookTimeout <= 0 {
		hookTimeout = 5 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, server := range servers {
		g.Go(func() error {
			logger.Info("starting server", zap.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	<-gctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()

	for i, h := range hooks {
		if h == nil {
			continue
		}
		hCtx, hCancel := context.WithTimeout(shutdownCtx, hookTimeout)
		if err := h(hCtx); err != nil {
			logger.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
		}
		if errors.Is(hCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("shutdown hook timed out", zap.Int("hook", i))
		}
		hCancel()
	}

	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.String("addr", server.Addr), zap.Error(err))
		}
	}
	err := g.Wait()
	if err == nil {
		logger.Info("shutdown complete")
	}
	return err
}

// NewServerWithTimeouts attaches timeout settings to an existing *http.Server or creates a new one if nil.
func NewServerWithTimeouts(base *http.Server, cfg TimeoutConfig) *http.Server {
	if base == nil {
		base = &http.Server{}
	}
	base.ReadHeaderTimeout = cfg.ReadHeader
	base.ReadTimeout = cfg.Read
	base.WriteTimeout = cfg.Write
	base.IdleTimeout = cfg.Idle
	return base
}
