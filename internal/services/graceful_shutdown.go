package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bloom-portal/internal/config"
	"bloom-portal/internal/database"
	"bloom-portal/internal/logger"

	"github.com/go-redis/redis/v8"
)

// ShutdownHook is a function called during graceful shutdown
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	hook ShutdownHook
}

// GracefulShutdownService runs shutdown hooks in registration order within
// the configured shutdown timeout
type GracefulShutdownService struct {
	config *config.Config
	logger *logger.Logger

	mu             sync.Mutex
	hooks          []namedHook
	isShuttingDown bool
	shutdownChan   chan struct{}
}

// NewGracefulShutdownService creates a new graceful shutdown service
func NewGracefulShutdownService(cfg *config.Config, log *logger.Logger) *GracefulShutdownService {
	return &GracefulShutdownService{
		config:       cfg,
		logger:       log,
		shutdownChan: make(chan struct{}),
	}
}

// RegisterShutdownHook registers a shutdown hook
func (g *GracefulShutdownService) RegisterShutdownHook(name string, hook ShutdownHook) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.hooks = append(g.hooks, namedHook{name: name, hook: hook})
	g.logger.WithField("hook_name", name).Debug("Registered shutdown hook")
}

// Shutdown runs every hook once. A failing hook does not stop later ones.
func (g *GracefulShutdownService) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	if g.isShuttingDown {
		g.mu.Unlock()
		return fmt.Errorf("shutdown already in progress")
	}
	g.isShuttingDown = true
	hooks := append([]namedHook{}, g.hooks...)
	g.mu.Unlock()

	g.logger.WithField("hook_count", len(hooks)).Info("Initiating graceful shutdown")

	timeout := time.Duration(g.config.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	for _, h := range hooks {
		g.logger.WithField("hook_name", h.name).Debug("Executing shutdown hook")
		if err := h.hook(shutdownCtx); err != nil {
			g.logger.WithError(err).WithField("hook_name", h.name).Error("Shutdown hook failed")
			errs = append(errs, fmt.Errorf("shutdown hook '%s' failed: %w", h.name, err))
		}
	}

	close(g.shutdownChan)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	g.logger.Info("Graceful shutdown completed")
	return nil
}

// WaitForShutdown returns a channel that will be closed when shutdown is complete
func (g *GracefulShutdownService) WaitForShutdown() <-chan struct{} {
	return g.shutdownChan
}

// CreateQueryDrainHook waits for background cache refreshes, giving up when
// ctx ends
func CreateQueryDrainHook(queries *QueryClient) ShutdownHook {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			queries.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("background refreshes still running: %w", ctx.Err())
		}
	}
}

// CreateDatabaseShutdownHook closes the activity database. conn may be nil.
func CreateDatabaseShutdownHook(conn *database.Connection) ShutdownHook {
	return func(ctx context.Context) error {
		if conn == nil {
			return nil
		}
		return conn.Close()
	}
}

// CreateRedisShutdownHook closes the Redis client. client may be nil.
func CreateRedisShutdownHook(client *redis.Client) ShutdownHook {
	return func(ctx context.Context) error {
		if client == nil {
			return nil
		}
		return client.Close()
	}
}
