package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloom-portal/internal/config"
	"bloom-portal/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGracefulShutdown_RunsHooksInOrder(t *testing.T) {
	g := NewGracefulShutdownService(&config.Config{Server: config.ServerConfig{ShutdownTimeout: 5}}, logger.NewNopLogger())

	var order []string
	boom := errors.New("close failed")
	g.RegisterShutdownHook("server", func(ctx context.Context) error {
		order = append(order, "server")
		return nil
	})
	g.RegisterShutdownHook("database", func(ctx context.Context) error {
		order = append(order, "database")
		return boom
	})
	g.RegisterShutdownHook("redis", func(ctx context.Context) error {
		order = append(order, "redis")
		return nil
	})

	err := g.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"server", "database", "redis"}, order)

	select {
	case <-g.WaitForShutdown():
	default:
		t.Fatal("shutdown channel not closed")
	}

	assert.Error(t, g.Shutdown(context.Background()))
}

func TestGracefulShutdown_NilBackends(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, CreateDatabaseShutdownHook(nil)(ctx))
	assert.NoError(t, CreateRedisShutdownHook(nil)(ctx))
}

func TestGracefulShutdown_ClosesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	require.NoError(t, CreateRedisShutdownHook(client)(context.Background()))
	assert.Error(t, client.Ping(context.Background()).Err())
}

func TestQueryDrainHook(t *testing.T) {
	q, clk := newTestQueryClient()
	ctx := context.Background()
	release := make(chan struct{})
	var calls int

	fetch := func(ctx context.Context) (int, error) {
		calls++
		if calls > 1 {
			<-release
		}
		return calls, nil
	}

	_, err := Query(ctx, q, TenantsKey, time.Minute, fetch)
	require.NoError(t, err)
	clk.Add(2 * time.Minute)
	_, err = Query(ctx, q, TenantsKey, time.Minute, fetch)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, CreateQueryDrainHook(q)(short))

	close(release)
	assert.NoError(t, CreateQueryDrainHook(q)(ctx))
}
