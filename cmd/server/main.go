package main

import (
	"context"
	"log"

	"bloom-portal/internal/config"
	"bloom-portal/internal/container"
	"bloom-portal/internal/database"
	"bloom-portal/internal/server"
	"bloom-portal/internal/services"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		container.Module,
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			srv *server.Server,
			queries *services.QueryClient,
			db *database.Connection,
			redisClient *redis.Client,
			gracefulShutdown *services.GracefulShutdownService,
		) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					dataSource := "live"
					if cfg.RecordSystem.UseMockData {
						dataSource = "mock"
					}
					log.Printf("Starting Bloom portal on port %s (%s data)", cfg.Server.Port, dataSource)

					// Server first so no request reaches a closed store
					gracefulShutdown.RegisterShutdownHook("server", srv.Stop)
					gracefulShutdown.RegisterShutdownHook("query_cache", services.CreateQueryDrainHook(queries))
					gracefulShutdown.RegisterShutdownHook("database", services.CreateDatabaseShutdownHook(db))
					gracefulShutdown.RegisterShutdownHook("redis", services.CreateRedisShutdownHook(redisClient))

					go func() {
						if err := srv.Start(); err != nil {
							log.Printf("Server error: %v", err)
						}
					}()

					return nil
				},
				OnStop: func(ctx context.Context) error {
					log.Println("Shutting down Bloom portal")
					return gracefulShutdown.Shutdown(ctx)
				},
			})
		}),
	)

	app.Run()
}
