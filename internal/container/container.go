package container

import (
	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"bloom-portal/internal/config"
	"bloom-portal/internal/database"
	"bloom-portal/internal/handlers"
	"bloom-portal/internal/logger"
	"bloom-portal/internal/models"
	"bloom-portal/internal/recordsystem"
	"bloom-portal/internal/repositories"
	"bloom-portal/internal/server"
	"bloom-portal/internal/services"
)

// Module provides dependency injection configuration
var Module = fx.Options(
	// Configuration
	fx.Provide(config.LoadConfig),
	fx.Provide(config.ProvideRecordSystemConfig),

	// Logging
	fx.Provide(logger.NewLogger),

	// Metrics
	fx.Provide(prometheus.NewRegistry),
	fx.Provide(func(r *prometheus.Registry) prometheus.Registerer { return r }),
	fx.Provide(func(r *prometheus.Registry) prometheus.Gatherer { return r }),

	fx.Provide(clock.New),

	// Storage
	fx.Provide(database.NewConnection),
	fx.Provide(database.NewMigrator),
	fx.Provide(database.NewRedisClient),

	// Record system
	fx.Provide(ProvideCredentialStore),
	fx.Provide(recordsystem.NewClient),
	fx.Provide(func(c recordsystem.Client) handlers.TokenSetter { return c }),

	// Repositories
	fx.Provide(repositories.NewTenantRepository),
	fx.Provide(repositories.NewServiceRepository),
	fx.Provide(repositories.NewCatalogRepository),
	fx.Provide(repositories.NewActivityRepository),
	fx.Provide(repositories.NewDraftRepository),

	// Services
	fx.Provide(services.NewQueryClient),
	fx.Provide(services.NewPortalService),
	fx.Provide(services.NewBuilderService),
	fx.Provide(services.NewGracefulShutdownService),
	fx.Provide(func(p *services.PortalService) handlers.PortalAPI { return p }),
	fx.Provide(func(b *services.BuilderService) handlers.BuilderAPI { return b }),

	// Handlers
	fx.Provide(handlers.NewPortalAPIHandler),
	fx.Provide(handlers.NewHealthHandler),

	// Server
	fx.Provide(server.NewServer),

	// Models (for validation and serialization)
	fx.Provide(models.NewValidationService),

	// Migrate the activity table when a database is configured
	fx.Invoke(func(conn *database.Connection, migrator *database.Migrator) error {
		if conn == nil {
			return nil
		}
		return migrator.Up()
	}),
)

// ProvideCredentialStore keeps the record-system credential in Redis when
// Redis is enabled, otherwise in memory seeded from configuration.
func ProvideCredentialStore(cfg *config.RecordSystemConfig, client *redis.Client) recordsystem.CredentialStore {
	if client == nil {
		return recordsystem.NewStaticCredentialStore(cfg.BasicCredential)
	}
	return recordsystem.NewRedisCredentialStore(client, cfg.CredentialKey)
}
