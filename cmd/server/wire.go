//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parley-server/chat-api/internal/config"
	"parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/domain/inference"
	"parley-server/chat-api/internal/domain/provider"
	"parley-server/chat-api/internal/domain/user"
	"parley-server/chat-api/internal/infrastructure/auth"
	"parley-server/chat-api/internal/infrastructure/catalog"
	"parley-server/chat-api/internal/infrastructure/database"
	inferenceInfra "parley-server/chat-api/internal/infrastructure/inference"
	"parley-server/chat-api/internal/infrastructure/logger"
	conversationrepo "parley-server/chat-api/internal/infrastructure/repository/conversation"
	userrepo "parley-server/chat-api/internal/infrastructure/repository/user"
	"parley-server/chat-api/internal/infrastructure/variantstore"
	"parley-server/chat-api/internal/interfaces/httpserver"
)

var chatSet = wire.NewSet(
	conversationrepo.NewRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.Repository)),
	userrepo.NewRepository,
	wire.Bind(new(user.Repository), new(*userrepo.Repository)),
	variantstore.NewMemoryPool,
	wire.Bind(new(conversation.VariantPool), new(*variantstore.MemoryPool)),
	newGenerator,
	wire.Bind(new(inference.Generator), new(*inferenceInfra.OpenAIGenerator)),
	newCatalog,
	wire.Bind(new(provider.Catalog), new(*catalog.Catalog)),
	newRefresher,
	conversation.NewEngine,
	wire.Bind(new(conversation.Service), new(*conversation.Engine)),
)

// BuildApplication demonstrates how to assemble the chat service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		chatSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newCatalog(cfg *config.Config, log zerolog.Logger) (*catalog.Catalog, error) {
	return catalog.Load(cfg.ProvidersFile, log)
}

func newGenerator(cfg *config.Config, log zerolog.Logger) *inferenceInfra.OpenAIGenerator {
	return inferenceInfra.NewOpenAIGenerator(cfg.InferenceTimeout, log)
}

func newRefresher(cfg *config.Config, c *catalog.Catalog, log zerolog.Logger) *catalog.Refresher {
	return catalog.NewRefresher(c, cfg.ModelSyncInterval, cfg.InferenceTimeout, log)
}
