package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"parley-server/chat-api/internal/config"
	"parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/infrastructure/auth"
	"parley-server/chat-api/internal/infrastructure/catalog"
	"parley-server/chat-api/internal/infrastructure/database"
	"parley-server/chat-api/internal/infrastructure/inference"
	"parley-server/chat-api/internal/infrastructure/logger"
	conversationrepo "parley-server/chat-api/internal/infrastructure/repository/conversation"
	userrepo "parley-server/chat-api/internal/infrastructure/repository/user"
	"parley-server/chat-api/internal/infrastructure/variantstore"
	"parley-server/chat-api/internal/interfaces/httpserver"
)

// Application bundles the long running components of the service.
type Application struct {
	httpServer *httpserver.HttpServer
	refresher  *catalog.Refresher
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, refresher *catalog.Refresher, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		refresher:  refresher,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.httpServer.Run(groupCtx)
	})
	group.Go(func() error {
		return a.refresher.Run(groupCtx)
	})
	return group.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	providerCatalog, err := catalog.Load(cfg.ProvidersFile, log)
	if err != nil {
		log.Fatal().Err(err).Msg("load provider catalog")
	}

	conversationRepository := conversationrepo.NewRepository(db)
	userRepository := userrepo.NewRepository(db)
	variantPool := variantstore.NewMemoryPool()
	generator := inference.NewOpenAIGenerator(cfg.InferenceTimeout, log)

	chatService := conversation.NewEngine(
		conversationRepository,
		variantPool,
		providerCatalog,
		generator,
		log,
	)

	refresher := catalog.NewRefresher(providerCatalog, cfg.ModelSyncInterval, cfg.InferenceTimeout, log)

	httpServer := httpserver.New(cfg, log, chatService, userRepository, providerCatalog, authValidator)
	app := NewApplication(httpServer, refresher, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
