package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-place-recs/app/db"
	"github.com/FACorreiaa/go-place-recs/config"
	"github.com/FACorreiaa/go-place-recs/internal/api/destination"
	"github.com/FACorreiaa/go-place-recs/internal/api/discover"
	generativeAI "github.com/FACorreiaa/go-place-recs/internal/api/generative_ai"
	"github.com/FACorreiaa/go-place-recs/internal/api/ingest"
	"github.com/FACorreiaa/go-place-recs/internal/api/interactions"
	"github.com/FACorreiaa/go-place-recs/internal/api/profiles"
	"github.com/FACorreiaa/go-place-recs/internal/api/recommendation"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *slog.Logger
	Pool            *pgxpool.Pool
	DiscoverHandler *discover.HandlerImpl

	dbConnectionURL string
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	// Initialize database
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	// Generative backend client shared by every assistant-facing service
	aiClient, err := generativeAI.NewAIClient(ctx)
	if err != nil {
		logger.Error("Failed to initialize generative AI client", slog.Any("error", err))
		pool.Close()
		return nil, err
	}

	// Initialize repositories
	interactionRepo := interactions.NewPostgresInteractionRepo(pool, logger)

	// Initialize services
	ingestService := ingest.NewIngestService(logger)
	profileService := profiles.NewProfileService(aiClient, interactionRepo, logger)
	destinationService := destination.NewDestinationService(aiClient, interactionRepo, logger)
	recommendationService := recommendation.NewRecommendationService(aiClient, interactionRepo, logger)

	sessionStore := discover.NewSessionStore()
	discoverService := discover.NewDiscoverService(
		sessionStore,
		ingestService,
		profileService,
		destinationService,
		recommendationService,
		logger,
	)

	// Initialize HandlerImpls
	discoverHandler := discover.NewHandlerImpl(discoverService, logger)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		Pool:            pool,
		DiscoverHandler: discoverHandler,
		dbConnectionURL: dbConfig.ConnectionURL,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations() error {
	return database.RunMigrations(c.dbConnectionURL, c.Logger)
}
