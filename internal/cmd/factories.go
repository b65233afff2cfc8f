package cmd

import (
	"context"

	"buildboard/internal/adapters/blob"
	"buildboard/internal/adapters/providers"
	"buildboard/internal/adapters/storage"
	"buildboard/internal/config"
	"buildboard/internal/ports"
	"buildboard/internal/server"
	"buildboard/internal/services"
)

// Container holds all dependencies for the application
type Container struct {
	Config *config.Config

	// Services
	SessionService *services.SessionService
	ChatService    *services.ChatService
	TimeService    *services.TimeService
	ImageService   *services.ImageService

	Providers []ports.Provider
	Server    *server.Server

	// Internal - for cleanup only
	repo *storage.SQLiteRepository
}

// NewContainer creates a new Container with all dependencies wired
func NewContainer(cfg *config.Config) (*Container, error) {
	repo, err := storage.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	blobStore, err := blob.NewFilesystemStore(cfg.BlobDir)
	if err != nil {
		repo.Close()
		return nil, err
	}

	// Fallback order is fixed: edge inference first, then Anthropic, then
	// OpenAI.
	chain := []ports.Provider{
		providers.NewWorkersAIClient(cfg.CloudflareAccountID, cfg.CloudflareAPIToken, cfg.ProviderTimeout),
		providers.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.ProviderTimeout),
		providers.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ProviderTimeout),
	}

	sessionService := services.NewSessionService(repo, blobStore)
	chatService := services.NewChatService(repo, repo, chain, cfg.ProviderTimeout)
	timeService := services.NewTimeService(repo, cfg.HourlyRate)
	imageService := services.NewImageService(blobStore, repo)

	srv := server.NewServer(cfg.ListenAddr, sessionService, chatService, timeService, imageService, chain, repoMigrator{repo})

	return &Container{
		Config:         cfg,
		SessionService: sessionService,
		ChatService:    chatService,
		TimeService:    timeService,
		ImageService:   imageService,
		Providers:      chain,
		Server:         srv,
		repo:           repo,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.repo != nil {
		return c.repo.Close()
	}
	return nil
}

// repoMigrator adapts the repository to the server's Migrator interface
type repoMigrator struct {
	repo *storage.SQLiteRepository
}

func (m repoMigrator) Migrate() error {
	return storage.Migrate(m.repo.DB())
}

func (m repoMigrator) Ping(ctx context.Context) error {
	return m.repo.Ping(ctx)
}
