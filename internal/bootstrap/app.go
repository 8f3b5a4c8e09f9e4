package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"docscan-backend/internal/ai"
	aiopenai "docscan-backend/internal/ai/openai"
	"docscan-backend/internal/documents"
	"docscan-backend/internal/extraction"
	"docscan-backend/internal/settings"
	"docscan-backend/internal/shared/config"
	"docscan-backend/internal/shared/server"
	"docscan-backend/internal/shared/storage/db"
	"docscan-backend/internal/shared/storage/object"
	localstore "docscan-backend/internal/shared/storage/object/local"
	s3store "docscan-backend/internal/shared/storage/object/s3"
	"docscan-backend/internal/templates"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	DocumentsRepo documents.Repo
	TemplatesRepo templates.Repo
	SettingsRepo  settings.Repo

	DocumentsService *documents.Service
	Sweeper          *documents.Sweeper

	DocumentsHandler *documents.Handler
	TemplatesHandler *templates.Handler

	visionClient ai.VisionClient
}

// Option overrides a dependency before services are wired.
type Option func(*App)

// WithVisionClient swaps the extraction engine client, mainly for tests.
func WithVisionClient(client ai.VisionClient) Option {
	return func(app *App) {
		app.visionClient = client
	}
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	for _, opt := range opts {
		opt(app)
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		TemplateHandler: app.TemplatesHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.TemplatesRepo = &templates.PGRepo{DB: app.DB}
		app.SettingsRepo = &settings.PGRepo{DB: app.DB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.TemplatesRepo = templates.NewMemoryRepo()
		app.SettingsRepo = settings.NewMemoryRepo()
	}

	if app.visionClient == nil {
		app.visionClient = buildVisionClient(app.Config)
	}

	app.Sweeper = &documents.Sweeper{
		Repo:  app.DocumentsRepo,
		Store: app.Store,
		Cap:   app.Config.RetentionCap,
	}

	app.DocumentsService = &documents.Service{
		Repo:      app.DocumentsRepo,
		Store:     app.Store,
		Templates: app.TemplatesRepo,
		Extractor: &extraction.Orchestrator{Client: app.visionClient},
		Credentials: &settings.Service{
			Repo: app.SettingsRepo,
			Fallback: ai.Config{
				APIKey: app.Config.AIAPIKey,
				Model:  app.Config.AIModel,
			},
		},
		Sweeper: app.Sweeper,
	}

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.TemplatesHandler = templates.NewHandler(app.TemplatesRepo)
}

func buildVisionClient(cfg config.Config) ai.VisionClient {
	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "", "placeholder":
		return ai.PlaceholderClient{}
	case "openai":
		return aiopenai.NewClient()
	default:
		log.Printf("bootstrap: unknown AI_PROVIDER %q; using placeholder client", cfg.AIProvider)
		return ai.PlaceholderClient{}
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
