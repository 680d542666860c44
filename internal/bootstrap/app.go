package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/dashboard"
	"legaldocs-backend/internal/documents"
	"legaldocs-backend/internal/llm"
	"legaldocs-backend/internal/llm/gemini"
	"legaldocs-backend/internal/llm/openai"
	"legaldocs-backend/internal/services/health"
	"legaldocs-backend/internal/shared/config"
	"legaldocs-backend/internal/shared/server"
	"legaldocs-backend/internal/shared/server/middleware"
	"legaldocs-backend/internal/shared/storage/db"
	"legaldocs-backend/internal/shared/storage/object"
	localstore "legaldocs-backend/internal/shared/storage/object/local"
	s3store "legaldocs-backend/internal/shared/storage/object/s3"
	"legaldocs-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sqlx.DB
	Store            object.ObjectStore
	LLM              llm.Client
	DocumentsRepo    documents.Repo
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	DashboardHandler *dashboard.Handler
	Health           *health.Service
}

// Build wires the database, object store, LLM client, services and router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	client, err := buildLLM(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		LLM:    client,
	}
	buildServices(app)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		DocumentHandler:  app.DocumentsHandler,
		DashboardHandler: app.DashboardHandler,
		Health:           app.Health,
		Limiter:          middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close releases the database handle.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// buildDB opens the configured database and applies migrations. In dev-like
// environments a failure falls back to in-memory repositories.
func buildDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, cfg.DatabasePath, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			sqlDB = nil
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_fallback", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, fmt.Errorf("database: %w", err)
	}
	telemetry.Info("bootstrap.db_ready", map[string]any{"driver": sqlDB.DriverName()})
	return sqlDB, nil
}

func closeDB(sqlDB *sqlx.DB) {
	if sqlDB != nil {
		sqlDB.Close()
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "none":
		return nil, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildLLM selects the model client. Missing credentials leave analysis
// disabled in dev-like environments and fail startup otherwise.
func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case "openai":
		client, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMBaseURL, cfg.LLMTimeout)
	case "gemini":
		client, err = gemini.NewClient(ctx, gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.LLMBaseURL,
			Timeout: cfg.LLMTimeout,
		})
	default:
		return llm.PlaceholderClient{}, nil
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.llm_disabled", map[string]any{
				"provider": cfg.LLMProvider,
				"error":    err.Error(),
			})
			return llm.PlaceholderClient{}, nil
		}
		return nil, fmt.Errorf("llm %s: %w", cfg.LLMProvider, err)
	}
	return client, nil
}

func buildServices(app *App) {
	var repo documents.Repo
	var pinger health.Pinger
	if app.DB != nil {
		repo = &documents.SQLRepo{DB: app.DB}
		pinger = app.DB
	} else {
		repo = documents.NewMemoryRepo()
	}

	analyzer := &analyses.Analyzer{
		LLM:            app.LLM,
		MaxPromptChars: app.Config.MaxPromptChars,
		Timeout:        app.Config.LLMTimeout,
	}
	svc := &documents.Service{
		Repo:           repo,
		Store:          app.Store,
		Analyzer:       analyzer,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}

	provider, model := app.Config.LLMProvider, app.Config.LLMModel
	if p, ok := app.LLM.(llm.Provider); ok {
		provider, model = p.Provider(), p.Model()
	}

	app.DocumentsRepo = repo
	app.DocumentsService = svc
	app.DocumentsHandler = documents.NewHandler(svc)
	app.DashboardHandler = dashboard.NewHandler(svc)
	app.Health = health.NewService(pinger, storeName(app.Config.ObjectStoreType), provider, model)
}

func storeName(kind string) string {
	if kind == "" {
		return "local"
	}
	return kind
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
