package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billyribeiro-ux/build-ops/internal/analyzer"
	"github.com/billyribeiro-ux/build-ops/internal/applier"
	"github.com/billyribeiro-ux/build-ops/internal/chunker"
	"github.com/billyribeiro-ux/build-ops/internal/imports"
	"github.com/billyribeiro-ux/build-ops/internal/llm"
	"github.com/billyribeiro-ux/build-ops/internal/llm/anthropic"
	"github.com/billyribeiro-ux/build-ops/internal/programs"
	"github.com/billyribeiro-ux/build-ops/internal/queue"
	"github.com/billyribeiro-ux/build-ops/internal/services/health"
	"github.com/billyribeiro-ux/build-ops/internal/shared/config"
	"github.com/billyribeiro-ux/build-ops/internal/shared/server"
	"github.com/billyribeiro-ux/build-ops/internal/shared/storage/db"
	"github.com/billyribeiro-ux/build-ops/internal/shared/storage/object"
	localstore "github.com/billyribeiro-ux/build-ops/internal/shared/storage/object/local"
	s3store "github.com/billyribeiro-ux/build-ops/internal/shared/storage/object/s3"
	"github.com/billyribeiro-ux/build-ops/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

// App holds shared dependencies.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	DB            *sql.DB
	Store         object.ObjectStore
	Pool          *queue.Pool
	ImportRepo    imports.Repo
	ProgramRepo   programs.Repo
	ImportService *imports.Service
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := BuildService(cfg, sqlDB, store, nil)
	if err != nil {
		return nil, err
	}

	pool, err := queue.NewPool(cfg.ImportWorkers, svc.HandleMessage)
	if err != nil {
		return nil, fmt.Errorf("start import workers: %w", err)
	}
	svc.Queue = pool
	if n, err := svc.Requeue(ctx); err != nil {
		telemetry.Warn("bootstrap.requeue", map[string]any{"error": err, "requeued": n})
	} else if n > 0 {
		telemetry.Info("bootstrap.requeue", map[string]any{"requeued": n})
	}

	app := &App{
		Config:        cfg,
		DB:            sqlDB,
		Store:         store,
		Pool:          pool,
		ImportRepo:    svc.Repo,
		ProgramRepo:   svc.Programs,
		ImportService: svc,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		ImportHandler:  imports.NewHandler(svc),
		ProgramHandler: programs.NewHandler(svc.Programs),
		Health:         health.NewService(pingerOf(sqlDB)),
	})
	return app, nil
}

// Close drains the worker pool and closes the database.
func (a *App) Close() {
	if a.Pool != nil {
		if err := a.Pool.Close(shutdownTimeout); err != nil {
			telemetry.Warn("bootstrap.pool_close", map[string]any{"error": err})
		}
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

// BuildService wires the import pipeline. A nil db selects in-memory
// repositories and the in-memory applier, a nil tok selects BuildTokenizer.
// Queue is left nil so callers can run jobs inline.
func BuildService(cfg config.Config, sqlDB *sql.DB, store object.ObjectStore, tok chunker.Tokenizer) (*imports.Service, error) {
	completer, err := BuildCompleter(cfg.LLM)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		tok = BuildTokenizer()
	}

	svc := &imports.Service{
		Store:      store,
		Chunker:    chunker.New(tok, chunkerConfig(cfg.Chunking)),
		Analyzer:   analyzer.New(completer, analyzer.Options{MaxAttempts: cfg.LLM.MaxAttempts}),
		ImportRoot: cfg.ImportRoot,
	}
	if sqlDB != nil {
		svc.Repo = &imports.PGRepo{DB: sqlDB}
		svc.Programs = &programs.PGRepo{DB: sqlDB}
		svc.Applier = applier.New(sqlDB)
	} else {
		memPrograms := programs.NewMemoryRepo()
		svc.Repo = imports.NewMemoryRepo()
		svc.Programs = memPrograms
		svc.Applier = applier.NewMemory(memPrograms)
	}
	return svc, nil
}

// BuildCompleter returns the Anthropic client, or the placeholder when no key
// is configured.
func BuildCompleter(cfg config.LLMConfig) (llm.Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"reason": "no api key configured"})
		return llm.PlaceholderClient{}, nil
	}
	client, err := anthropic.NewClient(anthropic.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// BuildTokenizer prefers cl100k_base and falls back to word counts when the
// encoding cannot be loaded.
func BuildTokenizer() chunker.Tokenizer {
	tok, err := chunker.NewTiktoken()
	if err != nil {
		telemetry.Warn("bootstrap.tokenizer_fallback", map[string]any{"error": err})
		return chunker.WordTokenizer{}
	}
	return tok
}

func chunkerConfig(c config.ChunkingConfig) chunker.Config {
	return chunker.Config{
		SinglePassLimit:      c.SinglePassLimit,
		MultiPassThreshold:   c.MultiPassThreshold,
		SectionChunkTokens:   c.SectionChunkTokens,
		MultiPassChunkTokens: c.MultiPassChunkTokens,
	}
}

// OpenDB connects and migrates the configured database. Dev-like envs fall
// back to nil, meaning in-memory repositories.
func OpenDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory", map[string]any{"reason": "database connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

// OpenStore returns the configured object store.
func OpenStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// pingerOf keeps a nil *sql.DB from becoming a non-nil interface.
func pingerOf(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
