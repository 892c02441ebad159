package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "careercoach-backend/internal/auth"
	"careercoach-backend/internal/content"
	"careercoach-backend/internal/credits"
	"careercoach-backend/internal/generation"
	"careercoach-backend/internal/insights"
	"careercoach-backend/internal/llm"
	"careercoach-backend/internal/llm/gemini"
	openai "careercoach-backend/internal/llm/openai"
	"careercoach-backend/internal/media"
	"careercoach-backend/internal/services/health"
	sharedauth "careercoach-backend/internal/shared/auth"
	"careercoach-backend/internal/shared/config"
	"careercoach-backend/internal/shared/server"
	"careercoach-backend/internal/shared/server/middleware"
	"careercoach-backend/internal/shared/storage/db"
	"careercoach-backend/internal/shared/storage/object"
	localstore "careercoach-backend/internal/shared/storage/object/local"
	miniostore "careercoach-backend/internal/shared/storage/object/minio"
	s3store "careercoach-backend/internal/shared/storage/object/s3"
	"careercoach-backend/internal/shared/telemetry"
	"careercoach-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Tokens            *sharedauth.Manager
	Limiter           middleware.Limiter
	Health            *health.Service
	UsersService      *users.Service
	Ledger            *credits.Ledger
	ContentService    *content.Service
	GenerationService *generation.Service
	InsightsService   *insights.Service
	UsersHandler      *users.Handler
	CreditsHandler    *credits.Handler
	ContentHandler    *content.Handler
	GenerationHandler *generation.Handler
	InsightsHandler   *insights.Handler
	GoogleAuth        *googleauth.GoogleService
	closers           []func() error
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
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

	tokens, err := sharedauth.NewManager(cfg.JWTSecret, cfg.Env)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Tokens: tokens,
		Health: health.NewService(),
	}
	if sqlDB != nil {
		app.Health.Register("database", health.CheckFunc(sqlDB.PingContext))
	}
	if pinger, ok := store.(health.Checker); ok {
		app.Health.Register("object_store", pinger)
	}

	if err := app.buildLimiter(); err != nil {
		return nil, err
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		Verifier:          app.Tokens,
		Users:             app.UsersService,
		Limiter:           app.Limiter,
		Health:            app.Health,
		GoogleAuth:        app.GoogleAuth,
		UsersHandler:      app.UsersHandler,
		CreditsHandler:    app.CreditsHandler,
		ContentHandler:    app.ContentHandler,
		GenerationHandler: app.GenerationHandler,
		InsightsHandler:   app.InsightsHandler,
	})

	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_mode", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFor(db.ProfileLambda)
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFor(db.ProfileServer)
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_mode", map[string]any{"reason": "database connect failed", "error": err.Error()})
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
		return s3store.New(ctx, s3store.Config{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
		})
	case "minio":
		return miniostore.New(ctx, miniostore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func (a *App) buildLimiter() error {
	if strings.TrimSpace(a.Config.RateLimitRedisAddr) == "" {
		a.Limiter = middleware.NewRateLimiter(nil)
		return nil
	}
	limiter, err := middleware.NewRedisRateLimiter(a.Config.RateLimitRedisAddr, "", "")
	if err != nil {
		return err
	}
	a.Limiter = limiter
	a.Health.Register("ratelimit_redis", limiter)
	a.closers = append(a.closers, limiter.Close)
	return nil
}

// BuildCompleter returns the configured LLM client wrapped with one retry.
// Without credentials a client that always fails is returned in dev.
func BuildCompleter(cfg config.Config) (llm.Completer, error) {
	var (
		base llm.Completer
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "openai":
		base, err = openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
			System:  insights.SystemPrompt,
		})
	case "", "gemini":
		base, err = gemini.NewClient(gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.LLMModel, Timeout: cfg.LLMTimeout})
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if err != nil {
		if !cfg.IsDevLike() {
			return nil, err
		}
		telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": cfg.LLMProvider, "error": err.Error()})
		return llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("llm provider not configured")
		}), nil
	}
	return llm.WithRetry(base, 0), nil
}

func mediaConfig(cfg config.Config) media.Config {
	return media.Config{
		HuggingFaceToken:  cfg.HuggingFaceToken,
		HFBaseURL:         cfg.HFBaseURL,
		PrimaryModel:      cfg.ImagePrimaryModel,
		BackupModel:       cfg.ImageBackupModel,
		ImageTimeout:      cfg.ImageTimeout,
		VideoAPIKey:       cfg.VideoAPIKey,
		VideoBaseURL:      cfg.VideoBaseURL,
		VideoModel:        cfg.VideoModel,
		VideoAspectRatio:  cfg.VideoAspectRatio,
		VideoPollInterval: cfg.VideoPollInterval,
		VideoMaxWait:      cfg.VideoMaxWait,
	}
}

func buildServices(app *App) error {
	completer, err := BuildCompleter(app.Config)
	if err != nil {
		return err
	}

	var (
		userRepo     users.Repo
		contentRepo  content.Repo
		insightsRepo insights.Repo
		creditStore  credits.Store
		genStore     generation.Store
	)
	if app.DB != nil {
		pgContent := &content.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
		contentRepo = pgContent
		insightsRepo = &insights.PGRepo{DB: app.DB}
		creditStore = credits.NewPGStore(app.DB)
		genStore = generation.NewPGStore(app.DB, pgContent)
	} else {
		memUsers := users.NewMemoryRepo()
		memContent := content.NewMemoryRepo()
		userRepo = memUsers
		contentRepo = memContent
		insightsRepo = insights.NewMemoryRepo()
		creditStore = credits.NewMemoryStore(memUsers)
		genStore = generation.NewMemoryStore(memUsers, memContent)
	}

	userSvc := users.NewService(userRepo, app.Config.DefaultCredits)
	insightsSvc := insights.NewService(insightsRepo, completer, industryLookup{users: userSvc}, insights.Config{
		SweepGrace: app.Config.InsightsSweepGrace,
	})
	userSvc.Insights = insightsEnsurer{svc: insightsSvc}

	var archive object.ObjectStore
	if app.Config.ArchiveGenerated {
		archive = app.Store
	}
	contentSvc := content.NewService(contentRepo, app.Store)
	generationSvc := generation.NewService(genStore, media.New(mediaConfig(app.Config)), archive)
	ledger := credits.NewLedger(creditStore, app.Config.CreditBundles)

	app.UsersService = userSvc
	app.InsightsService = insightsSvc
	app.ContentService = contentSvc
	app.GenerationService = generationSvc
	app.Ledger = ledger
	app.UsersHandler = users.NewHandler(userSvc)
	app.CreditsHandler = credits.NewHandler(ledger)
	app.ContentHandler = content.NewHandler(contentSvc)
	app.GenerationHandler = generation.NewHandler(generationSvc)
	app.InsightsHandler = insights.NewHandler(insightsSvc)
	app.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleConfig{
		ClientID:     app.Config.GoogleClientID,
		ClientSecret: app.Config.GoogleClientSecret,
		RedirectURL:  app.Config.GoogleRedirectURL,
		UIRedirect:   app.Config.UIRedirectURL,
		StateSecret:  stateSecret(app.Config),
		SecureCookie: !app.Config.IsDevLike(),
	}, app.Tokens, userSvc)

	return nil
}

// stateSecret keeps login state signing separate from session tokens.
func stateSecret(cfg config.Config) string {
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		return secret + ":oauth-state"
	}
	if cfg.IsDevLike() {
		return "dev-oauth-state"
	}
	return ""
}

type industryLookup struct {
	users *users.Service
}

func (l industryLookup) Industry(ctx context.Context, userID string) (string, error) {
	industry, err := l.users.Industry(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return "", insights.ErrNotFound
	}
	return industry, err
}

type insightsEnsurer struct {
	svc *insights.Service
}

func (e insightsEnsurer) Ensure(ctx context.Context, industry string) error {
	_, err := e.svc.Ensure(ctx, industry)
	return err
}
