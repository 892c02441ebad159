package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"careercoach-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	LogLevel        string
	LogFormat       string
	DatabaseURL     string

	ObjectStoreType  string
	LocalStoreDir    string
	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	SSEKMSKeyID      string
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioBucket      string
	MinioUseSSL      bool
	ArchiveGenerated bool

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	DefaultCredits int
	CreditBundles  []int

	HuggingFaceToken  string
	HFBaseURL         string
	ImagePrimaryModel string
	ImageBackupModel  string
	ImageTimeout      time.Duration

	VideoAPIKey       string
	VideoBaseURL      string
	VideoModel        string
	VideoAspectRatio  string
	VideoPollInterval time.Duration
	VideoMaxWait      time.Duration

	LLMProvider  string
	LLMModel     string
	GeminiAPIKey string
	OpenAIAPIKey string
	LLMTimeout   time.Duration

	InsightsSchedule   string
	InsightsTimezone   string
	InsightsSweepGrace time.Duration

	RedisURL           string
	RateLimitRedisAddr string
}

// Load reads configuration from an optional YAML file and environment variables.
// Environment variables win over file values.
func Load() Config {
	if keys := loadEnvFiles(".env", "cmd/.env"); len(keys) > 0 {
		telemetry.Info("config.dotenv.loaded", map[string]any{"keys": len(keys)})
	}

	fc, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		telemetry.Warn("config.file.ignored", map[string]any{"error": err})
	}

	env := normalizeEnv(getEnv("ENV", fc.Env))
	dbURL := getEnv("DATABASE_URL", fc.DatabaseURL)

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url.missing", map[string]any{"env": env})
	}

	return Config{
		Port:            getEnv("PORT", or(fc.Port, "8080")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", or(strings.Join(fc.CORSAllowOrigins, ","), "http://localhost:3000"))),
		Env:             env,
		LogLevel:        getEnv("LOG_LEVEL", or(fc.LogLevel, "info")),
		LogFormat:       getEnv("LOG_FORMAT", or(fc.LogFormat, "json")),
		DatabaseURL:     dbURL,

		ObjectStoreType:  normalizeStoreType(getEnv("OBJECT_STORE", or(fc.ObjectStore, "local"))),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", or(fc.LocalStoreDir, "./data")),
		AWSRegion:        getEnv("AWS_REGION", fc.AWSRegion),
		S3Bucket:         getEnv("S3_BUCKET", fc.S3Bucket),
		S3Prefix:         getEnv("S3_PREFIX", fc.S3Prefix),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", ""),
		MinioEndpoint:    getEnv("MINIO_ENDPOINT", fc.MinioEndpoint),
		MinioAccessKey:   getEnv("MINIO_ACCESS_KEY", fc.MinioAccessKey),
		MinioSecretKey:   getEnv("MINIO_SECRET_KEY", fc.MinioSecretKey),
		MinioBucket:      getEnv("MINIO_BUCKET", fc.MinioBucket),
		MinioUseSSL:      getEnvBool("MINIO_USE_SSL", fc.MinioUseSSL),
		ArchiveGenerated: getEnvBool("ARCHIVE_GENERATED", fc.ArchiveGenerated),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", fc.GoogleRedirectURL),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", fc.UIRedirectURL),

		DefaultCredits: getEnvInt("DEFAULT_CREDITS", fc.DefaultCredits),
		CreditBundles:  parseBundles(getEnv("CREDIT_BUNDLES", or(joinInts(fc.CreditBundles), "10,50"))),

		HuggingFaceToken:  getEnv("HUGGING_FACE_TOKEN", ""),
		HFBaseURL:         getEnv("HF_BASE_URL", or(fc.HFBaseURL, "https://router.huggingface.co/hf-inference/models")),
		ImagePrimaryModel: getEnv("IMAGE_PRIMARY_MODEL", or(fc.ImagePrimaryModel, "stabilityai/stable-diffusion-xl-base-1.0")),
		ImageBackupModel:  getEnv("IMAGE_BACKUP_MODEL", or(fc.ImageBackupModel, "runwayml/stable-diffusion-v1-5")),
		ImageTimeout:      getEnvDuration("IMAGE_TIMEOUT", or(fc.ImageTimeout, "60s")),

		VideoAPIKey:       getEnv("VIDEO_API_KEY", ""),
		VideoBaseURL:      getEnv("VIDEO_BASE_URL", or(fc.VideoBaseURL, "https://api.lumalabs.ai/dream-machine/v1")),
		VideoModel:        getEnv("VIDEO_MODEL", or(fc.VideoModel, "ray-2")),
		VideoAspectRatio:  getEnv("VIDEO_ASPECT_RATIO", or(fc.VideoAspectRatio, "16:9")),
		VideoPollInterval: getEnvDuration("VIDEO_POLL_INTERVAL", or(fc.VideoPollInterval, "5s")),
		VideoMaxWait:      getEnvDuration("VIDEO_MAX_WAIT", or(fc.VideoMaxWait, "5m")),

		LLMProvider:  normalizeLLMProvider(getEnv("LLM_PROVIDER", or(fc.LLMProvider, "gemini"))),
		LLMModel:     getEnv("LLM_MODEL", fc.LLMModel),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		LLMTimeout:   getEnvDuration("LLM_TIMEOUT", or(fc.LLMTimeout, "60s")),

		InsightsSchedule:   getEnv("INSIGHTS_SCHEDULE", or(fc.InsightsSchedule, "0 0 * * 0")),
		InsightsTimezone:   getEnv("INSIGHTS_TIMEZONE", or(fc.InsightsTimezone, "UTC")),
		InsightsSweepGrace: getEnvDuration("INSIGHTS_SWEEP_GRACE", or(fc.InsightsSweepGrace, "1h")),

		RedisURL:           getEnv("REDIS_URL", fc.RedisURL),
		RateLimitRedisAddr: getEnv("RATE_LIMIT_REDIS_ADDR", fc.RateLimitRedisAddr),
	}
}

// IsDevLike reports whether the environment allows dev-only conveniences.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "error": err})
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		telemetry.Warn("config.invalid_bool", map[string]any{"key": key, "error": err})
		return def
	}
	return val
}

func getEnvDuration(key, def string) time.Duration {
	raw := getEnv(key, def)
	val, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		telemetry.Warn("config.invalid_duration", map[string]any{"key": key, "value": raw, "error": err})
		fallback, _ := time.ParseDuration(def)
		return fallback
	}
	return val
}

func or(val, def string) string {
	if strings.TrimSpace(val) != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBundles(raw string) []int {
	var out []int
	for _, p := range splitAndTrim(raw) {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			telemetry.Warn("config.invalid_bundle", map[string]any{"value": p})
			continue
		}
		out = append(out, n)
	}
	return out
}

func joinInts(vals []int) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ",")
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeLLMProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "gemini"
	}
}
