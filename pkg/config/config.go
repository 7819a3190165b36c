package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	CORS      CORSConfig
	Log       LogConfig
	OpenAI    OpenAIConfig
	Documents DocumentsConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Register  RegisterConfig
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// OpenAIConfig gates the AI extraction strategy. An empty APIKey selects
// the regex fallback strategy at startup.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// DocumentsConfig locates the DOCX template and the external converter.
type DocumentsConfig struct {
	TemplatePath   string
	SofficeBin     string
	ConvertTimeout time.Duration
}

// StorageConfig controls where records and generated artifacts live.
type StorageConfig struct {
	DataDir string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the optional Redis response cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// RegisterConfig toggles the prescription register export endpoint.
type RegisterConfig struct {
	ExportEnabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.OpenAI = OpenAIConfig{
		APIKey:      v.GetString("OPENAI_API_KEY"),
		Model:       v.GetString("OPENAI_MODEL"),
		Timeout:     parseDuration(v.GetString("OPENAI_TIMEOUT"), 60*time.Second),
		MaxTokens:   v.GetInt("OPENAI_MAX_TOKENS"),
		Temperature: v.GetFloat64("OPENAI_TEMPERATURE"),
	}

	cfg.Documents = DocumentsConfig{
		TemplatePath:   v.GetString("TEMPLATE_PATH"),
		SofficeBin:     v.GetString("SOFFICE_BIN"),
		ConvertTimeout: parseDuration(v.GetString("CONVERT_TIMEOUT"), 30*time.Second),
	}

	cfg.Storage = StorageConfig{
		DataDir: v.GetString("DATA_DIR"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Register = RegisterConfig{
		ExportEnabled: v.GetBool("ENABLE_REGISTER_EXPORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4")
	v.SetDefault("OPENAI_TIMEOUT", "60s")
	v.SetDefault("OPENAI_MAX_TOKENS", 2000)
	v.SetDefault("OPENAI_TEMPERATURE", 0.1)

	v.SetDefault("TEMPLATE_PATH", "./templates/prescription_template.docx")
	v.SetDefault("SOFFICE_BIN", "soffice")
	v.SetDefault("CONVERT_TIMEOUT", "30s")

	v.SetDefault("DATA_DIR", "./data")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("ENABLE_REGISTER_EXPORT", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
