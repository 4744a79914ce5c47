package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"talent-pipeline/internal/errors"
)

type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Port        string `mapstructure:"PORT"`

	// Local cache folder for files awaiting text extraction
	UploadsDir        string `mapstructure:"UPLOADS_DIR"`
	AllowedExtensions string `mapstructure:"ALLOWED_EXTENSIONS"`

	// AI services
	ProcessingAPIURL        string        `mapstructure:"PROCESSING_API_URL"`
	MatchingAPIURL          string        `mapstructure:"MATCHING_API_URL"`
	LLMName                 string        `mapstructure:"LLM_NAME"`
	ProcessingTimeoutPerDoc time.Duration `mapstructure:"PROCESSING_TIMEOUT_PER_DOC"`
	MatchingTimeout         time.Duration `mapstructure:"MATCHING_TIMEOUT"`

	// Blob storage (MinIO / S3)
	MinioEndpoint  string        `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string        `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string        `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string        `mapstructure:"MINIO_BUCKET"`
	MinioSecure    bool          `mapstructure:"MINIO_SECURE"`
	MinioPublicURL string        `mapstructure:"MINIO_PUBLIC_URL"`
	StorageTimeout time.Duration `mapstructure:"STORAGE_TIMEOUT"`

	// Progress cache: "memory" or "redis"
	ProgressBackend string        `mapstructure:"PROGRESS_BACKEND"`
	ProgressTTL     time.Duration `mapstructure:"PROGRESS_TTL"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`

	// Background runner
	Workers   int `mapstructure:"WORKERS"`
	QueueSize int `mapstructure:"QUEUE_SIZE"`

	LogJSON  bool `mapstructure:"LOG_JSON"`
	LogDebug bool `mapstructure:"LOG_DEBUG"`
}

var defaults = map[string]any{
	"DATABASE_URL":               "",
	"PORT":                       "8080",
	"UPLOADS_DIR":                "./uploads",
	"ALLOWED_EXTENSIONS":         "pdf,docx",
	"PROCESSING_API_URL":         "",
	"MATCHING_API_URL":           "",
	"LLM_NAME":                   "gpt-4o-mini",
	"PROCESSING_TIMEOUT_PER_DOC": 120 * time.Second,
	"MATCHING_TIMEOUT":           60 * time.Second,
	"MINIO_ENDPOINT":             "localhost:9000",
	"MINIO_ACCESS_KEY":           "",
	"MINIO_SECRET_KEY":           "",
	"MINIO_BUCKET":               "talent-pipeline",
	"MINIO_SECURE":               false,
	"MINIO_PUBLIC_URL":           "",
	"STORAGE_TIMEOUT":            60 * time.Second,
	"PROGRESS_BACKEND":           "memory",
	"PROGRESS_TTL":               time.Hour,
	"REDIS_ADDR":                 "localhost:6379",
	"REDIS_PASSWORD":             "",
	"WORKERS":                    4,
	"QUEUE_SIZE":                 50,
	"LOG_JSON":                   false,
	"LOG_DEBUG":                  false,
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	// A missing .env is fine, the environment may carry everything.
	_ = godotenv.Load()

	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return &cfg, nil
}

// Validate reports settings the API server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.ProcessingAPIURL == "" {
		missing = append(missing, "PROCESSING_API_URL")
	}
	if c.MatchingAPIURL == "" {
		missing = append(missing, "MATCHING_API_URL")
	}
	if len(missing) > 0 {
		return errors.Validationf("missing required settings: %s", strings.Join(missing, ", "))
	}

	switch c.ProgressBackend {
	case "memory", "redis":
	default:
		return errors.Validationf("unknown PROGRESS_BACKEND %q", c.ProgressBackend)
	}
	if c.Workers < 1 {
		return errors.Validationf("WORKERS must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Extensions returns the allow-listed file extensions without dots, lower-cased.
func (c *Config) Extensions() []string {
	var out []string
	for _, ext := range strings.Split(c.AllowedExtensions, ",") {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}
