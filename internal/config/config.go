package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Generator GeneratorConfig
	Storage   StorageConfig
	Jobs      JobsConfig
	Limits    LimitsConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type GeneratorConfig struct {
	OpenAIAPIKey string
	Model        string
	// MaxPromptChars bounds the source text passed to the model; longer
	// text is truncated before prompting.
	MaxPromptChars int
	MaxAttempts    int
}

type StorageConfig struct {
	DataDir    string
	OutputsDir string
}

// JobsConfig holds the job lifecycle knobs. JobTTL is a sliding expiry:
// every status write refreshes it. Callers polling a job should budget
// roughly the same duration, at a few seconds per poll, so a caller-visible
// timeout coincides with record expiry.
type JobsConfig struct {
	Workers    int
	QueueSize  int
	JobTTL     time.Duration
	SessionTTL time.Duration
	UploadTTL  time.Duration
	PopTimeout time.Duration
}

type LimitsConfig struct {
	MinQuestions   int
	MaxQuestions   int
	MinSourceWords int
	MaxUploadBytes int64
	JobsPerWindow  int
	JobsPerDay     int
	RateWindow     time.Duration
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Generator: GeneratorConfig{
			Model:          "gpt-4o",
			MaxPromptChars: 40000,
			MaxAttempts:    3,
		},
		Storage: StorageConfig{
			DataDir:    defaultDataDir(),
			OutputsDir: "outputs",
		},
		Jobs: JobsConfig{
			Workers:    3,
			QueueSize:  100,
			JobTTL:     10 * time.Minute,
			SessionTTL: 15 * time.Minute,
			UploadTTL:  72 * time.Hour,
			PopTimeout: 5 * time.Second,
		},
		Limits: LimitsConfig{
			MinQuestions:   3,
			MaxQuestions:   50,
			MinSourceWords: 50,
			MaxUploadBytes: 15 << 20,
			JobsPerWindow:  5,
			JobsPerDay:     50,
			RateWindow:     10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quizforge"
	}
	return filepath.Join(home, ".quizforge")
}

// Load reads configuration from defaults, an optional .env file in the
// working directory, and QUIZFORGE_* environment variables (which win).
// The OpenAI API key is required.
func Load() (Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Generator.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("missing required config: OpenAI API key. " +
			"Set QUIZFORGE_OPENAI_API_KEY in the environment or a .env file")
	}
	if cfg.Jobs.Workers < 1 {
		return Config{}, fmt.Errorf("invalid config: workers must be >= 1, got %d", cfg.Jobs.Workers)
	}
	if cfg.Limits.MinQuestions < 1 || cfg.Limits.MaxQuestions < cfg.Limits.MinQuestions {
		return Config{}, fmt.Errorf("invalid config: question bounds %d..%d",
			cfg.Limits.MinQuestions, cfg.Limits.MaxQuestions)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	setInt := func(env string, dst *int) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setInt64 := func(env string, dst *int64) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				*dst = n
			}
		}
	}
	setDuration := func(env string, dst *time.Duration) {
		if v := os.Getenv(env); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setInt("QUIZFORGE_SERVER_PORT", &cfg.Server.Port)
	setString("QUIZFORGE_OPENAI_API_KEY", &cfg.Generator.OpenAIAPIKey)
	setString("QUIZFORGE_OPENAI_MODEL", &cfg.Generator.Model)
	setInt("QUIZFORGE_MAX_PROMPT_CHARS", &cfg.Generator.MaxPromptChars)
	setInt("QUIZFORGE_GENERATION_ATTEMPTS", &cfg.Generator.MaxAttempts)
	setString("QUIZFORGE_DATA_DIR", &cfg.Storage.DataDir)
	setString("QUIZFORGE_OUTPUTS_DIR", &cfg.Storage.OutputsDir)
	setInt("QUIZFORGE_WORKERS", &cfg.Jobs.Workers)
	setInt("QUIZFORGE_QUEUE_SIZE", &cfg.Jobs.QueueSize)
	setDuration("QUIZFORGE_JOB_TTL", &cfg.Jobs.JobTTL)
	setDuration("QUIZFORGE_SESSION_TTL", &cfg.Jobs.SessionTTL)
	setDuration("QUIZFORGE_UPLOAD_TTL", &cfg.Jobs.UploadTTL)
	setDuration("QUIZFORGE_POP_TIMEOUT", &cfg.Jobs.PopTimeout)
	setInt("QUIZFORGE_MIN_QUESTIONS", &cfg.Limits.MinQuestions)
	setInt("QUIZFORGE_MAX_QUESTIONS", &cfg.Limits.MaxQuestions)
	setInt("QUIZFORGE_MIN_SOURCE_WORDS", &cfg.Limits.MinSourceWords)
	setInt64("QUIZFORGE_MAX_UPLOAD_BYTES", &cfg.Limits.MaxUploadBytes)
	setInt("QUIZFORGE_JOBS_PER_WINDOW", &cfg.Limits.JobsPerWindow)
	setInt("QUIZFORGE_JOBS_PER_DAY", &cfg.Limits.JobsPerDay)
	setDuration("QUIZFORGE_RATE_WINDOW", &cfg.Limits.RateWindow)
	setString("QUIZFORGE_LOG_LEVEL", &cfg.Log.Level)
}
