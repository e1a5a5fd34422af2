package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	SRS        SRSConfig        `yaml:"srs"`
	Quiz       QuizConfig       `yaml:"quiz"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	GenAI      GenAIConfig      `yaml:"genai"`
	Auth       AuthConfig       `yaml:"auth"`
	Audio      AudioConfig      `yaml:"audio"`
	Email      EmailConfig      `yaml:"email"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	StaticFilesPath string        `yaml:"static_path"      env:"STATIC_PATH"             env-default:"./static"`
}

// DatabaseConfig selects the SQL dialect and its connection target
type DatabaseConfig struct {
	Type string `yaml:"type" env:"DATABASE_TYPE" env-default:"sqlite"`
	Path string `yaml:"path" env:"DB_PATH"       env-default:"./ieltsreader.db"`
	URL  string `yaml:"url"  env:"DATABASE_URL"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// SRSConfig holds the Leitner interval table, in days, indexed by box
type SRSConfig struct {
	IntervalsRaw string `yaml:"intervals" env:"SRS_INTERVALS" env-default:"0,1,3,7,14,30"`

	// Intervals is parsed from IntervalsRaw during validation.
	Intervals []int `yaml:"-" env:"-"`
}

// QuizConfig holds quiz session settings
type QuizConfig struct {
	AutoAdvance time.Duration `yaml:"auto_advance" env:"QUIZ_AUTO_ADVANCE" env-default:"2s"`
	// Seed fixes the shuffle order when non-zero.
	Seed uint64 `yaml:"seed" env:"QUIZ_SEED" env-default:"0"`
}

// DictionaryConfig points at an optional extra dictionary merged over the built-in one
type DictionaryConfig struct {
	Path string `yaml:"path" env:"DICTIONARY_PATH"`
}

// GenAIConfig configures the generative-language backend behind /api/assist
type GenAIConfig struct {
	APIKey    string        `yaml:"api_key"    env:"GENAI_API_KEY"`
	Model     string        `yaml:"model"      env:"GENAI_MODEL"      env-default:"claude-3-5-haiku-latest"`
	BaseURL   string        `yaml:"base_url"   env:"GENAI_BASE_URL"`
	Timeout   time.Duration `yaml:"timeout"    env:"GENAI_TIMEOUT"    env-default:"30s"`
	MaxTokens int64         `yaml:"max_tokens" env:"GENAI_MAX_TOKENS" env-default:"1024"`
	RateLimit int           `yaml:"rate_limit" env:"GENAI_RATE_LIMIT" env-default:"20"`
}

// AuthConfig configures the optional single-learner access gate.
// The gate is disabled when PasswordHash is empty.
type AuthConfig struct {
	PasswordHash    string        `yaml:"password_hash"    env:"AUTH_PASSWORD_HASH"`
	TokenSecret     string        `yaml:"token_secret"     env:"AUTH_TOKEN_SECRET"     env-default:"change-me-in-production-please-32b"`
	SessionDuration time.Duration `yaml:"session_duration" env:"AUTH_SESSION_DURATION" env-default:"720h"`
}

// AudioConfig configures pronunciation audio generation
type AudioConfig struct {
	Dir string `yaml:"dir" env:"AUDIO_DIR" env-default:"./static/audio"`
	// CloudTTS switches from the free translate endpoint to Google Cloud TTS
	// using application default credentials.
	CloudTTS bool   `yaml:"cloud_tts" env:"AUDIO_CLOUD_TTS" env-default:"false"`
	Voice    string `yaml:"voice"     env:"AUDIO_VOICE"     env-default:"en-GB"`
}

// EmailConfig configures the due-word reminder digest sent through SES
type EmailConfig struct {
	AWSRegion  string        `yaml:"aws_region"  env:"AWS_REGION"        env-default:"eu-west-1"`
	FromEmail  string        `yaml:"from_email"  env:"SES_FROM_EMAIL"`
	FromName   string        `yaml:"from_name"   env:"SES_FROM_NAME"     env-default:"IELTS Reader"`
	ToEmail    string        `yaml:"to_email"    env:"REMINDER_EMAIL_TO"`
	AppBaseURL string        `yaml:"app_base_url" env:"APP_BASE_URL"     env-default:"http://localhost:8080"`
	Interval   time.Duration `yaml:"interval"    env:"REMINDER_INTERVAL" env-default:"24h"`
	Debug      bool          `yaml:"debug"       env:"EMAIL_DEBUG"       env-default:"false"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. The YAML file path is CONFIG_PATH
// (fallback "./config.yaml"); a missing default file is not an error.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// AuthEnabled reports whether the access gate is configured
func (c *Config) AuthEnabled() bool {
	return c.Auth.PasswordHash != ""
}

// GenAIEnabled reports whether the generative backend has credentials
func (c *Config) GenAIEnabled() bool {
	return c.GenAI.APIKey != ""
}

// EmailEnabled reports whether reminder emails can be sent
func (c *Config) EmailEnabled() bool {
	return c.Email.FromEmail != "" && c.Email.ToEmail != ""
}
