package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storytime/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	AI        AIConfig
	Adventure AdventureConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Seed      SeedConfig
	Models    *ModelsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `env:"SERVER_PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	WebDir         string   `env:"WEB_DIR"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"postgres"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"storytime"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// AIConfig holds the generation provider configuration
type AIConfig struct {
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	BaseURL            string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	TextModel          string        `env:"OPENAI_TEXT_MODEL" envDefault:"gpt-4.1"`
	ImageModel         string        `env:"OPENAI_IMAGE_MODEL" envDefault:"dall-e-3"`
	ImageSize          string        `env:"OPENAI_IMAGE_SIZE" envDefault:"1024x1024"`
	TranscriptionModel string        `env:"OPENAI_TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
	VideoModel         string        `env:"OPENAI_VIDEO_MODEL" envDefault:"sora-2"`
	VideoPollInterval  time.Duration `env:"VIDEO_POLL_INTERVAL" envDefault:"2s"`
	RequestTimeout     time.Duration `env:"OPENAI_REQUEST_TIMEOUT" envDefault:"5m"`
}

// AdventureConfig controls narrative progression
type AdventureConfig struct {
	StorySegments int `env:"ADVENTURE_STORY_SEGMENTS" envDefault:"5"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       []byte
	TokenExpiration time.Duration `env:"JWT_TOKEN_EXPIRATION" envDefault:"24h"`
}

// StorageConfig selects where generated media is stored
type StorageConfig struct {
	Driver        string `env:"STORAGE_DRIVER" envDefault:"local"`
	LocalDir      string `env:"STORAGE_LOCAL_DIR" envDefault:"data/media"`
	PublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL" envDefault:"http://localhost:8080/media"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKey     string `env:"AWS_ACCESS_KEY"`
	SecretKey     string `env:"AWS_SECRET_KEY"`
}

// SeedConfig controls the demo account created at startup
type SeedConfig struct {
	DemoUser     bool   `env:"SEED_DEMO_USER" envDefault:"true"`
	DemoUsername string `env:"SEED_DEMO_USERNAME" envDefault:"demo"`
	DemoPassword string `env:"SEED_DEMO_PASSWORD" envDefault:"demo123"`
}

// LoadConfig loads and validates application configuration from environment.
// A .env file in the working directory is applied first when present.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Log.WithError(err).Warn("Could not load .env file")
	}

	config := &AppConfig{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if config.AI.OpenAIAPIKey == "" {
		logger.Log.Warn("OPENAI_API_KEY environment variable not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be set")
	}
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters (current length: %d)", len(jwtSecret))
	}
	config.Auth.JWTSecret = []byte(jwtSecret)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	modelsConfigPath := os.Getenv("MODELS_CONFIG_PATH")
	if modelsConfigPath == "" {
		modelsConfigPath = filepath.Join("config", "models.json")
	}
	modelsConfig, err := NewModelsConfig(modelsConfigPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load models config: %w", err)
		}
		logger.Log.WithFields(logrus.Fields{"path": modelsConfigPath, "model": config.AI.TextModel}).Info("Models config not found, using default text model")
		modelsConfig = DefaultModelsConfig(config.AI.TextModel)
	}
	config.Models = modelsConfig

	return config, nil
}

// Validate checks the cross-field constraints that struct tags cannot express
func (c *AppConfig) Validate() error {
	if c.Adventure.StorySegments < 5 || c.Adventure.StorySegments > 7 {
		return fmt.Errorf("ADVENTURE_STORY_SEGMENTS must be between 5 and 7, got %d", c.Adventure.StorySegments)
	}

	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	switch c.Storage.Driver {
	case StorageDriverLocal:
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR must be set for the local storage driver")
		}
	case StorageDriverS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET must be set for the s3 storage driver")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of: local, s3; got %s", c.Storage.Driver)
	}

	if c.AI.VideoPollInterval <= 0 {
		return fmt.Errorf("VIDEO_POLL_INTERVAL must be positive")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
