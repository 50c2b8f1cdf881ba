package app

import (
	"storytime/internal/auth"
	"storytime/internal/config"
	"storytime/internal/repository/db"
	"storytime/internal/service/ai"
	"storytime/internal/storage"
)

// Config holds all application dependencies and configuration
type Config struct {
	// Database interface for data persistence
	DB db.Database
	// Centralized application configuration
	AppConfig *config.AppConfig
	// Store receives generated images and videos
	Store storage.ObjectStore
	// Generation providers
	Text        ai.TextGenerator
	Images      ai.ImageGenerator
	Transcriber ai.Transcriber
	Video       ai.VideoGenerator
	// Tokens issues and validates session tokens
	Tokens *auth.TokenManager
}

// NewConfig creates a new application configuration
func NewConfig(database db.Database, appConfig *config.AppConfig) *Config {
	return &Config{
		DB:        database,
		AppConfig: appConfig,
		Tokens:    auth.NewTokenManager(appConfig.Auth.JWTSecret, appConfig.Auth.TokenExpiration),
	}
}

// WithStore sets the object store
func (c *Config) WithStore(store storage.ObjectStore) *Config {
	c.Store = store
	return c
}

// WithOpenAI wires every generation provider to the OpenAI compatible API
func (c *Config) WithOpenAI() *Config {
	client := ai.NewClient(c.AppConfig.AI)
	c.Text = client
	c.Images = client
	c.Transcriber = client
	c.Video = ai.NewVideoClient(c.AppConfig.AI)
	return c
}

// ModelsConfig returns the allowed text models
func (c *Config) ModelsConfig() *config.ModelsConfig {
	return c.AppConfig.Models
}
