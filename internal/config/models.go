package config

import (
	"encoding/json"
	"os"
)

// fallbackTextModel is used when neither the models file nor the environment names a model
const fallbackTextModel = "gpt-4.1"

// Model represents a text model a user may pick for story generation
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ModelsConfig holds the available text models
type ModelsConfig struct {
	models []Model
}

// NewModelsConfig creates a new models configuration from a file
func NewModelsConfig(configPath string) (*ModelsConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var models []Model
	err = json.Unmarshal(data, &models)
	if err != nil {
		return nil, err
	}

	return &ModelsConfig{models: models}, nil
}

// DefaultModelsConfig returns a configuration with a single model
func DefaultModelsConfig(modelID string) *ModelsConfig {
	if modelID == "" {
		modelID = fallbackTextModel
	}
	return &ModelsConfig{models: []Model{{ID: modelID, Name: modelID}}}
}

// GetAvailableModels returns the list of available models
func (mc *ModelsConfig) GetAvailableModels() []Model {
	return mc.models
}

// IsValidModel checks if a model ID is in the list of available models
func (mc *ModelsConfig) IsValidModel(modelID string) bool {
	for _, model := range mc.models {
		if model.ID == modelID {
			return true
		}
	}
	return false
}

// GetDefaultModel returns the first model as the default
func (mc *ModelsConfig) GetDefaultModel() string {
	if len(mc.models) > 0 {
		return mc.models[0].ID
	}
	return fallbackTextModel
}
