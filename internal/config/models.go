package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// fallbackModel is used when the catalog is empty.
const fallbackModel = "gpt-4o-mini"

// Model represents an available LLM model
type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Tier     string `json:"tier,omitempty"`
}

// ModelsConfig holds the catalog of models a chat request may select
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
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	if err := checkCatalog(models); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	return &ModelsConfig{models: models}, nil
}

// checkCatalog rejects empty catalogs and entries a chat request could not
// select unambiguously.
func checkCatalog(models []Model) error {
	if len(models) == 0 {
		return fmt.Errorf("catalog lists no models")
	}
	seen := make(map[string]bool, len(models))
	for i, model := range models {
		switch {
		case strings.TrimSpace(model.ID) == "":
			return fmt.Errorf("model %d has no id", i)
		case seen[model.ID]:
			return fmt.Errorf("model %q is listed twice", model.ID)
		}
		seen[model.ID] = true
	}
	return nil
}

// NewModelsConfigFromList builds a catalog from an in-memory list.
func NewModelsConfigFromList(models []Model) *ModelsConfig {
	return &ModelsConfig{models: models}
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
	if len(mc.models) > 0 && mc.models[0].ID != "" {
		return mc.models[0].ID
	}
	return fallbackModel
}
