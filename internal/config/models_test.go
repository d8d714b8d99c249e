package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewModelsConfig_ValidConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "models.json")

	validJSON := `[
		{
			"id": "openai/gpt-4o-mini",
			"name": "GPT-4o mini",
			"provider": "OpenAI",
			"tier": "paid"
		},
		{
			"id": "meta-llama/llama-3.3-70b-instruct",
			"name": "Llama 3.3 70B Instruct",
			"provider": "Meta"
		}
	]`

	if err := os.WriteFile(configPath, []byte(validJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	config, err := NewModelsConfig(configPath)
	if err != nil {
		t.Fatalf("NewModelsConfig() error = %v, want nil", err)
	}

	models := config.GetAvailableModels()
	if len(models) != 2 {
		t.Fatalf("GetAvailableModels() returned %d models, want 2", len(models))
	}
	if models[1].Tier != "" {
		t.Errorf("models[1].Tier = %q, want empty", models[1].Tier)
	}
	if got := config.GetDefaultModel(); got != "openai/gpt-4o-mini" {
		t.Errorf("GetDefaultModel() = %s, want openai/gpt-4o-mini", got)
	}
}

func TestNewModelsConfig_FileNotFound(t *testing.T) {
	config, err := NewModelsConfig("/nonexistent/path/models.json")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("NewModelsConfig() error = %v, want os.ErrNotExist", err)
	}
	if config != nil {
		t.Error("NewModelsConfig() returned non-nil config for nonexistent file")
	}
}

func TestNewModelsConfig_InvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte(`{ this is not valid json }`), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	config, err := NewModelsConfig(configPath)
	if err == nil {
		t.Error("NewModelsConfig() error = nil, want error for invalid JSON")
	}
	if config != nil {
		t.Error("NewModelsConfig() returned non-nil config for invalid JSON")
	}
}

func TestModelsConfig_IsValidModel(t *testing.T) {
	config := NewModelsConfigFromList([]Model{
		{ID: "openai/gpt-4o-mini", Name: "GPT-4o mini", Provider: "OpenAI"},
		{ID: "openai/gpt-4o", Name: "GPT-4o", Provider: "OpenAI"},
	})

	tests := []struct {
		name    string
		modelID string
		want    bool
	}{
		{name: "first model", modelID: "openai/gpt-4o-mini", want: true},
		{name: "second model", modelID: "openai/gpt-4o", want: true},
		{name: "unknown model", modelID: "anthropic/claude", want: false},
		{name: "prefix only", modelID: "openai", want: false},
		{name: "empty id", modelID: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := config.IsValidModel(tt.modelID); got != tt.want {
				t.Errorf("IsValidModel(%q) = %v, want %v", tt.modelID, got, tt.want)
			}
		})
	}
}

func TestModelsConfig_GetDefaultModel(t *testing.T) {
	tests := []struct {
		name   string
		models []Model
		want   string
	}{
		{
			name:   "first model wins",
			models: []Model{{ID: "a"}, {ID: "b"}},
			want:   "a",
		},
		{
			name:   "empty catalog falls back",
			models: nil,
			want:   fallbackModel,
		},
		{
			name:   "blank id falls back",
			models: []Model{{Name: "nameless"}},
			want:   fallbackModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewModelsConfigFromList(tt.models).GetDefaultModel()
			if got != tt.want {
				t.Errorf("GetDefaultModel() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewModelsConfig_RejectsBadCatalog(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{name: "empty list", json: `[]`, wantErr: "no models"},
		{name: "missing id", json: `[{"id":"a"},{"name":"nameless"}]`, wantErr: "model 1 has no id"},
		{name: "duplicate id", json: `[{"id":"a"},{"id":"a"}]`, wantErr: `"a" is listed twice`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "models.json")
			if err := os.WriteFile(configPath, []byte(tt.json), 0644); err != nil {
				t.Fatalf("Failed to write test config file: %v", err)
			}

			config, err := NewModelsConfig(configPath)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewModelsConfig() error = %v, want to contain %q", err, tt.wantErr)
			}
			if config != nil {
				t.Error("NewModelsConfig() returned non-nil config for a bad catalog")
			}
		})
	}
}
