package llm

import (
	"fmt"
	"net/http"

	"todo-app/internal/config"
	"todo-app/internal/logger"
)

// NewLLMProvider creates the provider selected by the LLM config
func NewLLMProvider(llmConfig *config.LLMConfig, modelsConfig *config.ModelsConfig) (LLMProvider, error) {
	httpClient := &http.Client{Timeout: llmConfig.RequestTimeout}

	switch llmConfig.Provider {
	case config.ProviderOpenRouter, "":
		logger.Log.Info("Creating OpenRouter provider")
		return NewOpenRouterProvider(llmConfig, modelsConfig, httpClient), nil
	case config.ProviderOpenAI:
		logger.Log.Info("Creating OpenAI provider")
		return NewOpenAIProvider(llmConfig, modelsConfig, httpClient), nil
	case config.ProviderLangChain:
		logger.Log.Info("Creating LangChain provider")
		return NewLangChainProvider(llmConfig, modelsConfig, httpClient)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", llmConfig.Provider)
	}
}
