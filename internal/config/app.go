package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"todo-app/internal/logger"

	"github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderLangChain  = "langchain"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Auth     AuthConfig
	Models   *ModelsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	APIPrefix   string
	CORSOrigins []string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver     string
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	DefaultModel   string
	SystemPrompt   string
	Temperature    float64
	MaxToolRounds  int
	HistoryLimit   int
	RequestTimeout time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       []byte
	TokenExpiration time.Duration
}

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	config := &AppConfig{}

	config.Server = ServerConfig{
		Port:        getEnvOrDefault("SERVER_PORT", "8080"),
		APIPrefix:   normalizePrefix(getEnvOrDefault("API_PREFIX", "/api")),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
	}

	config.Database = DatabaseConfig{
		Driver:     getEnvOrDefault("DB_DRIVER", DriverPostgres),
		URL:        os.Getenv("DATABASE_URL"),
		Host:       getEnvOrDefault("DB_HOST", "postgres"),
		Port:       getEnvOrDefault("DB_PORT", "5432"),
		User:       getEnvOrDefault("DB_USER", "postgres"),
		Password:   getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:       getEnvOrDefault("DB_NAME", "todoapp"),
		SSLMode:    getEnvOrDefault("DB_SSLMODE", "disable"),
		SQLitePath: getEnvOrDefault("SQLITE_PATH", "todo.db"),
	}
	if config.Database.Driver != DriverPostgres && config.Database.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want %q or %q)", config.Database.Driver, DriverPostgres, DriverSQLite)
	}

	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}
	config.LLM = llmConfig

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be set")
	}
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters (current length: %d)", len(jwtSecret))
	}

	config.Auth = AuthConfig{
		JWTSecret:       []byte(jwtSecret),
		TokenExpiration: getEnvAsDuration("JWT_EXPIRATION", 7*24*time.Hour),
	}

	modelsConfig, err := loadModelsConfig(config.LLM)
	if err != nil {
		return nil, err
	}
	config.Models = modelsConfig

	return config, nil
}

func loadLLMConfig() (LLMConfig, error) {
	provider := getEnvOrDefault("LLM_PROVIDER", ProviderOpenRouter)
	switch provider {
	case ProviderOpenRouter, ProviderOpenAI, ProviderLangChain:
	default:
		return LLMConfig{}, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	apiKey := firstNonEmpty(os.Getenv("LLM_API_KEY"), os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENROUTER_API_KEY"))
	if apiKey == "" {
		logger.Log.Warn("No LLM API key set, chat requests will fail")
	}

	cfg := LLMConfig{
		Provider:       provider,
		APIKey:         apiKey,
		BaseURL:        os.Getenv("LLM_BASE_URL"),
		DefaultModel:   getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		SystemPrompt:   getEnvOrDefault("LLM_SYSTEM_PROMPT", DefaultSystemPrompt),
		Temperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.2),
		MaxToolRounds:  getEnvAsInt("LLM_MAX_TOOL_ROUNDS", 5),
		HistoryLimit:   getEnvAsInt("LLM_HISTORY_LIMIT", 20),
		RequestTimeout: getEnvAsDuration("LLM_REQUEST_TIMEOUT", 60*time.Second),
	}
	if cfg.MaxToolRounds < 1 {
		return LLMConfig{}, fmt.Errorf("LLM_MAX_TOOL_ROUNDS must be at least 1")
	}
	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = 0
	}
	return cfg, nil
}

// DefaultModelsConfigPath is the bundled catalog. Its IDs are OpenRouter
// model names, so it is only the default for the openrouter provider.
const DefaultModelsConfigPath = "config/models.json"

// loadModelsConfig reads MODELS_CONFIG_PATH. Without one, openrouter uses the
// bundled catalog and the other providers offer LLM_MODEL alone.
func loadModelsConfig(llmConfig LLMConfig) (*ModelsConfig, error) {
	path := os.Getenv("MODELS_CONFIG_PATH")
	if path == "" && llmConfig.Provider == ProviderOpenRouter {
		path = DefaultModelsConfigPath
	}

	single := NewModelsConfigFromList([]Model{{
		ID:       llmConfig.DefaultModel,
		Name:     llmConfig.DefaultModel,
		Provider: llmConfig.Provider,
	}})
	if path == "" {
		return single, nil
	}

	modelsConfig, err := NewModelsConfig(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Log.WithField("path", path).Info("Models config not found, using LLM_MODEL only")
		return single, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load models config: %w", err)
	}
	return modelsConfig, nil
}

// GetDSN returns the connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// DefaultSystemPrompt instructs the model how to use the task tools.
const DefaultSystemPrompt = `You are TaskAssistant, a helpful assistant that manages the user's todo list.

You can use these tools:
- add_task: create a new task with a title and an optional description
- list_tasks: show tasks, optionally filtered by status (all, pending, completed)
- complete_task: mark a task as completed by its ID
- delete_task: remove a task by its ID
- update_task: change the title or description of a task by its ID

Guidelines:
- When the user refers to a task by name, call list_tasks first to find its ID.
- Confirm every change in a short, friendly sentence that mentions the task title.
- If a tool reports an error, explain it plainly and suggest what the user can do.
- Never invent task IDs or pretend an action succeeded.`

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid duration value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
