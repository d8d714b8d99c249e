package handlers

import (
	"context"
	"net/http"
	"time"

	"todo-app/internal/config"
	"todo-app/internal/logger"
)

const (
	serviceName    = "todo-api"
	serviceVersion = "2.0.0"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

type ModelsResponse struct {
	Models  []config.Model `json:"models"`
	Default string         `json:"default"`
}

// Health reports liveness. A failing database ping is reported but does
// not change the status code.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "ok"
	if err := h.config.DB.Ping(ctx); err != nil {
		logger.Log.WithError(err).Warn("Health check database ping failed")
		database = "unavailable"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Service:  serviceName,
		Version:  serviceVersion,
		Database: database,
	})
}

// Models lists the models a chat request may choose from
func (h *Handlers) Models(w http.ResponseWriter, r *http.Request) {
	models := h.config.ModelsConfig()
	available := models.GetAvailableModels()
	if available == nil {
		available = []config.Model{}
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Models: available, Default: models.GetDefaultModel()})
}
