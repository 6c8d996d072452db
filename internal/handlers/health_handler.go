package handlers

import (
	"context"
	"net/http"

	"skyroute-backend/internal/health"
	"skyroute-backend/pkg/utils"
)

type HealthAPI interface {
	CheckBasic(ctx context.Context) health.HealthStatus
	CheckDetailed(ctx context.Context) health.DetailedStatus
}

type HealthHandler struct {
	checker HealthAPI
}

func NewHealthHandler(checker HealthAPI) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// BasicHealth is the liveness probe; it never touches dependencies.
func (h *HealthHandler) BasicHealth(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessHealth fails when PostgreSQL is unreachable.
func (h *HealthHandler) ReadinessHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic(r.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}

func (h *HealthHandler) DetailedHealth(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.checker.CheckDetailed(r.Context()))
}
