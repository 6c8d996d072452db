package handlers

import (
	"context"
	"net/http"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/models"
	"skyroute-backend/pkg/logger"
	"skyroute-backend/pkg/utils"
)

type DashboardAPI interface {
	Get(ctx context.Context, sess *auth.Session) (*models.Dashboard, error)
}

type DashboardHandler struct {
	Service DashboardAPI
	log     logger.Logger
}

func NewDashboardHandler(s DashboardAPI, log logger.Logger) *DashboardHandler {
	return &DashboardHandler{Service: s, log: log}
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	d, err := h.Service.Get(r.Context(), sess)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if d.Entries == nil {
		d.Entries = []*models.Entry{}
	}
	utils.JSON(w, http.StatusOK, d)
}
