package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/services"
	"skyroute-backend/pkg/logger"
	"skyroute-backend/pkg/utils"
)

// EntryAPI is the part of services.EntryService the handlers use.
type EntryAPI interface {
	Create(ctx context.Context, sess *auth.Session, req *models.CreateEntryRequest) (*models.CreateEntryResult, error)
	List(ctx context.Context, sess *auth.Session, f models.EntryFilter) ([]*models.Entry, error)
	Get(ctx context.Context, sess *auth.Session, id int64) (*models.Entry, error)
	Delete(ctx context.Context, sess *auth.Session, id int64) (bool, error)
}

type SheetAPI interface {
	RenderPDF(d services.SheetData) ([]byte, error)
	Archive(ctx context.Context, sess *auth.Session, e *models.Entry) (*models.SheetArchiveResult, error)
}

type ExportAPI interface {
	ExportXLSX(ctx context.Context, sess *auth.Session, f models.EntryFilter) ([]byte, error)
}

type EntryHandler struct {
	Entries EntryAPI
	Sheets  SheetAPI
	Export  ExportAPI
	log     logger.Logger
}

func NewEntryHandler(entries EntryAPI, sheets SheetAPI, export ExportAPI, log logger.Logger) *EntryHandler {
	return &EntryHandler{Entries: entries, Sheets: sheets, Export: export, log: log}
}

func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, _ := auth.SessionFromContext(r.Context())
	res, err := h.Entries.Create(r.Context(), sess, &req)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, res)
}

func filterFromQuery(r *http.Request) models.EntryFilter {
	q := r.URL.Query()
	f := models.EntryFilter{
		Type:   q.Get("type"),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = n
	}
	return f
}

func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	entries, err := h.Entries.List(r.Context(), sess, filterFromQuery(r))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	// Ensure we return empty array instead of null
	if entries == nil {
		entries = []*models.Entry{}
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, e)
}

// DeleteEntry handles DELETE /api/entries?id=<int>.
func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		utils.Error(w, http.StatusBadRequest, "ID required")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	sess, _ := auth.SessionFromContext(r.Context())
	deleted, err := h.Entries.Delete(r.Context(), sess, id)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]bool{"success": true, "deleted": deleted})
}

func (h *EntryHandler) SheetPDF(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	pdf, err := h.Sheets.RenderPDF(services.SheetFromEntry(e))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="in-bond-%s.pdf"`, e.C209Number))
	w.Write(pdf)
}

func (h *EntryHandler) ArchiveSheet(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	sess, _ := auth.SessionFromContext(r.Context())
	res, err := h.Sheets.Archive(r.Context(), sess, e)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	utils.JSON(w, http.StatusCreated, res)
}

func (h *EntryHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	data, err := h.Export.ExportXLSX(r.Context(), sess, filterFromQuery(r))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="skyroute-entries.xlsx"`)
	w.Write(data)
}

// loadEntry resolves the {id} route variable, writing the error response itself.
func (h *EntryHandler) loadEntry(w http.ResponseWriter, r *http.Request) (*models.Entry, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid ID")
		return nil, false
	}

	sess, _ := auth.SessionFromContext(r.Context())
	e, err := h.Entries.Get(r.Context(), sess, id)
	if err != nil {
		writeError(w, h.log, r, err)
		return nil, false
	}
	return e, true
}
