package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skyroute-backend/internal/handlers"
	"skyroute-backend/internal/middleware"
	"skyroute-backend/pkg/logger"
)

func NewRouter(
	entryHandler *handlers.EntryHandler,
	authHandler *handlers.AuthHandler,
	dashboardHandler *handlers.DashboardHandler,
	pageHandler *handlers.PageHandler,
	healthHandler *handlers.HealthHandler,
	entryFeed http.Handler,
	sessions *middleware.SessionMiddleware,
	log logger.Logger,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log), middleware.PanicRecovery(log), middleware.MetricsMiddleware)

	page := func(h http.HandlerFunc) http.Handler {
		return sessions.RequirePage(h)
	}

	// Login page, forwards signed-in operators to the dashboard
	r.Handle("/", sessions.Optional(http.HandlerFunc(pageHandler.LoginPage))).Methods("GET")

	// Protected HTML pages
	r.Handle("/dashboard", page(pageHandler.DashboardPage)).Methods("GET")
	r.Handle("/ramp", page(pageHandler.RampPage)).Methods("GET")
	r.Handle("/logistic", page(pageHandler.LogisticPage)).Methods("GET")
	r.Handle("/entries", page(pageHandler.EntriesPage)).Methods("GET")
	r.Handle("/in-bond", page(pageHandler.InBondPage)).Methods("GET")

	// Session
	r.HandleFunc("/api/auth", authHandler.Login).Methods("POST")
	r.Handle("/api/auth", sessions.Optional(http.HandlerFunc(authHandler.Logout))).Methods("DELETE")
	r.Handle("/api/auth", sessions.Require(http.HandlerFunc(authHandler.Me))).Methods("GET")

	// Protected API routes - Entries
	entriesAPI := r.PathPrefix("/api/entries").Subrouter()
	entriesAPI.Use(sessions.Require)
	entriesAPI.HandleFunc("", entryHandler.ListEntries).Methods("GET")
	entriesAPI.HandleFunc("", entryHandler.CreateEntry).Methods("POST")
	entriesAPI.HandleFunc("", entryHandler.DeleteEntry).Methods("DELETE")
	entriesAPI.HandleFunc("/export.xlsx", entryHandler.ExportXLSX).Methods("GET")
	entriesAPI.HandleFunc("/{id:[0-9]+}", entryHandler.GetEntry).Methods("GET")
	entriesAPI.HandleFunc("/{id:[0-9]+}/sheet.pdf", entryHandler.SheetPDF).Methods("GET")
	entriesAPI.HandleFunc("/{id:[0-9]+}/sheet/archive", entryHandler.ArchiveSheet).Methods("POST")

	// Protected API routes - Dashboard
	r.Handle("/api/dashboard", sessions.Require(http.HandlerFunc(dashboardHandler.Get))).Methods("GET")

	// Live entry feed for open dashboards
	r.Handle("/ws/entries", sessions.Require(entryFeed)).Methods("GET")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
