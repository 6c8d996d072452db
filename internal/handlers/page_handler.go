package handlers

import (
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/services"
	"skyroute-backend/internal/timeutil"
	"skyroute-backend/pkg/logger"
	"skyroute-backend/templates"
)

type PageHandler struct {
	templates *template.Template
	entries   EntryAPI
	dashboard DashboardAPI
	log       logger.Logger
}

// pageData is passed to every template.
type pageData struct {
	Title   string
	Session *auth.Session
	Data    interface{}
	Query   map[string]string
}

var pageFuncs = template.FuncMap{
	"expiry": services.LogisticExpiry,
	"opsTime": func(t time.Time) string {
		return timeutil.ToOps(t).Format(timeutil.DisplayLayout)
	},
	"pieces": func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	},
	"hoursLeft": func(e *models.Entry) int {
		return int(math.Floor(time.Until(services.LogisticExpiry(e)).Hours()))
	},
	"logistic": func(e *models.Entry) bool {
		return e.Type == models.EntryTypeLogistic
	},
}

func NewPageHandler(entries EntryAPI, dashboard DashboardAPI, log logger.Logger) *PageHandler {
	// Parse all templates from embedded filesystem
	t := template.Must(template.New("pages").Funcs(pageFuncs).ParseFS(templates.FS, "*.html"))

	return &PageHandler{
		templates: t,
		entries:   entries,
		dashboard: dashboard,
		log:       log,
	}
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("failed to render page", "template", name, "error", err)
	}
}

// LoginPage serves the login form, or forwards to the dashboard when a
// session already exists.
func (h *PageHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, "login.html", pageData{Title: "Sign in"})
}

func (h *PageHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	d, err := h.dashboard.Get(r.Context(), sess)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	h.render(w, "dashboard.html", pageData{Title: "Dashboard", Session: sess, Data: d})
}

func (h *PageHandler) RampPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	h.render(w, "ramp.html", pageData{Title: "Ramp Input", Session: sess})
}

func (h *PageHandler) LogisticPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	h.render(w, "logistic.html", pageData{
		Title:   "Logistic Input",
		Session: sess,
		Query:   map[string]string{"c209": strings.ToUpper(r.URL.Query().Get("c209"))},
	})
}

func (h *PageHandler) EntriesPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	f := filterFromQuery(r)
	entries, err := h.entries.List(r.Context(), sess, f)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	h.render(w, "entries.html", pageData{
		Title:   "Entries",
		Session: sess,
		Data:    entries,
		Query:   map[string]string{"search": f.Search, "type": f.Type},
	})
}

// InBondPage prints the control sheet for ?id=<entry>, or from the legacy
// c209/bar/pieces/sig query parameters.
func (h *PageHandler) InBondPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	q := r.URL.Query()

	var sheet services.SheetData
	entryID := int64(0)
	if raw := q.Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid ID", http.StatusBadRequest)
			return
		}
		e, err := h.entries.Get(r.Context(), sess, id)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		sheet = services.SheetFromEntry(e)
		entryID = e.ID
	} else {
		sheet = services.SheetData{
			C209:         strings.ToUpper(q.Get("c209")),
			C208:         strings.ToUpper(q.Get("c208")),
			BarNumber:    strings.ToUpper(q.Get("bar")),
			Pieces:       q.Get("pieces"),
			Signature:    strings.ToUpper(q.Get("sig")),
			DateReceived: timeutil.Now().Format(timeutil.SheetDateLayout),
		}
	}

	h.render(w, "in_bond.html", pageData{
		Title:   "In Bond Control Sheet",
		Session: sess,
		Data:    sheet,
		Query:   map[string]string{"id": strconv.FormatInt(entryID, 10)},
	})
}
