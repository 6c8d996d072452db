package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/handlers"
	"skyroute-backend/internal/health"
	skyhttp "skyroute-backend/internal/http"
	"skyroute-backend/internal/middleware"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/services"
	"skyroute-backend/pkg/logger"
)

const cookieName = "skyroute_session"

var operator = &auth.Session{OperatorID: 1, Username: "jdoe", Initials: "JD"}

type tokens struct{}

func (tokens) Authenticate(_ context.Context, token string) (*auth.Session, error) {
	if token == "good" {
		return operator, nil
	}
	return nil, &services.Error{Kind: services.ErrUnauthorized}
}

// fakeEntries stores entries in a map and reports errors the way the real
// service does.
type fakeEntries struct {
	byID      map[int64]*models.Entry
	createErr error
	lastReq   *models.CreateEntryRequest
	lastSess  *auth.Session
	lastList  models.EntryFilter
}

func (f *fakeEntries) Create(_ context.Context, sess *auth.Session, req *models.CreateEntryRequest) (*models.CreateEntryResult, error) {
	f.lastReq, f.lastSess = req, sess
	if f.createErr != nil {
		return nil, f.createErr
	}
	e := &models.Entry{ID: 10, Type: req.Action, C209Number: "FEB0001", MonthYear: "FEB-26"}
	return &models.CreateEntryResult{Success: true, C209: e.C209Number, Entry: e}, nil
}

func (f *fakeEntries) List(_ context.Context, _ *auth.Session, filter models.EntryFilter) ([]*models.Entry, error) {
	f.lastList = filter
	var out []*models.Entry
	for _, e := range f.byID {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEntries) Get(_ context.Context, _ *auth.Session, id int64) (*models.Entry, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, &services.Error{Kind: services.ErrNotFound, Msg: "entry not found"}
}

func (f *fakeEntries) Delete(_ context.Context, _ *auth.Session, id int64) (bool, error) {
	_, ok := f.byID[id]
	delete(f.byID, id)
	return ok, nil
}

type fakeSheets struct{}

func (fakeSheets) RenderPDF(d services.SheetData) ([]byte, error) {
	return []byte("%PDF-1.3 " + d.C209), nil
}

func (fakeSheets) Archive(context.Context, *auth.Session, *models.Entry) (*models.SheetArchiveResult, error) {
	return nil, &services.Error{Kind: services.ErrUnavailable, Msg: "sheet archive storage is not configured"}
}

type fakeExport struct{}

func (fakeExport) ExportXLSX(context.Context, *auth.Session, models.EntryFilter) ([]byte, error) {
	return []byte("PK"), nil
}

type fakeAuth struct {
	loggedOut bool
}

func (f *fakeAuth) Login(_ context.Context, req *models.LoginRequest, _, _ string) (*services.LoginResult, error) {
	if req.Username == "jdoe" && req.Password == "s3cret-pass" {
		return &services.LoginResult{
			Token:     "good",
			Operator:  &models.Operator{ID: 1, Username: "jdoe", Initials: "JD", IsActive: true},
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil
	}
	return nil, &services.Error{Kind: services.ErrUnauthorized, Msg: "invalid username or password"}
}

func (f *fakeAuth) Logout(context.Context, *auth.Session) {
	f.loggedOut = true
}

type fakeDashboard struct{}

func (fakeDashboard) Get(context.Context, *auth.Session) (*models.Dashboard, error) {
	return &models.Dashboard{Stats: models.DashboardStats{TotalEntries: 3, TodayEntries: 1}}, nil
}

type fakeHealth struct {
	status string
}

func (f fakeHealth) CheckBasic(context.Context) health.HealthStatus {
	return health.HealthStatus{Status: f.status}
}

func (f fakeHealth) CheckDetailed(context.Context) health.DetailedStatus {
	return health.DetailedStatus{HealthStatus: health.HealthStatus{Status: f.status}}
}

type testServer struct {
	handler http.Handler
	entries *fakeEntries
	auth    *fakeAuth
}

func newTestServer(t *testing.T, dbStatus string) *testServer {
	t.Helper()
	log := logger.NewNop()
	pieces := 4
	entries := &fakeEntries{byID: map[int64]*models.Entry{
		5: {ID: 5, Type: models.EntryTypeRamp, C209Number: "FEB0005", ContainerCode: "TA2009", Pieces: &pieces, Signature: "JD", CreatedAt: time.Now()},
	}}
	fa := &fakeAuth{}

	router := skyhttp.NewRouter(
		handlers.NewEntryHandler(entries, fakeSheets{}, fakeExport{}, log),
		handlers.NewAuthHandler(fa, handlers.CookieSettings{Name: cookieName}, log),
		handlers.NewDashboardHandler(fakeDashboard{}, log),
		handlers.NewPageHandler(entries, fakeDashboard{}, log),
		handlers.NewHealthHandler(fakeHealth{status: dbStatus}),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }),
		middleware.NewSessionMiddleware(tokens{}, cookieName),
		log,
	)
	return &testServer{handler: router, entries: entries, auth: fa}
}

func (s *testServer) do(method, target, body string, signedIn bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if signedIn {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: "good"})
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAPIRequiresSession(t *testing.T) {
	s := newTestServer(t, "healthy")
	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/entries"},
		{http.MethodPost, "/api/entries"},
		{http.MethodDelete, "/api/entries?id=5"},
		{http.MethodGet, "/api/entries/5"},
		{http.MethodGet, "/api/entries/5/sheet.pdf"},
		{http.MethodGet, "/api/entries/export.xlsx"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodGet, "/ws/entries"},
	} {
		rec := s.do(tc.method, tc.target, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.target)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	}
	assert.Len(t, s.entries.byID, 1, "nothing deleted without a session")
}

func TestCreateEntry(t *testing.T) {
	s := newTestServer(t, "healthy")

	rec := s.do(http.MethodPost, "/api/entries", `{"action":"ramp_input","container_code":"ta2009","pieces":4}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "FEB0001", body["c209"])
	assert.Equal(t, operator, s.entries.lastSess)
	assert.Equal(t, 4, *s.entries.lastReq.Pieces)
}

func TestCreateEntryErrors(t *testing.T) {
	s := newTestServer(t, "healthy")

	rec := s.do(http.MethodPost, "/api/entries", `{not json`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.entries.createErr = &services.Error{Kind: services.ErrValidation, Msg: "action is required"}
	rec = s.do(http.MethodPost, "/api/entries", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "action is required", decode(t, rec)["error"])

	s.entries.createErr = &services.Error{Kind: services.ErrNotFound, Msg: "C209 'FEB9999' not found. Please register RAMP entry first."}
	rec = s.do(http.MethodPost, "/api/entries", `{"action":"logistic_input","c209_number":"FEB9999"}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "FEB9999")

	s.entries.createErr = &services.Error{Kind: services.ErrStore, Msg: "failed to create entry", Err: errors.New("connection reset")}
	rec = s.do(http.MethodPost, "/api/entries", `{"action":"ramp_input"}`, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "connection reset")
}

func TestListEntries(t *testing.T) {
	s := newTestServer(t, "healthy")

	rec := s.do(http.MethodGet, "/api/entries?search=ta20&type=ramp_input&limit=50", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["entries"], 1)
	assert.Equal(t, models.EntryFilter{Type: "ramp_input", Search: "ta20", Limit: 50}, s.entries.lastList)

	s.entries.byID = map[int64]*models.Entry{}
	rec = s.do(http.MethodGet, "/api/entries", "", true)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())
}

func TestDeleteEntry(t *testing.T) {
	s := newTestServer(t, "healthy")

	rec := s.do(http.MethodDelete, "/api/entries", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/entries?id=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/entries?id=5", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"deleted":true}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/entries?id=5", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"deleted":false}`, rec.Body.String())
}

func TestGetEntryAndSheet(t *testing.T) {
	s := newTestServer(t, "healthy")

	rec := s.do(http.MethodGet, "/api/entries/5", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FEB0005", decode(t, rec)["c209_number"])

	rec = s.do(http.MethodGet, "/api/entries/99", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/entries/5/sheet.pdf", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "in-bond-FEB0005.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = s.do(http.MethodPost, "/api/entries/5/sheet/archive", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t, "healthy")
	rec := s.do(http.MethodGet, "/api/entries/export.xlsx?search=feb", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
}

func TestLoginAndLogout(t *testing.T) {
	s := newTestServer(t, "healthy")

	rec := s.do(http.MethodPost, "/api/auth", `{"username":"jdoe","password":"wrong"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", decode(t, rec)["error"])
	assert.Empty(t, rec.Result().Cookies())

	rec = s.do(http.MethodPost, "/api/auth", `{"username":"jdoe","password":"s3cret-pass"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Equal(t, "good", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rec = s.do(http.MethodGet, "/api/auth", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "JD", decode(t, rec)["initials"])

	rec = s.do(http.MethodDelete, "/api/auth", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.auth.loggedOut)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestDashboardAPI(t *testing.T) {
	s := newTestServer(t, "healthy")
	rec := s.do(http.MethodGet, "/api/dashboard", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(3), body["stats"].(map[string]interface{})["total_entries"])
	assert.Equal(t, []interface{}{}, body["entries"])
}

func TestPages(t *testing.T) {
	s := newTestServer(t, "healthy")

	rec := s.do(http.MethodGet, "/dashboard", "", false)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = s.do(http.MethodGet, "/", "", true)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = s.do(http.MethodGet, "/", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in")

	for _, path := range []string{"/dashboard", "/ramp", "/logistic?c209=feb0005", "/entries"} {
		rec = s.do(http.MethodGet, path, "", true)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "jdoe", path)
	}
}

func TestInBondPage(t *testing.T) {
	s := newTestServer(t, "healthy")

	rec := s.do(http.MethodGet, "/in-bond?id=5", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "FEB0005")
	assert.Contains(t, rec.Body.String(), "TA2009")
	assert.Contains(t, rec.Body.String(), "/api/entries/5/sheet.pdf")

	rec = s.do(http.MethodGet, "/in-bond?c209=feb0042&bar=ez77&pieces=12&sig=rr", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "FEB0042")
	assert.Contains(t, body, "EZ77")
	assert.Contains(t, body, "RR")
	assert.NotContains(t, body, "sheet.pdf")

	rec = s.do(http.MethodGet, "/in-bond?id=99", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/in-bond?id=x", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, "unhealthy")

	rec := s.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/health/ready", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(http.MethodGet, "/health/detailed", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unhealthy", decode(t, rec)["status"])
}
