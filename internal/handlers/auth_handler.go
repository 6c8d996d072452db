package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/middleware"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/services"
	"skyroute-backend/pkg/logger"
	"skyroute-backend/pkg/utils"
)

type AuthAPI interface {
	Login(ctx context.Context, req *models.LoginRequest, ipAddress, userAgent string) (*services.LoginResult, error)
	Logout(ctx context.Context, sess *auth.Session)
}

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	Service AuthAPI
	cookie  CookieSettings
	log     logger.Logger
}

func NewAuthHandler(s AuthAPI, cookie CookieSettings, log logger.Logger) *AuthHandler {
	return &AuthHandler{Service: s, cookie: cookie, log: log}
}

// Login handles POST /api/auth and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.Service.Login(r.Context(), &req, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"operator":   res.Operator,
		"expires_at": res.ExpiresAt,
	})
}

// Logout handles DELETE /api/auth. It always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		h.Service.Logout(r.Context(), sess)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	utils.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me handles GET /api/auth and returns the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"operator_id": sess.OperatorID,
		"username":    sess.Username,
		"initials":    sess.Initials,
	})
}
