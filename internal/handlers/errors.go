package handlers

import (
	"errors"
	"net/http"

	"skyroute-backend/internal/services"
	"skyroute-backend/pkg/logger"
	"skyroute-backend/pkg/utils"
)

// statusFor maps a service error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, log logger.Logger, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	utils.Error(w, status, err.Error())
}
