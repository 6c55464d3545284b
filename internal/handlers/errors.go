package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"dynamoBack/internal/models"
	"dynamoBack/internal/services"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto a status and a {error, message} body.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, title := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(title, zap.Error(err))
		var cfgErr *models.ConfigurationError
		var stErr *models.StorageError
		if !errors.As(err, &cfgErr) && !errors.As(err, &stErr) {
			msg = "unexpected error"
		}
	}
	writeJSON(w, status, errorBody{Error: title, Message: msg})
}

func errorStatus(err error) (int, string) {
	var (
		cfgErr *models.ConfigurationError
		gwErr  *services.GatewayError
		valErr *models.ValidationError
		nfErr  *models.NotFoundError
		stErr  *models.StorageError
	)
	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest, "Invalid request"
	case errors.As(err, &nfErr):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.As(err, &gwErr):
		return http.StatusBadGateway, "Payment gateway error"
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, "Server configuration error"
	case errors.As(err, &stErr):
		return http.StatusInternalServerError, "Storage error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
