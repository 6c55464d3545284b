package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"dynamoBack/internal/models"
)

type ContactSubmitter interface {
	Submit(ctx context.Context, sub models.ContactSubmission) error
}

type ContactHandler struct {
	Service ContactSubmitter
	Logger  *zap.Logger
}

func NewContactHandler(s ContactSubmitter, logger *zap.Logger) *ContactHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactHandler{Service: s, Logger: logger}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, h.Logger, &models.ValidationError{Msg: "request body must be JSON"})
		return
	}

	err := h.Service.Submit(r.Context(), models.ContactSubmission{Name: req.Name, Email: req.Email, Message: req.Message})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}
