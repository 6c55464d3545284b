package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"dynamoBack/internal/models"
	"dynamoBack/internal/services"
)

const maxEbookSize = 64 << 20

type AdminDesk interface {
	SignIn(username, password string) (*services.AdminSession, error)
	ListPurchases(ctx context.Context, status string, limit int) ([]models.Purchase, error)
	Reissue(ctx context.Context, purchaseID string) (*services.VerifyResult, error)
	UploadEbook(ctx context.Context, file []byte) error
}

type AdminHandler struct {
	Service AdminDesk
	Logger  *zap.Logger
}

func NewAdminHandler(s AdminDesk, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{Service: s, Logger: logger}
}

func (h *AdminHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeError(w, h.Logger, &models.ValidationError{Msg: "request body must be JSON"})
		return
	}

	sess, err := h.Service.SignIn(req.Username, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *AdminHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.Service.ListPurchases(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if list == nil {
		list = []models.Purchase{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) Reissue(w http.ResponseWriter, r *http.Request) {
	id := getParam(r, "id")
	if id == "" {
		writeError(w, h.Logger, &models.ValidationError{Msg: "purchase id is required"})
		return
	}

	res, err := h.Service.Reissue(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Success: true, DownloadToken: res.DownloadToken, ExpiresAt: res.ExpiresAt})
}

// UploadEbook accepts the PDF as multipart field "file".
func (h *AdminHandler) UploadEbook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEbookSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, h.Logger, &models.ValidationError{Msg: "multipart form with a file field is required"})
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.Logger, &models.ValidationError{Msg: "file is required"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, h.Logger, &models.ValidationError{Msg: "could not read file"})
		return
	}
	if err := h.Service.UploadEbook(r.Context(), data); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "size": len(data)})
}
