package handlers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dynamoBack/internal/download"
	"dynamoBack/internal/models"
	"dynamoBack/internal/services"
)

//go:embed templates/download.html
var templateFS embed.FS

var downloadPage = template.Must(template.ParseFS(templateFS, "templates/download.html"))

type DownloadGate interface {
	Lookup(ctx context.Context, token string) (*download.Gate, error)
	SignedURL(ctx context.Context, token string) (*services.SignedLink, error)
}

type DownloadHandler struct {
	Downloads   DownloadGate
	ProductName string
	Logger      *zap.Logger
	// TickInterval paces the countdown stream.
	TickInterval time.Duration

	upgrader websocket.Upgrader
}

func NewDownloadHandler(d DownloadGate, productName string, allowedOrigins []string, logger *zap.Logger) *DownloadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadHandler{
		Downloads:    d,
		ProductName:  productName,
		Logger:       logger,
		TickInterval: time.Second,
		upgrader:     websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
	}
}

type pageData struct {
	ProductName string
	State       download.State
	Display     string
	Seconds     int
	Token       string
}

// Page renders the gate. A missing or unknown token goes back to the storefront.
func (h *DownloadHandler) Page(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	gate, err := h.Downloads.Lookup(r.Context(), token)
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.Logger.Error("download lookup failed", zap.Error(err))
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	data := pageData{
		ProductName: h.ProductName,
		State:       gate.State(),
		Display:     gate.Display(),
		Seconds:     gate.Seconds(),
		Token:       token,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := downloadPage.Execute(w, data); err != nil {
		h.Logger.Error("render download page", zap.Error(err))
	}
}

// Link issues a signed storage URL. With redirect=1 the browser is sent straight to it.
func (h *DownloadHandler) Link(w http.ResponseWriter, r *http.Request) {
	link, err := h.Downloads.SignedURL(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, link.URL, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, link)
}
