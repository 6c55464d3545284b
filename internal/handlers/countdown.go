package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dynamoBack/internal/download"
)

const countdownWriteWait = 5 * time.Second

type countdownEvent struct {
	State     download.State `json:"state"`
	Remaining int            `json:"remaining"`
	Display   string         `json:"display"`
}

// Countdown streams the gate once per tick and closes after the expired event.
// The gate is resolved once on connect and then only ticks locally.
func (h *DownloadHandler) Countdown(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	gate, err := h.Downloads.Lookup(r.Context(), token)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("countdown upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// drain reads so close frames from the browser are handled
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func() error {
		_ = conn.SetWriteDeadline(time.Now().Add(countdownWriteWait))
		return conn.WriteJSON(countdownEvent{State: gate.State(), Remaining: gate.Seconds(), Display: gate.Display()})
	}

	if err := send(); err != nil {
		return
	}

	interval := h.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for gate.State() == download.StateActive {
		select {
		case <-ticker.C:
			gate.Tick()
			if err := send(); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "expired"),
		time.Now().Add(countdownWriteWait))
}

// originChecker allows same-host requests and the configured origins; "*" allows any.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
