// Package download holds the state machine behind the download page:
// loading, then active with a one-second countdown, then expired.
package download

import (
	"fmt"
	"time"

	"dynamoBack/internal/models"
)

type State string

const (
	StateLoading State = "loading"
	StateActive  State = "active"
	StateExpired State = "expired"
)

// Gate tracks one visitor's view of a download token.
// Once resolved it only moves forward; expired is terminal.
type Gate struct {
	state     State
	remaining int
	purchase  *models.Purchase
}

func NewGate() *Gate {
	return &Gate{state: StateLoading}
}

// Resolve leaves the loading state. A missing purchase, a missing expiry or an
// expiry not after now gives expired; otherwise active with the whole seconds left.
// Calling Resolve on an already resolved gate changes nothing.
func (g *Gate) Resolve(p *models.Purchase, now time.Time) State {
	if g.state != StateLoading {
		return g.state
	}
	if p == nil || p.DownloadToken == nil || p.TokenExpiresAt == nil || !p.TokenExpiresAt.After(now) {
		g.expire()
		return g.state
	}

	secs := int(p.TokenExpiresAt.Sub(now) / time.Second)
	if secs <= 0 {
		g.expire()
		return g.state
	}
	g.state = StateActive
	g.remaining = secs
	g.purchase = p
	return g.state
}

// Tick advances the countdown by one second. It never consults the server.
func (g *Gate) Tick() State {
	if g.state != StateActive {
		return g.state
	}
	g.remaining--
	if g.remaining <= 0 {
		g.expire()
	}
	return g.state
}

func (g *Gate) expire() {
	g.state = StateExpired
	g.remaining = 0
}

func (g *Gate) State() State { return g.state }

// Seconds left on the countdown.
func (g *Gate) Seconds() int { return g.remaining }

func (g *Gate) Remaining() time.Duration {
	return time.Duration(g.remaining) * time.Second
}

// Display is the countdown as m:ss.
func (g *Gate) Display() string { return FormatCountdown(g.remaining) }

// CanDownload is true only while active, whatever the purchase status.
func (g *Gate) CanDownload() bool { return g.state == StateActive }

// Purchase is the resolved purchase while active, nil otherwise.
func (g *Gate) Purchase() *models.Purchase {
	if g.state != StateActive {
		return nil
	}
	return g.purchase
}

func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
