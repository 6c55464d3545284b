package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultScriptSrc = "https://checkout.razorpay.com/v1/checkout.js"

var (
	ErrPurchaseInFlight = errors.New("checkout: a purchase is already in progress")
	ErrWidgetTimeout    = errors.New("checkout: payment widget did not respond in time")
)

// ScriptLoader puts the widget script on the page.
type ScriptLoader interface {
	HasScript(src string) bool
	InjectScript(ctx context.Context, src string) error
}

type WidgetOptions struct {
	Key         string
	Amount      int64
	Currency    string
	OrderID     string
	Name        string
	Description string
	ThemeColor  string
}

// WidgetResult is delivered once. Exactly one of Receipt, Dismissed or Err is set.
type WidgetResult struct {
	Receipt   *Receipt
	Dismissed bool
	Err       error
}

// Widget is the hosted payment dialog.
type Widget interface {
	Open(ctx context.Context, opts WidgetOptions) (<-chan WidgetResult, error)
}

type Navigator interface {
	Navigate(path string)
}

type NotificationKind string

const (
	NotifyError NotificationKind = "error"
	NotifyInfo  NotificationKind = "info"
)

type Notification struct {
	Kind    NotificationKind
	Title   string
	Message string
}

type Notifier interface {
	Notify(n Notification)
}

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

type Config struct {
	ScriptSrc   string
	ProductName string
	Description string
	ThemeColor  string
	// WidgetTimeout bounds the wait for the widget. Zero waits until ctx ends.
	WidgetTimeout time.Duration
}

// Initiator runs one purchase at a time.
type Initiator struct {
	api      API
	scripts  ScriptLoader
	widget   Widget
	nav      Navigator
	notifier Notifier
	cfg      Config
	logger   *zap.Logger

	inFlight atomic.Bool
}

func NewInitiator(api API, scripts ScriptLoader, widget Widget, nav Navigator, notifier Notifier, cfg Config, logger *zap.Logger) *Initiator {
	if cfg.ScriptSrc == "" {
		cfg.ScriptSrc = DefaultScriptSrc
	}
	if cfg.ThemeColor == "" {
		cfg.ThemeColor = "#4F46E5"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Initiator{api: api, scripts: scripts, widget: widget, nav: nav, notifier: notifier, cfg: cfg, logger: logger}
}

// Purchase walks the checkout steps in order. Any failure is reported through the
// notifier and leaves the user where they are; nothing is retried.
func (in *Initiator) Purchase(ctx context.Context) (Outcome, error) {
	if !in.inFlight.CompareAndSwap(false, true) {
		return OutcomeFailed, ErrPurchaseInFlight
	}
	defer in.inFlight.Store(false)

	outcome, err := in.run(ctx)
	switch {
	case err != nil:
		in.logger.Warn("purchase failed", zap.Error(err))
		in.notifier.Notify(Notification{Kind: NotifyError, Title: "Payment failed", Message: userMessage(err)})
	case outcome == OutcomeCancelled:
		in.notifier.Notify(Notification{Kind: NotifyInfo, Title: "Payment cancelled", Message: "You closed the payment window. No money was taken."})
	}
	return outcome, err
}

func (in *Initiator) run(ctx context.Context) (Outcome, error) {
	if !in.scripts.HasScript(in.cfg.ScriptSrc) {
		if err := in.scripts.InjectScript(ctx, in.cfg.ScriptSrc); err != nil {
			return OutcomeFailed, fmt.Errorf("load payment widget: %w", err)
		}
	}

	order, err := in.api.CreateOrder(ctx)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("create order: %w", err)
	}

	results, err := in.widget.Open(ctx, WidgetOptions{
		Key:         order.Key,
		Amount:      order.Amount,
		Currency:    order.Currency,
		OrderID:     order.ID,
		Name:        in.cfg.ProductName,
		Description: in.cfg.Description,
		ThemeColor:  in.cfg.ThemeColor,
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("open payment widget: %w", err)
	}

	res, err := in.await(ctx, results)
	if err != nil {
		return OutcomeFailed, err
	}
	if res.Dismissed {
		return OutcomeCancelled, nil
	}
	if res.Err != nil {
		return OutcomeFailed, fmt.Errorf("payment: %w", res.Err)
	}
	if res.Receipt == nil {
		return OutcomeFailed, errors.New("payment: widget returned no receipt")
	}

	v, err := in.api.VerifyPayment(ctx, *res.Receipt, order.PurchaseID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("verify payment: %w", err)
	}

	in.nav.Navigate("/download?token=" + url.QueryEscape(v.DownloadToken))
	return OutcomeCompleted, nil
}

func (in *Initiator) await(ctx context.Context, results <-chan WidgetResult) (WidgetResult, error) {
	var timeout <-chan time.Time
	if in.cfg.WidgetTimeout > 0 {
		t := time.NewTimer(in.cfg.WidgetTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case res, ok := <-results:
		if !ok {
			return WidgetResult{}, errors.New("payment: widget closed without a result")
		}
		return res, nil
	case <-timeout:
		return WidgetResult{}, ErrWidgetTimeout
	case <-ctx.Done():
		return WidgetResult{}, ctx.Err()
	}
}

func userMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}
