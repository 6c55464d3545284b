package main

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"dynamoBack/internal/config"
)

func gatewayWarnings(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zap.WarnLevel).Filter(func(e observer.LoggedEntry) bool {
		return strings.HasPrefix(e.Message, "razorpay credentials missing")
	}).Len()
}

func TestInitializeAppWarnsWithoutGatewayCredentials(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := config.Default()

	app, err := initializeApp(context.Background(), cfg, nil, zap.New(core))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer app.close()
	if gatewayWarnings(logs) != 1 {
		t.Fatalf("expected a missing credentials warning, got %+v", logs.All())
	}

	core, logs = observer.New(zap.InfoLevel)
	cfg.Razorpay.KeyID = "rzp_test_X"
	cfg.Razorpay.KeySecret = "secret"
	if _, err := initializeApp(context.Background(), cfg, nil, zap.New(core)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if n := gatewayWarnings(logs); n != 0 {
		t.Fatalf("unexpected warning with credentials set: %d", n)
	}
}
