package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dynamoBack/internal/models"
)

const orderReporterTimeout = 1 * time.Minute

type staleLister interface {
	ListStale(ctx context.Context, createdBefore time.Time) ([]models.Purchase, error)
}

// startOrderReporter logs purchases still waiting for payment after staleAfter.
// Those are gateway orders nobody completed or whose verification never landed.
func startOrderReporter(ctx context.Context, repo staleLister, interval, staleAfter time.Duration, logger *zap.Logger) {
	if repo == nil || interval <= 0 || staleAfter <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, orderReporterTimeout)
			defer cancel()
			reportStaleOrders(runCtx, repo, time.Now().Add(-staleAfter), logger)
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}

func reportStaleOrders(ctx context.Context, repo staleLister, before time.Time, logger *zap.Logger) int {
	stale, err := repo.ListStale(ctx, before)
	if err != nil {
		logger.Error("order reporter: list stale purchases", zap.Error(err))
		return 0
	}
	for _, p := range stale {
		logger.Warn("order reporter: purchase never completed",
			zap.String("purchase_id", p.ID),
			zap.String("order_id", p.OrderID()),
			zap.Time("created_at", p.CreatedAt))
	}
	if len(stale) > 0 {
		logger.Info("order reporter: stale purchases found", zap.Int("count", len(stale)))
	}
	return len(stale)
}
