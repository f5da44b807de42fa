package workers

import (
	"context"
	"time"

	"zaistock_backend/internal/logger"
	"zaistock_backend/internal/repositories"

	"gorm.io/gorm"
)

// SubscriptionWorker periodically flips active subscriptions past their
// paid window to expired, so list views and token redaction stay honest
// without waiting for an admin.
type SubscriptionWorker struct {
	db       *gorm.DB
	subRepo  repositories.SubscriptionRepository
	interval time.Duration
}

func NewSubscriptionWorker(db *gorm.DB, subRepo repositories.SubscriptionRepository) *SubscriptionWorker {
	return &SubscriptionWorker{
		db:       db,
		subRepo:  subRepo,
		interval: 6 * time.Hour,
	}
}

func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.expireLoop(ctx)
}

func (w *SubscriptionWorker) expireLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// One pass at startup so a restart catches anything missed while
	// the process was down.
	w.runExpiry()

	for {
		select {
		case <-ctx.Done():
			logger.Info("subscription worker stopped")
			return
		case <-ticker.C:
			w.runExpiry()
		}
	}
}

func (w *SubscriptionWorker) runExpiry() {
	count, err := w.subRepo.ExpireOverdue(w.db, time.Now())
	if err != nil {
		logger.Error("expiry sweep failed", "error", err)
		return
	}
	if count > 0 {
		logger.Info("expired overdue subscriptions", "count", count)
	}
}
