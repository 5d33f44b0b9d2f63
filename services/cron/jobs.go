package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/learnhub/api/model"
)

// Sent notifications older than this are purged by the nightly cleanup
const notificationRetention = 90 * 24 * time.Hour

// Cron job logs older than this are purged by the nightly cleanup
const cronLogRetention = 30 * 24 * time.Hour

// DispatchScheduledNotifications promotes every scheduled notification whose
// scheduled_for time has passed. Runs every minute.
func (m *CronManager) DispatchScheduledNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "dispatch_scheduled_notifications"

	sent, err := m.notifications.DispatchDue(ctx, time.Now())
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to dispatch notifications: %w", err))
		return
	}

	if sent == 0 {
		m.logJobComplete(jobName, "No due notifications")
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Dispatched %d notifications", sent))
}

// CleanupOldNotifications purges sent notifications past the retention window
// along with stale cron job logs. Runs daily at 2 AM.
func (m *CronManager) CleanupOldNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "cleanup_old_notifications"

	purged, err := m.notifications.CleanupOld(ctx, time.Now().Add(-notificationRetention))
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge notifications: %w", err))
		return
	}

	// Old cron logs go in the same sweep
	cutoffLogs := time.Now().Add(-cronLogRetention)
	result := m.db.WithContext(ctx).
		Where("created_at < ?", cutoffLogs).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge cron logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Purged %d notifications and %d cron logs", purged, result.RowsAffected))
}

// ReconcileCoinLedger compares every user's cached coin balance against the
// sum of their ledger entries and reports drift. Runs daily at 3 AM. The job
// never repairs balances, drift means a code path skipped the ledger and
// needs investigation.
func (m *CronManager) ReconcileCoinLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "reconcile_coin_ledger"

	drifts, err := m.coins.Reconcile(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to reconcile ledger: %w", err))
		return
	}

	if len(drifts) == 0 {
		m.logJobComplete(jobName, "All balances match the ledger")
		return
	}

	for _, d := range drifts {
		m.logJobError(jobName, fmt.Errorf(
			"user %d balance %d disagrees with ledger sum %d", d.UserID, d.Coins, d.LedgerSum))
	}
	m.logJobComplete(jobName, fmt.Sprintf("Found %d drifted balances", len(drifts)))
}
