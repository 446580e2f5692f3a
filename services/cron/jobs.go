package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/services"
)

// ReconcilePoints recomputes every student's points counter from their
// approved items and overwrites any drifted value. The counter normally moves
// by deltas inside review transactions; this is the backstop.
func (m *CronManager) ReconcilePoints() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "reconcile_points"

	scoring := services.NewScoringService(m.db)
	corrected, err := scoring.Reconcile(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("reconcile failed: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Corrected %d drifted counters", corrected))
}

// PurgeExpiredOTPs clears password reset codes whose window has passed.
func (m *CronManager) PurgeExpiredOTPs() {
	jobName := "purge_expired_otps"

	result := m.db.Model(&model.User{}).
		Where("reset_password_otp <> '' AND reset_password_otp_expiry < ?", time.Now()).
		Updates(map[string]interface{}{
			"reset_password_otp":        "",
			"reset_password_otp_expiry": nil,
		})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge codes: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Cleared %d expired codes", result.RowsAffected))
}

// CleanupOldData trims expired blacklist entries, audit logs older than 90
// days, and cron logs older than 30 days.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"

	var removed int64

	result := m.db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to clean blacklist: %w", result.Error))
		return
	}
	removed += result.RowsAffected

	result = m.db.Unscoped().
		Where("created_at < ?", time.Now().AddDate(0, 0, -90)).
		Delete(&model.AdminAuditLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to clean audit logs: %w", result.Error))
		return
	}
	removed += result.RowsAffected

	result = m.db.Unscoped().
		Where("created_at < ?", time.Now().AddDate(0, 0, -30)).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to clean cron logs: %w", result.Error))
		return
	}
	removed += result.RowsAffected

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old rows", removed))
}
