package postgres

import (
	"database/sql"
	"time"

	"gigsbot/internal/domain"
)

// AttemptRepo implements repository.AttemptRepository
type AttemptRepo struct {
	db *sql.DB
}

// NewAttemptRepo creates a new payment attempt repository
func NewAttemptRepo(db *sql.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// CreateAttempt records an accepted push payment
func (r *AttemptRepo) CreateAttempt(a *domain.PaymentAttempt) error {
	query := `
		INSERT INTO payment_attempts (id, user_id, external_id, tracking_id, phone_number, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	return r.db.QueryRow(query,
		a.ID, a.UserID, a.ExternalID, a.TrackingID, a.PhoneNumber, a.Amount, string(a.Status),
	).Scan(&a.CreatedAt)
}

// FinishAttempt stores the outcome of a pending attempt
// Attempts that already have an outcome are left unchanged
func (r *AttemptRepo) FinishAttempt(trackingID string, status domain.PaymentStatus) error {
	query := `
		UPDATE payment_attempts
		SET status = $2, finished_at = NOW()
		WHERE tracking_id = $1 AND status = 'pending'
	`
	_, err := r.db.Exec(query, trackingID, string(status))
	return err
}

// ExpirePendingAttempts marks attempts that have been pending for longer
// than olderThan as abandoned and returns how many were changed
func (r *AttemptRepo) ExpirePendingAttempts(olderThan time.Duration) (int64, error) {
	query := `
		UPDATE payment_attempts
		SET status = $1, finished_at = NOW()
		WHERE status = 'pending' AND created_at < NOW() - INTERVAL '1 second' * $2
	`
	res, err := r.db.Exec(query, string(domain.PaymentAbandoned), int64(olderThan/time.Second))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CleanOldAttempts deletes attempts created more than days ago
func (r *AttemptRepo) CleanOldAttempts(days int) (int64, error) {
	query := `
		DELETE FROM payment_attempts
		WHERE created_at < NOW() - INTERVAL '1 day' * $1
	`
	res, err := r.db.Exec(query, days)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
