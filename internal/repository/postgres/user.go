package postgres

import (
	"database/sql"
	"errors"

	"gigsbot/internal/domain"
	"gigsbot/internal/repository"

	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// EnsureUserExists creates user if not exists
func (r *UserRepo) EnsureUserExists(userID int64) error {
	query := `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(query, userID)
	return err
}

// GetUser returns the user or nil if unknown
func (r *UserRepo) GetUser(userID int64) (*domain.User, error) {
	var u domain.User
	var externalID, referralCode sql.NullString
	query := `
		SELECT user_id, external_id, referral_code, organic, created_at
		FROM users
		WHERE user_id = $1
	`
	err := r.db.QueryRow(query, userID).Scan(&u.UserID, &externalID, &referralCode, &u.Organic, &u.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.ExternalID = externalID.String
	u.ReferralCode = referralCode.String
	return &u, nil
}

// LinkExternalID binds the identity provider reference to the user. A
// reference held by another user is moved, and moved reports whether that
// happened.
func (r *UserRepo) LinkExternalID(userID int64, externalID string) (moved bool, err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.Exec(`
		UPDATE users
		SET external_id = NULL
		WHERE external_id = $1 AND user_id <> $2
	`, externalID, userID)
	if err != nil {
		return false, err
	}
	released, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(`
		INSERT INTO users (user_id, external_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET external_id = EXCLUDED.external_id
	`, userID, externalID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return false, repository.ErrExternalIDTaken
	}
	if err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return released > 0, nil
}

// SaveReferral stores the verified referral code
func (r *UserRepo) SaveReferral(userID int64, code string, organic bool) error {
	query := `
		UPDATE users
		SET referral_code = $2, organic = $3
		WHERE user_id = $1
	`
	_, err := r.db.Exec(query, userID, code, organic)
	return err
}
