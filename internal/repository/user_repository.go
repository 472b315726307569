package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/coursehub/coursehub/internal/model"
	"github.com/coursehub/coursehub/internal/utils"
)

// UserRepo manages persistence for users.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, first_name, last_name, role,
	is_email_verified, verify_token, verify_token_expires_at, is_active,
	avatar_url, bio, created_at, updated_at`

// Create inserts a user and returns its ID. Duplicate emails surface as
// ErrEmailExists (MySQL error 1062 on the unique index).
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if password != "" {
		hash, err := utils.HashPassword(password, cost)
		if err != nil {
			return 0, err
		}
		u.PasswordHash = hash
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role,
			is_email_verified, verify_token, verify_token_expires_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
		u.IsEmailVerified, u.VerifyToken, u.VerifyTokenExpires)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// VerifyEmailByToken flips is_email_verified for the user holding an
// unexpired verification token and clears the token. Returns false when no
// such token exists.
func (r *UserRepo) VerifyEmailByToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_email_verified=1, verify_token=NULL,
			verify_token_expires_at=NULL, updated_at=NOW()
		 WHERE verify_token=? AND verify_token_expires_at > ?`,
		token, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateProfile updates the mutable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, firstName, lastName string, avatarURL, bio *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=?, avatar_url=?, bio=?, updated_at=NOW() WHERE id=?`,
		firstName, lastName, avatarURL, bio, id)
	return err
}

// Deactivate flips is_active off. Rows are never hard-deleted.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active=0, updated_at=NOW() WHERE id=?`, id)
	return err
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.IsEmailVerified, &u.VerifyToken, &u.VerifyTokenExpires, &u.IsActive,
		&u.AvatarURL, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
