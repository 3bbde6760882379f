package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/fircode/shelter/internal/model"
)

// SessionRepo persists session token digests in `session_tokens`.
type SessionRepo struct{ DB *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Store inserts a session row.
func (r *SessionRepo) Store(ctx context.Context, s model.SessionToken) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"INSERT INTO session_tokens (token_hash, user_email, issued_at) VALUES (?,?,?)"),
		s.TokenHash, s.UserEmail, s.IssuedAt)
	return err
}

// Lookup returns the session with tokenHash together with its owner.
func (r *SessionRepo) Lookup(ctx context.Context, tokenHash string) (model.SessionToken, model.User, error) {
	var (
		s model.SessionToken
		u model.User
	)
	err := r.DB.QueryRowxContext(ctx, r.DB.Rebind(
		`SELECT s.token_hash, s.user_email, s.issued_at,
		        u.email, u.phone, u.first_name, u.second_name, u.is_admin, u.password_hash, u.contribution
		   FROM session_tokens s
		   JOIN users u ON u.email = s.user_email
		  WHERE s.token_hash = ?`), tokenHash).
		Scan(&s.TokenHash, &s.UserEmail, &s.IssuedAt,
			&u.Email, &u.Phone, &u.FirstName, &u.SecondName, &u.IsAdmin, &u.PasswordHash, &u.Contribution)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionToken{}, model.User{}, ErrNotFound
	}
	if err != nil {
		return model.SessionToken{}, model.User{}, err
	}
	return s, u, nil
}

// DeleteByHash removes one session.  A missing row is not an error.
func (r *SessionRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"DELETE FROM session_tokens WHERE token_hash = ?"), tokenHash)
	return err
}

// DeleteOthersForUser removes every session of email except keepHash.
func (r *SessionRepo) DeleteOthersForUser(ctx context.Context, email, keepHash string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"DELETE FROM session_tokens WHERE user_email = ? AND token_hash <> ?"), email, keepHash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteIssuedBefore removes sessions issued before cutoff (unix seconds).
func (r *SessionRepo) DeleteIssuedBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"DELETE FROM session_tokens WHERE issued_at <= ?"), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
