package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fircode/shelter/internal/database"
	"github.com/fircode/shelter/internal/model"
)

const userColumns = "email, phone, first_name, second_name, is_admin, password_hash, contribution"

// UserRepo persists accounts in the `users` table.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail trims and lower-cases an address so lookups and the
// primary key agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u.  The email primary key makes concurrent duplicate
// registrations fail with ErrEmailExists instead of creating a second row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?)"),
		u.Email, u.Phone, u.FirstName, u.SecondName, u.IsAdmin, u.PasswordHash, u.Contribution)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(
		"SELECT "+userColumns+" FROM users WHERE email = ?"), NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// ListByContribution returns every user, biggest contributors first.
func (r *UserRepo) ListByContribution(ctx context.Context) ([]model.User, error) {
	out := []model.User{}
	err := r.DB.SelectContext(ctx, &out,
		"SELECT "+userColumns+" FROM users ORDER BY contribution DESC, email")
	return out, err
}

// UpdatePasswordHash replaces the stored digest for email.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"UPDATE users SET password_hash = ? WHERE email = ?"), hash, NormalizeEmail(email))
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// AddContributionTx increments a user's contribution inside tx.  The
// increment happens in the UPDATE itself, so concurrent approvals cannot
// lose each other's writes.
func (r *UserRepo) AddContributionTx(ctx context.Context, tx *sqlx.Tx, email string, delta int64) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(
		"UPDATE users SET contribution = contribution + ? WHERE email = ?"), delta, email)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Delete removes a user.  Sessions and pending feed requests cascade.
func (r *UserRepo) Delete(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"DELETE FROM users WHERE email = ?"), NormalizeEmail(email))
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// expectAffected maps "no row touched" onto ErrNotFound.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
