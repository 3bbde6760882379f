package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/fircode/shelter/internal/database"
	"github.com/fircode/shelter/internal/model"
)

const feedRequestColumns = "id, actor_email, target_id, feed_amount, arrived_at, approved"

const feedRequestViewQuery = `SELECT f.id, f.actor_email, f.target_id, f.feed_amount, f.arrived_at, f.approved,
       u.first_name AS actor_first_name, u.second_name AS actor_second_name
  FROM feed_requests f
  JOIN users u ON u.email = f.actor_email`

// FeedRequestRepo persists pending feed requests.
type FeedRequestRepo struct {
	db *sqlx.DB
}

func NewFeedRequestRepo(db *sqlx.DB) *FeedRequestRepo {
	return &FeedRequestRepo{db: db}
}

// Create inserts a pending request and sets f.ID.  A dog or actor that
// vanished meanwhile yields ErrMissingParent.
func (r *FeedRequestRepo) Create(ctx context.Context, f *model.FeedRequest) error {
	id, err := database.InsertID(ctx, r.db,
		"INSERT INTO feed_requests (actor_email, target_id, feed_amount, arrived_at, approved) VALUES (?, ?, ?, ?, ?)",
		f.ActorEmail, f.TargetID, f.FeedAmount, f.ArrivedAt, f.Approved)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrMissingParent
		}
		return err
	}
	f.ID = id
	return nil
}

// GetByIDTx loads a request inside tx.
func (r *FeedRequestRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (model.FeedRequest, error) {
	var f model.FeedRequest
	err := tx.GetContext(ctx, &f, tx.Rebind("SELECT "+feedRequestColumns+" FROM feed_requests WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FeedRequest{}, ErrNotFound
	}
	return f, err
}

// DeleteTx deletes a request inside tx.  ErrNotFound means another
// transaction already removed it; the caller must not apply it.
func (r *FeedRequestRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM feed_requests WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteByIDAndActor withdraws a request owned by actorEmail.
func (r *FeedRequestRepo) DeleteByIDAndActor(ctx context.Context, id int64, actorEmail string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		"DELETE FROM feed_requests WHERE id = ? AND actor_email = ?"), id, actorEmail)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// ListPending returns all pending requests ordered by arrival date.
func (r *FeedRequestRepo) ListPending(ctx context.Context) ([]model.FeedRequestView, error) {
	out := []model.FeedRequestView{}
	err := r.db.SelectContext(ctx, &out, feedRequestViewQuery+" ORDER BY f.arrived_at, f.id")
	return out, err
}

// ListByActor returns the pending requests of one user.
func (r *FeedRequestRepo) ListByActor(ctx context.Context, actorEmail string) ([]model.FeedRequestView, error) {
	out := []model.FeedRequestView{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(feedRequestViewQuery+" WHERE f.actor_email = ? ORDER BY f.arrived_at, f.id"), actorEmail)
	return out, err
}
