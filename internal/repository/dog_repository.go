// Package repository contains data access logic separated from HTTP handlers.
// This file holds the Dog repository: CRUD for the `dogs` table plus the
// atomic feed increment used by feed request approval.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/fircode/shelter/internal/database"
	"github.com/fircode/shelter/internal/model"
)

const dogColumns = "id, name, photo, gender, age, description, feed_amount, arrived_at, host_email"

// DogRepo encapsulates all database queries related to dogs.
type DogRepo struct {
	db *sqlx.DB
}

// NewDogRepo constructs a DogRepo with the provided DB handle.
func NewDogRepo(db *sqlx.DB) *DogRepo {
	return &DogRepo{db: db}
}

// Create inserts a new dog.  On success d.ID holds the generated id.  An
// unknown host email yields ErrMissingParent.
func (r *DogRepo) Create(ctx context.Context, d *model.Dog) error {
	id, err := database.InsertID(ctx, r.db,
		`INSERT INTO dogs (name, photo, gender, age, description, feed_amount, arrived_at, host_email)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Name, d.Photo, d.Gender, d.Age, d.Description, d.FeedAmount, d.ArrivedAt, d.HostEmail)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrMissingParent
		}
		return err
	}
	d.ID = id
	return nil
}

// GetByID fetches a dog by its ID.  It returns ErrNotFound if no row exists.
func (r *DogRepo) GetByID(ctx context.Context, id int64) (model.Dog, error) {
	var d model.Dog
	err := r.db.GetContext(ctx, &d, r.db.Rebind("SELECT "+dogColumns+" FROM dogs WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Dog{}, ErrNotFound
	}
	return d, err
}

// ListAll returns every dog, hungriest (smallest feed_amount) first.
func (r *DogRepo) ListAll(ctx context.Context) ([]model.Dog, error) {
	out := []model.Dog{}
	err := r.db.SelectContext(ctx, &out, "SELECT "+dogColumns+" FROM dogs ORDER BY feed_amount, id")
	return out, err
}

// Update overwrites the editable columns of d.  FeedAmount is not touched:
// it only changes through approved feed requests.
func (r *DogRepo) Update(ctx context.Context, d *model.Dog) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE dogs
		    SET name = ?, photo = ?, gender = ?, age = ?, description = ?, arrived_at = ?, host_email = ?
		  WHERE id = ?`),
		d.Name, d.Photo, d.Gender, d.Age, d.Description, d.ArrivedAt, d.HostEmail, d.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrMissingParent
		}
		return err
	}
	return expectAffected(res)
}

// Delete removes a dog; its pending feed requests cascade.
func (r *DogRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM dogs WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// AddFeedTx increments a dog's feed_amount inside tx with a single
// UPDATE, so concurrent approvals for the same dog serialize on the row.
func (r *DogRepo) AddFeedTx(ctx context.Context, tx *sqlx.Tx, id, delta int64) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(
		"UPDATE dogs SET feed_amount = feed_amount + ? WHERE id = ?"), delta, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
