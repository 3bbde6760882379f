package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx.  Repositories accept
// it so the same method can run standalone or inside a transaction.
type Queryer interface {
	sqlx.ExtContext
}

// WithTx begins a transaction, runs fn with it and commits on success.  Any
// error or panic from fn rolls the transaction back; panics are rethrown.
func WithTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// InsertID runs an INSERT and returns the generated id column.  Postgres
// has no LastInsertId, so the statement gets a RETURNING clause there.
func InsertID(ctx context.Context, q Queryer, query string, args ...any) (int64, error) {
	query = q.Rebind(query)
	if q.DriverName() == "postgres" {
		var id int64
		if err := q.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
