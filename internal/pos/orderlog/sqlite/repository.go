// Package sqlite provides a SQLite-backed orderlog.Repository.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/club-pos/internal/pos/orderlog"

	_ "modernc.org/sqlite"
)

// The table is append-only: one row per accepted status change.
const schema = `
CREATE TABLE IF NOT EXISTS order_log (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    id              TEXT    NOT NULL UNIQUE,
    order_number    TEXT    NOT NULL,
    action          TEXT    NOT NULL,
    from_status     TEXT    NOT NULL DEFAULT '',
    to_status       TEXT    NOT NULL,
    payment_method  TEXT    NOT NULL DEFAULT '',
    trace_id        TEXT    NOT NULL DEFAULT '',
    span_id         TEXT    NOT NULL DEFAULT '',
    at              TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_log_number ON order_log(order_number, seq);
CREATE INDEX IF NOT EXISTS idx_order_log_trace ON order_log(trace_id);
`

type Repository struct {
	db *sql.DB
}

var _ orderlog.Repository = (*Repository)(nil)

// Open opens (or creates) the log database at path.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Save(ctx context.Context, e *orderlog.Entry) error {
	const q = `
		INSERT INTO order_log
			(id, order_number, action, from_status, to_status, payment_method, trace_id, span_id, at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.OrderNumber,
		e.Action,
		e.From,
		e.To,
		e.PaymentMethod,
		e.TraceID,
		e.SpanID,
		e.At.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save log entry for %q: %w", e.OrderNumber, err)
	}
	return nil
}

// History returns the entries of one order, oldest first.
func (r *Repository) History(ctx context.Context, orderNumber string) ([]orderlog.Entry, error) {
	const q = `
		SELECT id, order_number, action, from_status, to_status, payment_method, trace_id, span_id, at
		FROM   order_log
		WHERE  order_number = ?
		ORDER  BY seq`

	rows, err := r.db.QueryContext(ctx, q, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history of %q: %w", orderNumber, err)
	}
	defer rows.Close()

	out := []orderlog.Entry{}
	for rows.Next() {
		var (
			e  orderlog.Entry
			at string
		)
		if err := rows.Scan(&e.ID, &e.OrderNumber, &e.Action, &e.From, &e.To, &e.PaymentMethod, &e.TraceID, &e.SpanID, &at); err != nil {
			return nil, fmt.Errorf("sqlite: scan log entry: %w", err)
		}
		if e.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: history of %q: %w", orderNumber, err)
	}
	return out, nil
}
