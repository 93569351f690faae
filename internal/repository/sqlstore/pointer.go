package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/hypot/internal/apperror"
	"github.com/sakif/hypot/internal/model"
)

// CreatePointer inserts an alias row. A second pointer with the same
// address fails with apperror.ConflictOn(..., "address", ...).
func (db *DB) CreatePointer(ctx context.Context, p *model.Pointer) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx, db.dialect.rebind(
		`INSERT INTO pointers (id, address, destination, created_at) VALUES (?, ?, ?, ?)`),
		p.ID, p.Address, p.Destination, p.CreatedAt,
	)
	if err != nil {
		return translate(err, "inserting pointer "+p.Address, "pointer", map[string]string{
			"id":      p.ID,
			"address": p.Address,
		})
	}
	return nil
}

func (db *DB) GetPointerByAddress(ctx context.Context, address string) (*model.Pointer, error) {
	var p model.Pointer
	err := db.conn.QueryRowContext(ctx, db.dialect.rebind(
		`SELECT id, address, destination, created_at FROM pointers WHERE address = ?`),
		address,
	).Scan(&p.ID, &p.Address, &p.Destination, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("pointer", address)
		}
		return nil, fmt.Errorf("sqlstore: getting pointer %s: %w", address, err)
	}
	return &p, nil
}
