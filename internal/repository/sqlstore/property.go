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

// CreateProperty inserts the property and its share rows in one
// transaction. Ownership is the owner_id column, so the owner's list and
// the property can never disagree.
func (db *DB) CreateProperty(ctx context.Context, p *model.Property) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	return db.withTx(ctx, func(tx dbtx) error {
		_, err := tx.ExecContext(ctx, db.dialect.rebind(
			`INSERT INTO properties (id, owner_id, name, file, expires_at, public, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`),
			p.ID,
			p.OwnerID,
			p.Name,
			p.File,
			nullTime(p.Expires),
			p.Public,
			p.CreatedAt,
		)
		if err != nil {
			return translate(err, "inserting property "+p.ID, "property", map[string]string{"id": p.ID})
		}
		return db.insertShares(ctx, tx, p.ID, p.Shared)
	})
}

func (db *DB) GetPropertyByID(ctx context.Context, id string) (*model.Property, error) {
	var (
		p       model.Property
		expires sql.NullTime
	)

	err := db.conn.QueryRowContext(ctx, db.dialect.rebind(
		`SELECT id, owner_id, name, file, expires_at, public, created_at
		 FROM properties WHERE id = ?`),
		id,
	).Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.File,
		&expires,
		&p.Public,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("property", id)
		}
		return nil, fmt.Errorf("sqlstore: getting property %s: %w", id, err)
	}
	if expires.Valid {
		t := expires.Time
		p.Expires = &t
	}

	if p.Shared, err = db.listShares(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListOwned returns the owner's property ids, oldest first. Never nil.
func (db *DB) ListOwned(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, db.dialect.rebind(
		`SELECT id FROM properties WHERE owner_id = ? ORDER BY created_at, id`),
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing properties of %s: %w", ownerID, err)
	}
	return collectStrings(rows)
}

// ReplaceAccessList swaps the share rows of a property in one transaction.
func (db *DB) ReplaceAccessList(ctx context.Context, propertyID string, shared []string) error {
	return db.withTx(ctx, func(tx dbtx) error {
		var exists int
		err := tx.QueryRowContext(ctx, db.dialect.rebind(
			`SELECT 1 FROM properties WHERE id = ?`), propertyID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("property", propertyID)
		}
		if err != nil {
			return fmt.Errorf("sqlstore: checking property %s: %w", propertyID, err)
		}

		if _, err := tx.ExecContext(ctx, db.dialect.rebind(
			`DELETE FROM property_shares WHERE property_id = ?`), propertyID,
		); err != nil {
			return fmt.Errorf("sqlstore: clearing shares of %s: %w", propertyID, err)
		}
		return db.insertShares(ctx, tx, propertyID, shared)
	})
}

func (db *DB) insertShares(ctx context.Context, tx dbtx, propertyID string, shared []string) error {
	query := db.dialect.rebind(
		`INSERT INTO property_shares (property_id, user_id, position) VALUES (?, ?, ?)`)
	for i, userID := range shared {
		if _, err := tx.ExecContext(ctx, query, propertyID, userID, i); err != nil {
			return fmt.Errorf("sqlstore: sharing %s with %s: %w", propertyID, userID, err)
		}
	}
	return nil
}

func (db *DB) listShares(ctx context.Context, propertyID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, db.dialect.rebind(
		`SELECT user_id FROM property_shares WHERE property_id = ? ORDER BY position`),
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing shares of %s: %w", propertyID, err)
	}
	return collectStrings(rows)
}

func collectStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating rows: %w", err)
	}
	return out, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
