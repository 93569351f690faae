package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	"github.com/sakif/hypot/internal/apperror"
)

// Dialect selects the SQL flavour spoken to the server.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite":
		return SQLite, nil
	case "pgx":
		return Postgres, nil
	}
	return 0, fmt.Errorf("sqlstore: unsupported driver %q", driver)
}

func (d Dialect) gooseDialect() goose.Dialect {
	if d == Postgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
// Queries in this package never contain a literal '?'.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// constraintFields maps PostgreSQL constraint names from the migrations to
// the column they guard.
var constraintFields = map[string]string{
	"users_pkey":                   "id",
	"users_username_key":           "username",
	"user_sessions_pkey":           "id",
	"user_sessions_token_hash_key": "token_hash",
	"properties_pkey":              "id",
	"pointers_pkey":                "id",
	"pointers_address_key":         "address",
}

const sqliteUniqueMarker = "UNIQUE constraint failed: "

// uniqueViolation reports the column behind a unique-constraint error.
//
//	pgx:    *pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
//	sqlite: "... UNIQUE constraint failed: users.username (2067)"
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return "", false
		}
		if field, ok := constraintFields[pgErr.ConstraintName]; ok {
			return field, true
		}
		return strings.TrimSuffix(pgErr.ConstraintName, "_key"), true
	}

	msg := err.Error()
	i := strings.Index(msg, sqliteUniqueMarker)
	if i < 0 {
		return "", false
	}
	col := msg[i+len(sqliteUniqueMarker):]
	if j := strings.IndexAny(col, " ,"); j >= 0 {
		col = col[:j]
	}
	if j := strings.LastIndexByte(col, '.'); j >= 0 {
		col = col[j+1:]
	}
	return col, true
}

// translate turns a unique violation into apperror.ConflictOn and wraps
// anything else with op. values supplies the offending value per column.
func translate(err error, op, resource string, values map[string]string) error {
	if field, ok := uniqueViolation(err); ok {
		return apperror.ConflictOn(resource, field, values[field])
	}
	return fmt.Errorf("sqlstore: %s: %w", op, err)
}
