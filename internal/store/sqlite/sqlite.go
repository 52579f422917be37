// Package sqlite implements store.Store on a local SQLite file or a remote
// libsql (Turso) database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/manash/adhook/internal/store"
	"github.com/manash/adhook/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS adhook_generations (
    id TEXT PRIMARY KEY,
    user_id TEXT,
    product_name TEXT NOT NULL,
    description TEXT NOT NULL,
    platform TEXT NOT NULL DEFAULT 'Facebook',
    variations TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_adhook_generations_created_at ON adhook_generations(created_at);
`

// Fixed width so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New opens dsn. libsql://, http:// and https:// DSNs go to a remote libsql
// server; anything else is a local file path.
func New(dsn, authToken string) (*Store, error) {
	driver, source, err := resolve(dsn, authToken)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// A single writer keeps file databases free of SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func resolve(dsn, authToken string) (driver, source string, err error) {
	if dsn == "" {
		return "", "", fmt.Errorf("sqlite dsn is required")
	}
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "libsql://") || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if authToken == "" {
			return "libsql", dsn, nil
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return "libsql", dsn + sep + "authToken=" + url.QueryEscape(authToken), nil
	}

	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return "", "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return "sqlite", dsn, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, gen *models.Generation) error {
	if gen.ID == "" {
		gen.ID = models.RecordID(uuid.NewString())
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = s.now()
	}
	gen.CreatedAt = gen.CreatedAt.UTC()

	variations := "null"
	if !gen.Variations.IsZero() {
		variations = string(gen.Variations.Raw())
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO adhook_generations (id, user_id, product_name, description, platform, variations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(gen.ID), nullString(gen.UserID), gen.ProductName, gen.Description, gen.Platform,
		variations, gen.CreatedAt.Format(timeLayout))
	return err
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]*models.Generation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, product_name, description, platform, variations, created_at
		 FROM adhook_generations ORDER BY created_at DESC, rowid DESC LIMIT ?`, store.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.Generation{}
	for rows.Next() {
		gen := &models.Generation{}
		var id, variations, createdAt string
		var userID sql.NullString
		if err := rows.Scan(&id, &userID, &gen.ProductName, &gen.Description, &gen.Platform, &variations, &createdAt); err != nil {
			return nil, err
		}
		gen.ID = models.RecordID(id)
		if userID.Valid {
			v := userID.String
			gen.UserID = &v
		}
		if variations != "null" {
			gen.Variations = models.RawVariations([]byte(variations))
		}
		gen.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
		}
		out = append(out, gen)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
