package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

type sqliteQueryLogRepository struct {
	db      *sql.DB
	maxSize int
}

// NewSQLiteQueryLogRepository SQLite asosidagi so'rovlar tarixi
func NewSQLiteQueryLogRepository(dbPath string, maxSize int) (repository.QueryLogRepository, error) {
	if dbPath == "" {
		return nil, errors.New("db path bo'sh bo'lmasligi kerak")
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("history size musbat bo'lishi kerak: %d", maxSize)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("db papkasini yaratib bo'lmadi: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite ochilmadi: %w", err)
	}

	if err := createQueryLogSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteQueryLogRepository{db: db, maxSize: maxSize}, nil
}

func createQueryLogSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	username TEXT,
	text TEXT,
	found INTEGER NOT NULL DEFAULT 0,
	missing INTEGER NOT NULL DEFAULT 0,
	ts TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queries_user_ts ON queries (user_id, ts);
`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("schema yaratib bo'lmadi: %w", err)
	}
	return nil
}

// SaveQuery so'rovni saqlash va eski yozuvlarni kesish
func (s *sqliteQueryLogRepository) SaveQuery(ctx context.Context, entry entity.QueryLogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO queries (id, user_id, username, text, found, missing, ts) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.Username, entry.Text, entry.Found, entry.Missing, entry.Timestamp)
	if err != nil {
		tx.Rollback()
		return err
	}

	// Eski so'rovlarni kesish
	_, err = tx.ExecContext(ctx, `
DELETE FROM queries
WHERE id IN (
  SELECT id FROM queries
  WHERE user_id = ?
  ORDER BY ts DESC
  LIMIT -1 OFFSET ?
)`, entry.UserID, s.maxSize)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// GetHistory foydalanuvchi so'rovlarini olish
func (s *sqliteQueryLogRepository) GetHistory(ctx context.Context, userID int64, limit int) ([]entity.QueryLogEntry, error) {
	query := `SELECT id, user_id, username, text, found, missing, ts FROM queries WHERE user_id = ? ORDER BY ts DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tmp []entity.QueryLogEntry
	for rows.Next() {
		var e entity.QueryLogEntry
		var username sql.NullString
		var ts time.Time
		if err := rows.Scan(&e.ID, &e.UserID, &username, &e.Text, &e.Found, &e.Missing, &ts); err != nil {
			return nil, err
		}
		e.Username = username.String
		e.Timestamp = ts
		tmp = append(tmp, e)
	}

	// eski -> yangi tartib
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}

	return tmp, rows.Err()
}

// ClearHistory foydalanuvchi tarixini tozalash
func (s *sqliteQueryLogRepository) ClearHistory(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM queries WHERE user_id = ?`, userID)
	return err
}

func (s *sqliteQueryLogRepository) Close() error {
	return s.db.Close()
}
