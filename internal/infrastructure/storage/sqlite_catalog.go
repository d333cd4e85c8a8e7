package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/yourusername/article-stock-bot/internal/domain/article"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

type sqliteCatalogRepository struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteCatalogRepository SQLite asosidagi katalog repository
func NewSQLiteCatalogRepository(dbPath string) (repository.CatalogRepository, error) {
	if dbPath == "" {
		return nil, errors.New("db path bo'sh bo'lmasligi kerak")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("db papkasini yaratib bo'lmadi: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite ochilmadi: %w", err)
	}
	// bitta ulanish: barcha so'rovlar ketma-ket
	db.SetMaxOpenConns(1)

	if err := createCatalogSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteCatalogRepository{db: db}, nil
}

func createCatalogSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	period TEXT,
	article TEXT NOT NULL,
	article_clean TEXT NOT NULL,
	article_with_spaces TEXT,
	article_key TEXT,
	name TEXT,
	code TEXT,
	warehouse TEXT,
	quantity REAL,
	price REAL,
	currency TEXT,
	price_date TEXT,
	last_updated TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_article_clean ON products (article_clean);
CREATE INDEX IF NOT EXISTS idx_article_with_spaces ON products (article_with_spaces);
CREATE INDEX IF NOT EXISTS idx_warehouse ON products (warehouse);

CREATE TABLE IF NOT EXISTS catalog_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	ingest_id TEXT NOT NULL,
	source TEXT,
	row_count INTEGER NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema yaratib bo'lmadi: %w", err)
	}

	// eski bazalarda article_key ustuni yo'q
	if err := ensureColumn(db, "products", "article_key", "TEXT"); err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_article_key ON products (article_key)`); err != nil {
		return fmt.Errorf("article_key index yaratib bo'lmadi: %w", err)
	}
	return nil
}

func ensureColumn(db *sql.DB, table, column, typ string) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("%s ustunlarini o'qib bo'lmadi: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, typ)); err != nil {
		return fmt.Errorf("%s.%s qo'shib bo'lmadi: %w", table, column, err)
	}
	return nil
}

const selectProductColumns = `SELECT period, article, article_clean, article_with_spaces, article_key, name, code,
	warehouse, quantity, price, currency, price_date, last_updated FROM products`

const orderByRecord = ` ORDER BY warehouse, period DESC, price_date DESC, id`

// Replace butun katalogni bitta tranzaksiyada almashtirish
func (s *sqliteCatalogRepository) Replace(ctx context.Context, catalog entity.Catalog) (int, error) {
	records, err := prepareRecords(catalog)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("eski katalogni o'chirib bo'lmadi: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO products (
	period, article, article_clean, article_with_spaces, article_key, name, code,
	warehouse, quantity, price, currency, price_date, last_updated
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.Period, r.Article, r.ArticleClean, r.ArticleWithSpaces, r.ArticleKey, r.Name, r.Code,
			r.Warehouse, nullFloat(r.Quantity), nullFloat(r.Price), r.Currency, r.PriceDate, r.LastUpdated)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	updatedAt := catalog.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO catalog_meta (id, ingest_id, source, row_count, updated_at) VALUES (1, ?, ?, ?, ?)`,
		uuid.New().String(), catalog.Source, len(records), updatedAt)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// LookupByClean faqat raqamli kalit bo'yicha qidirish
func (s *sqliteCatalogRepository) LookupByClean(ctx context.Context, key string) ([]entity.ProductRecord, error) {
	if key == "" {
		return nil, nil
	}
	return s.query(ctx, selectProductColumns+` WHERE article_clean = ?`+orderByRecord, key)
}

// LookupBySpaced probelli kalit bo'yicha qidirish
func (s *sqliteCatalogRepository) LookupBySpaced(ctx context.Context, key string) ([]entity.ProductRecord, error) {
	if key == "" {
		return nil, nil
	}
	return s.query(ctx, selectProductColumns+` WHERE article_with_spaces = ?`+orderByRecord, key)
}

// LookupByArticle harf-raqamli kalit bo'yicha qidirish (registr va ajratgichlarga qaramasdan)
func (s *sqliteCatalogRepository) LookupByArticle(ctx context.Context, raw string) ([]entity.ProductRecord, error) {
	key := article.NormalizeArticle(raw)
	if key == "" {
		return nil, nil
	}
	return s.query(ctx, selectProductColumns+` WHERE article_key = ?`+orderByRecord, key)
}

// LookupBatch bitta so'rovda barcha kalitlar bo'yicha qidirish
func (s *sqliteCatalogRepository) LookupBatch(ctx context.Context, cleanKeys, spacedKeys []string) ([]entity.ProductRecord, error) {
	cleanKeys = nonEmptyKeys(cleanKeys)
	spacedKeys = nonEmptyKeys(spacedKeys)
	if len(cleanKeys) == 0 && len(spacedKeys) == 0 {
		return nil, nil
	}

	var where []string
	args := make([]any, 0, len(cleanKeys)+len(spacedKeys))
	if len(cleanKeys) > 0 {
		where = append(where, "article_clean IN ("+placeholders(len(cleanKeys))+")")
		for _, k := range cleanKeys {
			args = append(args, k)
		}
	}
	if len(spacedKeys) > 0 {
		where = append(where, "article_with_spaces IN ("+placeholders(len(spacedKeys))+")")
		for _, k := range spacedKeys {
			args = append(args, k)
		}
	}

	query := selectProductColumns + " WHERE " + strings.Join(where, " OR ") +
		` ORDER BY article_clean, warehouse, period DESC, price_date DESC, id`
	return s.query(ctx, query, args...)
}

// Info oxirgi ingest haqida ma'lumot
func (s *sqliteCatalogRepository) Info(ctx context.Context) (*entity.CatalogInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var info entity.CatalogInfo
	var source sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT ingest_id, source, row_count, updated_at FROM catalog_meta WHERE id = 1`).
		Scan(&info.IngestID, &source, &info.Rows, &info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrCatalogEmpty
	}
	if err != nil {
		return nil, err
	}
	info.Source = source.String
	return &info, nil
}

// Close ulanishni yopish
func (s *sqliteCatalogRepository) Close() error {
	return s.db.Close()
}

func (s *sqliteCatalogRepository) query(ctx context.Context, query string, args ...any) ([]entity.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.ProductRecord
	for rows.Next() {
		var (
			r                               entity.ProductRecord
			period, spaced, key, name, code sql.NullString
			warehouse, currency, priceDate  sql.NullString
			quantity, price                 sql.NullFloat64
		)
		if err := rows.Scan(&period, &r.Article, &r.ArticleClean, &spaced, &key, &name, &code,
			&warehouse, &quantity, &price, &currency, &priceDate, &r.LastUpdated); err != nil {
			return nil, err
		}
		r.Period = period.String
		r.ArticleWithSpaces = spaced.String
		r.ArticleKey = key.String
		r.Name = name.String
		r.Code = code.String
		r.Warehouse = warehouse.String
		r.Currency = currency.String
		r.PriceDate = priceDate.String
		r.Quantity = floatPtr(quantity)
		r.Price = floatPtr(price)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nonEmptyKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
