package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/article-stock-bot/internal/domain/article"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

type memoryCatalogRepository struct {
	mu   sync.Mutex
	snap *catalogSnapshot
}

// catalogSnapshot o'zgarmas katalog nusxasi, Replace yangi nusxa quradi va almashtiradi
type catalogSnapshot struct {
	records   []entity.ProductRecord
	byClean   map[string][]int
	bySpaced  map[string][]int
	byArticle map[string][]int // key: ArticleKey
	info      entity.CatalogInfo
}

// NewMemoryCatalogRepository in-memory katalog repository yaratish
func NewMemoryCatalogRepository() repository.CatalogRepository {
	return &memoryCatalogRepository{}
}

// Replace yangi snapshot qurib, uni bir marta almashtirish
func (m *memoryCatalogRepository) Replace(ctx context.Context, catalog entity.Catalog) (int, error) {
	records, err := prepareRecords(catalog)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	sortBatch(records)

	snap := &catalogSnapshot{
		records:   records,
		byClean:   make(map[string][]int),
		bySpaced:  make(map[string][]int),
		byArticle: make(map[string][]int),
		info: entity.CatalogInfo{
			IngestID:  uuid.New().String(),
			Source:    catalog.Source,
			Rows:      len(records),
			UpdatedAt: catalog.UpdatedAt,
		},
	}
	if snap.info.UpdatedAt.IsZero() {
		snap.info.UpdatedAt = time.Now()
	}

	for i, r := range records {
		if r.ArticleClean != "" {
			snap.byClean[r.ArticleClean] = append(snap.byClean[r.ArticleClean], i)
		}
		if r.ArticleWithSpaces != "" {
			snap.bySpaced[r.ArticleWithSpaces] = append(snap.bySpaced[r.ArticleWithSpaces], i)
		}
		if r.ArticleKey != "" {
			snap.byArticle[r.ArticleKey] = append(snap.byArticle[r.ArticleKey], i)
		}
	}

	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()

	return len(records), nil
}

// LookupByClean faqat raqamli kalit bo'yicha qidirish
func (m *memoryCatalogRepository) LookupByClean(ctx context.Context, key string) ([]entity.ProductRecord, error) {
	return m.lookup(func(s *catalogSnapshot) []int { return s.byClean[key] })
}

// LookupBySpaced probelli kalit bo'yicha qidirish
func (m *memoryCatalogRepository) LookupBySpaced(ctx context.Context, key string) ([]entity.ProductRecord, error) {
	return m.lookup(func(s *catalogSnapshot) []int { return s.bySpaced[key] })
}

// LookupByArticle harf-raqamli kalit bo'yicha qidirish
func (m *memoryCatalogRepository) LookupByArticle(ctx context.Context, raw string) ([]entity.ProductRecord, error) {
	key := article.NormalizeArticle(raw)
	if key == "" {
		return nil, nil
	}
	return m.lookup(func(s *catalogSnapshot) []int { return s.byArticle[key] })
}

// LookupBatch ko'p kalitlar bo'yicha qidirish
func (m *memoryCatalogRepository) LookupBatch(ctx context.Context, cleanKeys, spacedKeys []string) ([]entity.ProductRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap == nil {
		return nil, nil
	}

	seen := make(map[int]struct{})
	var out []entity.ProductRecord
	add := func(idx []int) {
		for _, i := range idx {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			out = append(out, m.snap.records[i])
		}
	}
	for _, k := range cleanKeys {
		add(m.snap.byClean[k])
	}
	for _, k := range spacedKeys {
		add(m.snap.bySpaced[k])
	}

	sortBatch(out)
	return out, nil
}

// Info oxirgi ingest haqida ma'lumot
func (m *memoryCatalogRepository) Info(ctx context.Context) (*entity.CatalogInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap == nil {
		return nil, repository.ErrCatalogEmpty
	}
	info := m.snap.info
	return &info, nil
}

func (m *memoryCatalogRepository) Close() error {
	return nil
}

func (m *memoryCatalogRepository) lookup(pick func(*catalogSnapshot) []int) ([]entity.ProductRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap == nil {
		return nil, nil
	}

	idx := pick(m.snap)
	out := make([]entity.ProductRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, m.snap.records[i])
	}
	sortRecords(out)
	return out, nil
}
