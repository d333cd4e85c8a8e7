package repository

import (
	"context"
	"errors"

	"github.com/yourusername/article-stock-bot/internal/domain/entity"
)

var (
	// ErrCatalogEmpty katalog hali yuklanmagan
	ErrCatalogEmpty = errors.New("catalog is empty")

	// ErrMissingArticle qatorda artikul yo'q
	ErrMissingArticle = errors.New("record has no article")
)

// CatalogRepository mahsulot katalogi bilan ishlash uchun interface.
// Har bir implementatsiya o'zining lock iga ega, chaqiruvchi lock bilan ishlamaydi.
type CatalogRepository interface {
	// Replace butun katalogni almashtirish (ingest). Xatoda eski katalog qoladi.
	Replace(ctx context.Context, catalog entity.Catalog) (int, error)

	// LookupByClean faqat raqamli kalit bo'yicha qidirish
	LookupByClean(ctx context.Context, key string) ([]entity.ProductRecord, error)

	// LookupBySpaced probelli kalit bo'yicha qidirish
	LookupBySpaced(ctx context.Context, key string) ([]entity.ProductRecord, error)

	// LookupByArticle NormalizeArticle kaliti bo'yicha qidirish (registr va "-" ga qaramasdan)
	LookupByArticle(ctx context.Context, article string) ([]entity.ProductRecord, error)

	// LookupBatch bir so'rovda ko'p kalitlar bo'yicha qidirish
	LookupBatch(ctx context.Context, cleanKeys, spacedKeys []string) ([]entity.ProductRecord, error)

	// Info oxirgi ingest haqida ma'lumot
	Info(ctx context.Context) (*entity.CatalogInfo, error)

	Close() error
}
