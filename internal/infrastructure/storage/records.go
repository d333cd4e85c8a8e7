package storage

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/article-stock-bot/internal/domain/article"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

// prepareRecords kalitlarni hisoblash va qatorlarni tekshirish.
// Destruktiv qadamdan oldin chaqiriladi, xato bo'lsa katalog o'zgarmaydi.
func prepareRecords(catalog entity.Catalog) ([]entity.ProductRecord, error) {
	updatedAt := catalog.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	out := make([]entity.ProductRecord, 0, len(catalog.Records))
	for i, rec := range catalog.Records {
		rec.Article = strings.TrimSpace(rec.Article)
		if rec.Article == "" {
			return nil, fmt.Errorf("row %d: %w", i+1, repository.ErrMissingArticle)
		}
		rec.ArticleClean = article.NormalizeDigits(rec.Article)
		rec.ArticleWithSpaces = article.NormalizeSpaced(rec.Article)
		rec.ArticleKey = article.NormalizeArticle(rec.Article)
		rec.LastUpdated = updatedAt
		out = append(out, rec)
	}
	return out, nil
}

// recordLess ombor, keyin davr va narx sanasi bo'yicha (yangilari oldin)
func recordLess(a, b entity.ProductRecord) bool {
	if a.Warehouse != b.Warehouse {
		return a.Warehouse < b.Warehouse
	}
	if a.Period != b.Period {
		return a.Period > b.Period
	}
	return a.PriceDate > b.PriceDate
}

func sortRecords(records []entity.ProductRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return recordLess(records[i], records[j])
	})
}

// sortBatch artikul bo'yicha guruhlab, har guruh ichida recordLess tartibi
func sortBatch(records []entity.ProductRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ArticleClean != records[j].ArticleClean {
			return records[i].ArticleClean < records[j].ArticleClean
		}
		return recordLess(records[i], records[j])
	})
}
