package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/article-stock-bot/internal/domain/article"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

// NoArticleReply xabarda artikul topilmaganda javob
const NoArticleReply = "⛔️ Не найден артикул в сообщении."

// LookupUseCase chat orqali artikul qidirish
type LookupUseCase interface {
	// ProcessMessage xabardan artikullarni ajratib, katalogdan javob tayyorlash
	ProcessMessage(ctx context.Context, userID int64, username, text string) (string, error)

	// GetHistory foydalanuvchining oxirgi so'rovlari
	GetHistory(ctx context.Context, userID int64) ([]entity.QueryLogEntry, error)

	// ClearHistory foydalanuvchi tarixini tozalash
	ClearHistory(ctx context.Context, userID int64) error
}

type lookupUseCase struct {
	extractor    *article.Extractor
	catalog      repository.CatalogRepository
	queryLog     repository.QueryLogRepository
	formatter    *ReplyFormatter
	observer     Observer
	historyLimit int
}

// NewLookupUseCase yangi LookupUseCase yaratish. queryLog nil bo'lishi mumkin.
func NewLookupUseCase(
	extractor *article.Extractor,
	catalog repository.CatalogRepository,
	queryLog repository.QueryLogRepository,
	maxBlocks int,
	historyLimit int,
	observer Observer,
) LookupUseCase {
	return &lookupUseCase{
		extractor:    extractor,
		catalog:      catalog,
		queryLog:     queryLog,
		formatter:    NewReplyFormatter(maxBlocks),
		observer:     observerOrNop(observer),
		historyLimit: historyLimit,
	}
}

// ProcessMessage foydalanuvchi xabarini qayta ishlash
func (u *lookupUseCase) ProcessMessage(ctx context.Context, userID int64, username, text string) (string, error) {
	start := time.Now()

	queries := u.extractor.Extract(text)
	if len(queries) == 0 {
		u.observer.ObserveLookup("no_article", time.Since(start))
		return NoArticleReply, nil
	}

	for _, q := range queries {
		log.Printf("🔎 %d: %s artikul %q", userID, q.Kind, q.Raw)
	}

	lookup, err := u.batchLookup(ctx, queries)
	if err != nil {
		u.observer.ObserveLookup("error", time.Since(start))
		return "", fmt.Errorf("failed to lookup articles: %w", err)
	}

	reply, err := u.formatter.Render(queries, lookup)
	if err != nil {
		u.observer.ObserveLookup("error", time.Since(start))
		return "", fmt.Errorf("failed to build reply: %w", err)
	}

	u.saveQuery(ctx, userID, username, text, reply)

	outcome := "found"
	if reply.Found == 0 {
		outcome = "not_found"
	}
	u.observer.ObserveLookup(outcome, time.Since(start))

	return reply.Text, nil
}

// batchLookup raqamli kalitlarni bitta so'rovda olish. Harfli artikullar alohida qidiriladi.
func (u *lookupUseCase) batchLookup(ctx context.Context, queries []article.Query) (LookupFunc, error) {
	var cleanKeys, spacedKeys []string
	for _, q := range queries {
		switch q.Kind {
		case article.KindCompound:
			spacedKeys = append(spacedKeys, q.Spaced)
			cleanKeys = append(cleanKeys, q.Clean)
		case article.KindSimple:
			cleanKeys = append(cleanKeys, q.Clean)
		}
	}

	byClean := make(map[string][]entity.ProductRecord)
	bySpaced := make(map[string][]entity.ProductRecord)
	if len(cleanKeys) > 0 || len(spacedKeys) > 0 {
		rows, err := u.catalog.LookupBatch(ctx, cleanKeys, spacedKeys)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			byClean[r.ArticleClean] = append(byClean[r.ArticleClean], r)
			bySpaced[r.ArticleWithSpaces] = append(bySpaced[r.ArticleWithSpaces], r)
		}
	}

	return func(q article.Query) ([]entity.ProductRecord, error) {
		var rows []entity.ProductRecord
		switch q.Kind {
		case article.KindCompound:
			// Eski kataloglarda probelli kalit bo'lmasligi mumkin
			rows = bySpaced[q.Spaced]
			if len(rows) == 0 {
				rows = byClean[q.Clean]
			}
		case article.KindAlphanumeric:
			var err error
			rows, err = u.catalog.LookupByArticle(ctx, q.Raw)
			if err != nil {
				return nil, err
			}
		default:
			rows = byClean[q.Clean]
		}

		u.observer.ObserveArticle(q.Kind.String(), len(rows) > 0)
		return rows, nil
	}, nil
}

// saveQuery so'rovni tarixga yozish. Xato javobni buzmaydi.
func (u *lookupUseCase) saveQuery(ctx context.Context, userID int64, username, text string, reply Reply) {
	if u.queryLog == nil {
		return
	}

	entry := entity.QueryLogEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Username:  username,
		Text:      text,
		Found:     reply.Found,
		Missing:   reply.Missing,
		Timestamp: time.Now(),
	}
	if err := u.queryLog.SaveQuery(ctx, entry); err != nil {
		log.Printf("⚠️ So'rov tarixga yozilmadi: %v", err)
	}
}

// GetHistory foydalanuvchining oxirgi so'rovlari
func (u *lookupUseCase) GetHistory(ctx context.Context, userID int64) ([]entity.QueryLogEntry, error) {
	if u.queryLog == nil {
		return nil, nil
	}
	return u.queryLog.GetHistory(ctx, userID, u.historyLimit)
}

// ClearHistory foydalanuvchi tarixini tozalash
func (u *lookupUseCase) ClearHistory(ctx context.Context, userID int64) error {
	if u.queryLog == nil {
		return nil
	}
	return u.queryLog.ClearHistory(ctx, userID)
}
