package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/article-stock-bot/internal/domain/article"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
	"github.com/yourusername/article-stock-bot/internal/infrastructure/storage"
)

type fakeQueryLog struct {
	mu      sync.Mutex
	entries []entity.QueryLogEntry
	saveErr error
}

func (f *fakeQueryLog) SaveQuery(ctx context.Context, entry entity.QueryLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeQueryLog) GetHistory(ctx context.Context, userID int64, limit int) ([]entity.QueryLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.QueryLogEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeQueryLog) ClearHistory(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
	return nil
}

func (f *fakeQueryLog) Close() error { return nil }

type failingCatalog struct {
	repository.CatalogRepository
	err error
}

func (f failingCatalog) LookupBatch(ctx context.Context, cleanKeys, spacedKeys []string) ([]entity.ProductRecord, error) {
	return nil, f.err
}

func stockCatalog(t *testing.T) repository.CatalogRepository {
	t.Helper()
	repo := storage.NewMemoryCatalogRepository()
	_, err := repo.Replace(context.Background(), entity.Catalog{
		Source:    "для бота.xlsx",
		UpdatedAt: time.Now(),
		Records: []entity.ProductRecord{
			{Article: "805015", Name: "Коронка", Warehouse: "Склад Б", Price: price(1200), Currency: "KZT", Period: "2024-05-01"},
			{Article: "805015", Name: "Коронка", Warehouse: "Склад А", Price: price(1250.5), Currency: "KZT", Period: "2024-05-01"},
			{Article: "805017", Name: "Долото", Warehouse: "Склад А", Currency: "KZT"},
			{Article: "3222339007", Name: "Штанга", Warehouse: "Склад А", Price: price(99), Currency: "RUB"},
			{Article: "RC1206JR-076R8L", Name: "Резистор", Warehouse: "Склад В", Price: price(1), Currency: "RUB"},
		},
	})
	require.NoError(t, err)
	return repo
}

func newLookup(t *testing.T, catalog repository.CatalogRepository, queryLog repository.QueryLogRepository) LookupUseCase {
	t.Helper()
	extractor, err := article.NewExtractor(article.ExtractorConfig{})
	require.NoError(t, err)
	return NewLookupUseCase(extractor, catalog, queryLog, MaxBlocks, 10, nil)
}

func TestProcessMessage_TwoArticles(t *testing.T) {
	uc := newLookup(t, stockCatalog(t), nil)

	reply, err := uc.ProcessMessage(context.Background(), 1, "ivan", "где 805015 и 805017")
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(reply, "📦 Артикул:"))
	assert.Less(t, strings.Index(reply, "Склад А"), strings.Index(reply, "Склад Б"), "warehouses are ordered")
	assert.Less(t, strings.Index(reply, "805015"), strings.Index(reply, "805017"))
	assert.Contains(t, reply, "💰 Цена: нет цены")
	assert.NotContains(t, reply, "не найден")
}

func TestProcessMessage_NoArticle(t *testing.T) {
	uc := newLookup(t, stockCatalog(t), nil)

	reply, err := uc.ProcessMessage(context.Background(), 1, "ivan", "привет, есть коронки?")
	require.NoError(t, err)
	assert.Equal(t, NoArticleReply, reply)
}

func TestProcessMessage_CompoundFallsBackToClean(t *testing.T) {
	uc := newLookup(t, stockCatalog(t), nil)

	reply, err := uc.ProcessMessage(context.Background(), 1, "ivan", "нужна 3222 3390 07")
	require.NoError(t, err)

	assert.Contains(t, reply, "📦 Артикул: 3222339007")
	assert.Equal(t, 1, strings.Count(reply, "📦 Артикул:"))
}

func TestProcessMessage_AlphanumericIgnoresCase(t *testing.T) {
	uc := newLookup(t, stockCatalog(t), nil)

	reply, err := uc.ProcessMessage(context.Background(), 1, "ivan", "rc1206jr-076r8l")
	require.NoError(t, err)
	assert.Contains(t, reply, "🏷 Наименование: Резистор")

	reply, err = uc.ProcessMessage(context.Background(), 1, "ivan", "нужен RC1206JR076R8L")
	require.NoError(t, err)
	assert.Contains(t, reply, "📦 Артикул: RC1206JR-076R8L")
}

func TestProcessMessage_LettersOnlyTokenIsLookedUp(t *testing.T) {
	uc := newLookup(t, stockCatalog(t), nil)

	reply, err := uc.ProcessMessage(context.Background(), 1, "ivan", "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, "❌ Артикул ABCDEF не найден в базе.", reply)
}

func TestProcessMessage_NotFound(t *testing.T) {
	uc := newLookup(t, stockCatalog(t), nil)

	reply, err := uc.ProcessMessage(context.Background(), 1, "ivan", "805015 и 999999")
	require.NoError(t, err)

	assert.Contains(t, reply, "📦 Артикул: 805015")
	assert.True(t, strings.HasSuffix(reply, "❌ Артикул 999999 не найден в базе."))
}

func TestProcessMessage_EmptyCatalog(t *testing.T) {
	uc := newLookup(t, storage.NewMemoryCatalogRepository(), nil)

	reply, err := uc.ProcessMessage(context.Background(), 1, "ivan", "805015")
	require.NoError(t, err)
	assert.Equal(t, "❌ Артикул 805015 не найден в базе.", reply)
}

func TestProcessMessage_StorageError(t *testing.T) {
	boom := errors.New("disk I/O error")
	uc := newLookup(t, failingCatalog{err: boom}, nil)

	_, err := uc.ProcessMessage(context.Background(), 1, "ivan", "805015")
	assert.ErrorIs(t, err, boom)
}

func TestProcessMessage_History(t *testing.T) {
	queryLog := &fakeQueryLog{}
	uc := newLookup(t, stockCatalog(t), queryLog)
	ctx := context.Background()

	_, err := uc.ProcessMessage(ctx, 7, "ivan", "805015 и 999999")
	require.NoError(t, err)
	_, err = uc.ProcessMessage(ctx, 7, "ivan", "просто текст")
	require.NoError(t, err)

	history, err := uc.GetHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 1, "messages without articles are not logged")
	assert.Equal(t, "805015 и 999999", history[0].Text)
	assert.Equal(t, 1, history[0].Found)
	assert.Equal(t, 1, history[0].Missing)
	assert.NotEmpty(t, history[0].ID)

	require.NoError(t, uc.ClearHistory(ctx, 7))
	history, err = uc.GetHistory(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestProcessMessage_HistoryErrorDoesNotFailReply(t *testing.T) {
	uc := newLookup(t, stockCatalog(t), &fakeQueryLog{saveErr: errors.New("readonly")})

	reply, err := uc.ProcessMessage(context.Background(), 1, "ivan", "805017")
	require.NoError(t, err)
	assert.Contains(t, reply, "805017")
}

func TestHistory_Disabled(t *testing.T) {
	uc := newLookup(t, stockCatalog(t), nil)

	history, err := uc.GetHistory(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, history)
	assert.NoError(t, uc.ClearHistory(context.Background(), 1))
}
