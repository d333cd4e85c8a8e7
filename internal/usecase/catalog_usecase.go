package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

// ErrNoDataset dataset fayli hali yo'q
var ErrNoDataset = errors.New("dataset file not found")

// Ingest manbalari (metrikalar uchun)
const (
	SourceFile   = "file"
	SourceUpload = "upload"
	SourceMail   = "mail"
)

// CatalogUseCase katalogni yuklash, qayta yuklash va pochtani tekshirish
type CatalogUseCase interface {
	// IngestFile diskdagi Excel fayldan katalogni almashtirish
	IngestFile(ctx context.Context, path string) (int, error)

	// IngestBytes Telegram orqali yuborilgan fayldan katalogni almashtirish
	IngestBytes(ctx context.Context, data []byte, filename string) (int, error)

	// Reload oxirgi saqlangan datasetdan qayta yuklash
	Reload(ctx context.Context) (int, error)

	// PollMail pochtadan yangi fayl bo'lsa katalogni yangilash
	PollMail(ctx context.Context) (bool, error)

	// Info katalog haqida matn
	Info(ctx context.Context) (string, error)
}

type catalogUseCase struct {
	catalog  repository.CatalogRepository
	decoder  repository.TabularDecoder
	dataset  repository.DatasetStore
	fetcher  repository.MailFetcher
	observer Observer
}

// NewCatalogUseCase yangi CatalogUseCase yaratish. fetcher nil bo'lsa pochta o'chirilgan.
func NewCatalogUseCase(
	catalog repository.CatalogRepository,
	decoder repository.TabularDecoder,
	dataset repository.DatasetStore,
	fetcher repository.MailFetcher,
	observer Observer,
) CatalogUseCase {
	return &catalogUseCase{
		catalog:  catalog,
		decoder:  decoder,
		dataset:  dataset,
		fetcher:  fetcher,
		observer: observerOrNop(observer),
	}
}

// IngestFile diskdagi Excel fayldan katalogni almashtirish
func (u *catalogUseCase) IngestFile(ctx context.Context, path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%s: %w", path, ErrNoDataset)
		}
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	log.Printf("📥 Katalog yuklanmoqda: %s", path)
	records, err := u.decoder.DecodeFile(ctx, path)
	if err != nil {
		u.observer.ObserveIngest(SourceFile, 0, err)
		return 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return u.replace(ctx, records, filepath.Base(path), SourceFile)
}

// IngestBytes yuborilgan fayldan katalogni almashtirish va uni dataset sifatida saqlash
func (u *catalogUseCase) IngestBytes(ctx context.Context, data []byte, filename string) (int, error) {
	records, err := u.decoder.DecodeBytes(ctx, data, filename)
	if err != nil {
		u.observer.ObserveIngest(SourceUpload, 0, err)
		return 0, fmt.Errorf("failed to decode %s: %w", filename, err)
	}

	n, err := u.replace(ctx, records, filename, SourceUpload)
	if err != nil {
		return 0, err
	}

	u.saveDataset(data)
	return n, nil
}

// Reload oxirgi saqlangan datasetdan qayta yuklash
func (u *catalogUseCase) Reload(ctx context.Context) (int, error) {
	if u.dataset == nil {
		return 0, ErrNoDataset
	}
	return u.IngestFile(ctx, u.dataset.Path())
}

// PollMail pochtadan yangi fayl bo'lsa katalogni yangilash.
// Buzilgan fayl yoki artikulsiz qatorlar bo'lsa xat o'qilgan deb belgilanadi, saqlashda xato bo'lsa yo'q.
func (u *catalogUseCase) PollMail(ctx context.Context) (bool, error) {
	if u.fetcher == nil {
		return false, fmt.Errorf("mail fetcher is not configured")
	}

	att, err := u.fetcher.FetchLatest(ctx)
	if err != nil {
		u.observer.ObserveMailPoll("error")
		return false, fmt.Errorf("failed to fetch mail: %w", err)
	}
	if att == nil {
		u.observer.ObserveMailPoll("empty")
		return false, nil
	}

	records, err := u.decoder.DecodeBytes(ctx, att.Data, att.Filename)
	if err != nil {
		u.observer.ObserveMailPoll("error")
		u.observer.ObserveIngest(SourceMail, 0, err)
		u.markSeen(ctx, att)
		return false, fmt.Errorf("failed to decode %s: %w", att.Filename, err)
	}

	if _, err := u.replace(ctx, records, att.Filename, SourceMail); err != nil {
		u.observer.ObserveMailPoll("error")
		// artikulsiz qatorlar fayldagi xato, qayta urinish foyda bermaydi
		if errors.Is(err, repository.ErrMissingArticle) {
			u.markSeen(ctx, att)
		}
		return false, err
	}

	u.saveDataset(att.Data)
	u.markSeen(ctx, att)
	u.observer.ObserveMailPoll("updated")

	log.Printf("📨 Katalog pochtadan yangilandi: %s (%q)", att.Filename, att.Subject)
	return true, nil
}

// Info katalog haqida matn
func (u *catalogUseCase) Info(ctx context.Context) (string, error) {
	info, err := u.catalog.Info(ctx)
	if errors.Is(err, repository.ErrCatalogEmpty) {
		return "📭 База данных пуста. Используйте /reload или отправьте Excel-файл.", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get catalog info: %w", err)
	}

	text := fmt.Sprintf("📦 Источник: %s\n", info.Source)
	text += fmt.Sprintf("📅 Обновлено: %s\n", info.UpdatedAt.Format("2006-01-02 15:04"))
	text += fmt.Sprintf("📊 Записей: %d\n", info.Rows)
	text += fmt.Sprintf("🆔 Загрузка: %s", info.IngestID)
	return text, nil
}

func (u *catalogUseCase) replace(ctx context.Context, records []entity.ProductRecord, source, kind string) (int, error) {
	catalog := entity.Catalog{
		Records:   records,
		UpdatedAt: time.Now(),
		Source:    source,
	}

	n, err := u.catalog.Replace(ctx, catalog)
	u.observer.ObserveIngest(kind, n, err)
	if err != nil {
		log.Printf("❌ Katalog yangilanmadi (%s): %v", source, err)
		return 0, fmt.Errorf("failed to replace catalog: %w", err)
	}

	log.Printf("✅ Katalog yangilandi: %s, %d ta qator", source, n)
	return n, nil
}

func (u *catalogUseCase) saveDataset(data []byte) {
	if u.dataset == nil {
		return
	}
	if err := u.dataset.Save(data); err != nil {
		log.Printf("⚠️ Dataset fayli saqlanmadi (%s): %v", u.dataset.Path(), err)
	}
}

func (u *catalogUseCase) markSeen(ctx context.Context, att *entity.Attachment) {
	if err := u.fetcher.MarkSeen(ctx, att); err != nil {
		log.Printf("⚠️ Xat o'qilgan deb belgilanmadi: %v", err)
	}
}
