package repository

import (
	"context"

	"github.com/yourusername/article-stock-bot/internal/domain/entity"
)

// MailFetcher pochtadan yangi Excel faylni olish uchun interface
type MailFetcher interface {
	// FetchLatest eng yangi o'qilmagan xatdagi birinchi .xlsx ilova.
	// Yangi fayl bo'lmasa nil, nil qaytaradi.
	FetchLatest(ctx context.Context) (*entity.Attachment, error)

	// MarkSeen xatni o'qilgan deb belgilash (fayl saqlangandan keyin)
	MarkSeen(ctx context.Context, att *entity.Attachment) error
}
