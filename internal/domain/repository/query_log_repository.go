package repository

import (
	"context"

	"github.com/yourusername/article-stock-bot/internal/domain/entity"
)

// QueryLogRepository so'rovlar tarixi bilan ishlash uchun interface
type QueryLogRepository interface {
	// SaveQuery so'rovni saqlash
	SaveQuery(ctx context.Context, entry entity.QueryLogEntry) error

	// GetHistory foydalanuvchi so'rovlarini olish (eski -> yangi)
	GetHistory(ctx context.Context, userID int64, limit int) ([]entity.QueryLogEntry, error)

	// ClearHistory foydalanuvchi tarixini tozalash
	ClearHistory(ctx context.Context, userID int64) error

	Close() error
}
