package repository

import (
	"context"
	"errors"

	"github.com/yourusername/article-stock-bot/internal/domain/entity"
)

// ErrNoArticleColumn jadvalda artikul ustuni topilmadi
var ErrNoArticleColumn = errors.New("article column not found")

// TabularDecoder Excel fayllarni katalog qatorlariga o'girish uchun interface
type TabularDecoder interface {
	// DecodeFile fayldan qatorlarni o'qish
	DecodeFile(ctx context.Context, filePath string) ([]entity.ProductRecord, error)

	// DecodeBytes byte array dan o'qish
	DecodeBytes(ctx context.Context, data []byte, filename string) ([]entity.ProductRecord, error)
}
