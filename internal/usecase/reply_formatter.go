package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yourusername/article-stock-bot/internal/domain/article"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
)

const (
	// MaxBlocks bitta javobdagi mahsulot bloklari soni
	MaxBlocks = 20

	noPriceMarker = "нет цены"
	emptyField    = "—"
)

// LookupFunc bitta so'rov uchun katalogdan qatorlar
type LookupFunc func(q article.Query) ([]entity.ProductRecord, error)

// Reply formatlangan javob va statistika
type Reply struct {
	Text    string
	Found   int // topilgan so'rovlar
	Missing int // topilmagan so'rovlar
	Blocks  int
	Hidden  int // limitdan oshgan bloklar
}

// ReplyFormatter so'rov natijalarini bitta matnga yig'ish
type ReplyFormatter struct {
	maxBlocks int
}

// NewReplyFormatter yangi formatter. maxBlocks <= 0 bo'lsa MaxBlocks.
func NewReplyFormatter(maxBlocks int) *ReplyFormatter {
	if maxBlocks <= 0 {
		maxBlocks = MaxBlocks
	}
	return &ReplyFormatter{maxBlocks: maxBlocks}
}

// FormatReply standart limit bilan javob matni
func FormatReply(queries []article.Query, lookup LookupFunc) (string, error) {
	reply, err := NewReplyFormatter(MaxBlocks).Render(queries, lookup)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// Render so'rovlarni extractor tartibida ko'rib chiqadi. Oldingi so'rov chiqargan
// artikul qayta chiqarilmaydi, topilmaganlar oxirida ro'yxat bo'ladi.
func (f *ReplyFormatter) Render(queries []article.Query, lookup LookupFunc) (Reply, error) {
	var (
		reply   Reply
		blocks  []string
		missing []string
		seen    = make(map[string]bool)
	)

	for _, q := range queries {
		rows, err := lookup(q)
		if err != nil {
			return Reply{}, fmt.Errorf("lookup %q: %w", q.Raw, err)
		}
		if len(rows) == 0 {
			missing = append(missing, q.Raw)
			continue
		}
		reply.Found++

		var added []string
		for _, r := range rows {
			if seen[r.Article] {
				continue
			}
			if len(blocks) < f.maxBlocks {
				blocks = append(blocks, formatBlock(r))
			} else {
				reply.Hidden++
			}
			added = append(added, r.Article)
		}
		for _, a := range added {
			seen[a] = true
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(blocks, "\n"))

	if reply.Hidden > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "ℹ️ ... ещё %d. Уточните артикул для более точного поиска.\n", reply.Hidden)
	}

	if len(missing) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		for _, m := range missing {
			fmt.Fprintf(&sb, "❌ Артикул %s не найден в базе.\n", m)
		}
	}

	reply.Text = strings.TrimRight(sb.String(), "\n")
	reply.Missing = len(missing)
	reply.Blocks = len(blocks)
	return reply, nil
}

// formatBlock bitta qator uchun blok
func formatBlock(r entity.ProductRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Период: %s\n", orDash(r.Period))
	fmt.Fprintf(&sb, "📦 Артикул: %s\n", orDash(r.Article))
	fmt.Fprintf(&sb, "🏷 Наименование: %s\n", orDash(r.Name))
	fmt.Fprintf(&sb, "🔢 Код: %s\n", orDash(r.Code))
	fmt.Fprintf(&sb, "🏭 Склад: %s\n", orDash(r.Warehouse))
	fmt.Fprintf(&sb, "📊 Остаток: %s\n", formatNumber(r.Quantity))
	fmt.Fprintf(&sb, "💰 Цена: %s\n", formatPrice(r))
	fmt.Fprintf(&sb, "📅 Дата цены: %s\n", orDash(r.PriceDate))
	return sb.String()
}

func formatPrice(r entity.ProductRecord) string {
	if r.Price == nil || math.IsNaN(*r.Price) {
		return noPriceMarker
	}
	price := formatNumber(r.Price)
	if r.Currency == "" {
		return price
	}
	return price + " " + r.Currency
}

func formatNumber(v *float64) string {
	if v == nil {
		return emptyField
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return emptyField
	}
	return s
}
