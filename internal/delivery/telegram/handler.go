package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
	"github.com/yourusername/article-stock-bot/internal/usecase"
	"golang.org/x/time/rate"
)

const (
	// Telegram xabar limiti 4096 UTF-16 birlik, zaxira bilan
	maxMessageLen = 4000

	// Bot API getFile 20MB dan katta fayllarni bermaydi
	maxUploadSize = 20 * 1024 * 1024
)

// BotHandler Telegram bot handler
type BotHandler struct {
	bot            *tgbotapi.BotAPI
	lookupUseCase  usecase.LookupUseCase
	catalogUseCase usecase.CatalogUseCase
	admins         map[int64]bool
	limiter        *rate.Limiter
	httpClient     *http.Client
}

// NewBotHandler yangi bot handler yaratish
func NewBotHandler(
	token string,
	adminIDs []int64,
	sendRate float64,
	lookupUseCase usecase.LookupUseCase,
	catalogUseCase usecase.CatalogUseCase,
) (*BotHandler, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &BotHandler{
		bot:            bot,
		lookupUseCase:  lookupUseCase,
		catalogUseCase: catalogUseCase,
		admins:         adminSet(adminIDs),
		limiter:        newSendLimiter(sendRate),
		httpClient:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func adminSet(ids []int64) map[int64]bool {
	admins := make(map[int64]bool, len(ids))
	for _, id := range ids {
		admins[id] = true
	}
	return admins
}

func newSendLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Start botni ishga tushirish
func (h *BotHandler) Start(ctx context.Context) error {
	log.Printf("Bot @%s ishga tushdi!", h.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			log.Println("Bot to'xtatilmoqda...")
			h.bot.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go h.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage xabarni qayta ishlash
func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic: %v", r)
			h.sendMessage(ctx, message.Chat.ID, "⚠️ Ошибка при обработке запроса.")
		}
	}()

	if message.From == nil {
		return
	}

	// Fayl yuborilgan bo'lsa
	if message.Document != nil {
		h.handleDocumentMessage(ctx, message)
		return
	}

	// Komandalarni qayta ishlash
	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	if strings.TrimSpace(message.Text) != "" {
		h.handleTextMessage(ctx, message)
	}
}

// handleCommand komandalarni qayta ishlash
func (h *BotHandler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start", "help":
		h.sendMessageMarkdown(ctx, message.Chat.ID, helpMessage)
	case "reload":
		h.handleReloadCommand(ctx, message)
	case "catalog":
		h.handleCatalogCommand(ctx, message)
	case "history":
		h.handleHistoryCommand(ctx, message)
	case "clear":
		h.handleClearCommand(ctx, message)
	default:
		h.sendMessage(ctx, message.Chat.ID, "Неизвестная команда. /help — справка.")
	}
}

const helpMessage = "🔍 *Бот для поиска товаров по артикулу*\n\n" +
	"Отправьте мне артикул товара — и я найду его в базе.\n" +
	"Примеры:\n" +
	"`805015`\n" +
	"`где 805015 и 805017`\n" +
	"`3222 3390 07`\n" +
	"`RC1206JR-076R8L`\n\n" +
	"/catalog — состояние базы\n" +
	"/history — последние запросы\n" +
	"/clear — очистить историю\n" +
	"/reload — перезагрузить базу из файла"

// isAdmin ADMIN_IDS bo'sh bo'lsa hamma admin
func (h *BotHandler) isAdmin(userID int64) bool {
	return len(h.admins) == 0 || h.admins[userID]
}

// handleReloadCommand bazani fayldan qayta yuklash
func (h *BotHandler) handleReloadCommand(ctx context.Context, message *tgbotapi.Message) {
	if !h.isAdmin(message.From.ID) {
		h.sendMessage(ctx, message.Chat.ID, "❌ Команда доступна только администраторам.")
		return
	}

	h.sendMessage(ctx, message.Chat.ID, "🔄 Перезагружаю базу данных...")

	count, err := h.catalogUseCase.Reload(ctx)
	if err != nil {
		log.Printf("Reload error: %v", err)
		if errors.Is(err, usecase.ErrNoDataset) {
			h.sendMessage(ctx, message.Chat.ID, "❌ Файл с данными ещё не получен. Отправьте Excel-файл.")
			return
		}
		h.sendMessage(ctx, message.Chat.ID, "❌ Не удалось обновить базу данных")
		return
	}

	h.sendMessage(ctx, message.Chat.ID, fmt.Sprintf("✅ База данных успешно обновлена (%d записей)", count))
}

// handleCatalogCommand katalog holati
func (h *BotHandler) handleCatalogCommand(ctx context.Context, message *tgbotapi.Message) {
	info, err := h.catalogUseCase.Info(ctx)
	if err != nil {
		log.Printf("Catalog info error: %v", err)
		h.sendMessage(ctx, message.Chat.ID, "⚠️ Не удалось получить состояние базы.")
		return
	}
	h.sendMessage(ctx, message.Chat.ID, info)
}

// handleDocumentMessage fayl yuborilganda
func (h *BotHandler) handleDocumentMessage(ctx context.Context, message *tgbotapi.Message) {
	if !h.isAdmin(message.From.ID) {
		h.sendMessage(ctx, message.Chat.ID, "❌ Загружать файлы могут только администраторы.")
		return
	}

	doc := message.Document

	// Fayl hajmini tekshirish
	if doc.FileSize > maxUploadSize {
		h.sendMessage(ctx, message.Chat.ID, "❌ Файл больше 20 МБ.")
		return
	}

	// Fayl turini tekshirish
	if !strings.EqualFold(filepath.Ext(doc.FileName), ".xlsx") {
		h.sendMessage(ctx, message.Chat.ID, "❌ Принимаются только файлы Excel (.xlsx).")
		return
	}

	h.sendMessage(ctx, message.Chat.ID, "⏳ Файл загружается и обрабатывается...")

	// Faylni yuklash
	fileBytes, err := h.downloadFile(ctx, doc.FileID)
	if err != nil {
		log.Printf("File download error: %v", err)
		h.sendMessage(ctx, message.Chat.ID, "❌ Не удалось скачать файл.")
		return
	}

	// Katalogni yangilash
	count, err := h.catalogUseCase.IngestBytes(ctx, fileBytes, doc.FileName)
	if err != nil {
		log.Printf("Upload catalog error: %v", err)
		h.sendMessage(ctx, message.Chat.ID, uploadErrorText(err))
		return
	}

	h.sendMessage(ctx, message.Chat.ID, fmt.Sprintf("✅ База данных обновлена!\n\n📦 Записей: %d\n📄 Файл: %s", count, doc.FileName))
}

func uploadErrorText(err error) string {
	switch {
	case errors.Is(err, repository.ErrNoArticleColumn):
		return "❌ В файле не найдена колонка «Артикул»."
	case errors.Is(err, repository.ErrMissingArticle):
		return "❌ В файле есть строки без артикула. База не изменена."
	}
	return "❌ Не удалось обновить базу данных. Предыдущие данные сохранены."
}

// downloadFile Telegram dan faylni yuklash
func (h *BotHandler) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := h.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(h.bot.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxUploadSize+1))
}

// handleTextMessage matndan artikul qidirish
func (h *BotHandler) handleTextMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	username := message.From.UserName
	if username == "" {
		username = message.From.FirstName
	}

	log.Printf("💬 %d (%s): %s", message.From.ID, username, truncateString(message.Text, 200))

	// "typing" indikatori
	if _, err := h.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("Chat action error: %v", err)
	}

	response, err := h.lookupUseCase.ProcessMessage(ctx, message.From.ID, username, message.Text)
	if err != nil {
		log.Printf("Xatolik: %v", err)
		h.sendMessage(ctx, chatID, "⚠️ Ошибка при обработке запроса. Попробуйте ещё раз.")
		return
	}

	h.sendMessage(ctx, chatID, response)
}

// handleClearCommand tarixni tozalash
func (h *BotHandler) handleClearCommand(ctx context.Context, message *tgbotapi.Message) {
	if err := h.lookupUseCase.ClearHistory(ctx, message.From.ID); err != nil {
		log.Printf("Clear history error: %v", err)
		h.sendMessage(ctx, message.Chat.ID, "⚠️ Не удалось очистить историю.")
		return
	}
	h.sendMessage(ctx, message.Chat.ID, "✅ История запросов очищена.")
}

// handleHistoryCommand tarixni ko'rsatish
func (h *BotHandler) handleHistoryCommand(ctx context.Context, message *tgbotapi.Message) {
	history, err := h.lookupUseCase.GetHistory(ctx, message.From.ID)
	if err != nil {
		log.Printf("History error: %v", err)
		h.sendMessage(ctx, message.Chat.ID, "⚠️ Не удалось получить историю.")
		return
	}

	h.sendMessage(ctx, message.Chat.ID, formatHistory(history))
}

// formatHistory so'rovlar tarixi matni
func formatHistory(history []entity.QueryLogEntry) string {
	if len(history) == 0 {
		return "История запросов пуста."
	}

	var sb strings.Builder
	sb.WriteString("📜 Последние запросы:\n\n")
	for i, entry := range history {
		status := "✅"
		if entry.Found == 0 {
			status = "❌"
		}
		fmt.Fprintf(&sb, "%d. %s %s %s", i+1, entry.Timestamp.Format("02.01 15:04"), status, truncateString(entry.Text, 100))
		if entry.Missing > 0 && entry.Found > 0 {
			fmt.Fprintf(&sb, " (не найдено: %d)", entry.Missing)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// sendMessage xabarni bo'laklarga bo'lib yuborish
func (h *BotHandler) sendMessage(ctx context.Context, chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		h.send(ctx, msg)
	}
}

// sendMessageMarkdown Markdown formatdagi xabar
func (h *BotHandler) sendMessageMarkdown(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	h.send(ctx, msg)
}

func (h *BotHandler) send(ctx context.Context, msg tgbotapi.MessageConfig) {
	if err := h.limiter.Wait(ctx); err != nil {
		log.Printf("Xabar yuborilmadi: %v", err)
		return
	}
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Xabar yuborishda xatolik: %v", err)
	}
}

// splitMessage matnni qator chegaralarida limitdan oshmaydigan bo'laklarga bo'lish.
// Uzunlik UTF-16 birliklarida (Telegram shunday sanaydi), juda uzun qator belgilar bo'yicha kesiladi.
func splitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if chunk := strings.TrimRight(current.String(), "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		size = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf16Len(line)
		if size+n <= limit {
			current.WriteString(line)
			size += n
			continue
		}
		flush()
		for _, r := range line {
			w := utf16.RuneLen(r)
			if size+w > limit {
				flush()
			}
			current.WriteRune(r)
			size += w
		}
	}
	flush()

	return chunks
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func truncateString(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
