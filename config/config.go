package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // konteynerda zoneinfo bo'lmasligi mumkin

	"github.com/joho/godotenv"
)

// Config ilovaning konfiguratsiyasi
type Config struct {
	TelegramToken string
	AdminIDs      []int64
	SendRate      float64 // Telegram ga soniyada nechta xabar

	DBFile        string // bo'sh bo'lsa katalog xotirada
	HistoryDBPath string // bo'sh bo'lsa tarix o'chirilgan
	HistorySize   int
	ExcelFile     string

	ArticleMinDigits  int
	AlnumRequireDigit bool // true bo'lsa "Hello" kabi so'zlar artikul hisoblanmaydi
	MaxResults        int

	Mail MailConfig

	MetricsAddr string // bo'sh bo'lsa metrics server yo'q
}

// MailConfig pochta va kunlik tekshiruv sozlamalari
type MailConfig struct {
	IMAPAddr      string // bo'sh bo'lsa pochta tekshirilmaydi
	Username      string
	Password      string
	Mailbox       string
	Sender        string
	Schedule      string
	Location      *time.Location
	RetryAttempts int
	RetryDelay    time.Duration
}

// Enabled pochta sozlanganmi
func (m MailConfig) Enabled() bool {
	return m.IMAPAddr != ""
}

// Load konfiguratsiyani yuklash
func Load() (*Config, error) {
	// .env faylini yuklash (mavjud bo'lsa)
	_ = godotenv.Load()

	config := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		SendRate:         25,
		DBFile:           "data/products.db",
		HistoryDBPath:    "data/history.db",
		HistorySize:      20, // Default qiymat
		ExcelFile:        "data/bot_data.xlsx",
		ArticleMinDigits: 5,
		MaxResults:       20,
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
		Mail: MailConfig{
			IMAPAddr:      os.Getenv("MAIL_IMAP_ADDR"),
			Username:      os.Getenv("MAIL_USERNAME"),
			Password:      os.Getenv("MAIL_PASSWORD"),
			Mailbox:       "INBOX",
			Sender:        os.Getenv("MAIL_SENDER"),
			Schedule:      "0 20 * * *",
			RetryAttempts: 3,
			RetryDelay:    time.Hour,
		},
	}

	// DB_FILE="" xotiradagi katalogni tanlaydi, shuning uchun LookupEnv
	if v, ok := os.LookupEnv("DB_FILE"); ok {
		config.DBFile = v
	}
	if v, ok := os.LookupEnv("HISTORY_DB_PATH"); ok {
		config.HistoryDBPath = v
	}
	if v := os.Getenv("EXCEL_FILE"); v != "" {
		config.ExcelFile = v
	}
	if v := os.Getenv("MAIL_MAILBOX"); v != "" {
		config.Mail.Mailbox = v
	}
	if v := os.Getenv("MAIL_SCHEDULE"); v != "" {
		config.Mail.Schedule = v
	}

	var err error
	if config.HistorySize, err = intEnv("HISTORY_SIZE", config.HistorySize); err != nil {
		return nil, err
	}
	if config.ArticleMinDigits, err = intEnv("ARTICLE_MIN_DIGITS", config.ArticleMinDigits); err != nil {
		return nil, err
	}
	if config.MaxResults, err = intEnv("MAX_RESULTS", config.MaxResults); err != nil {
		return nil, err
	}
	if config.Mail.RetryAttempts, err = intEnv("MAIL_RETRY_ATTEMPTS", config.Mail.RetryAttempts); err != nil {
		return nil, err
	}

	if raw := os.Getenv("ARTICLE_ALNUM_REQUIRE_DIGIT"); raw != "" {
		if config.AlnumRequireDigit, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("ARTICLE_ALNUM_REQUIRE_DIGIT noto'g'ri: %q", raw)
		}
	}

	if raw := os.Getenv("MAIL_RETRY_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("MAIL_RETRY_DELAY noto'g'ri formatda: %v", err)
		}
		config.Mail.RetryDelay = d
	}

	if raw := os.Getenv("SEND_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("SEND_RATE noto'g'ri: %q", raw)
		}
		config.SendRate = rate
	}

	tz := os.Getenv("MAIL_TIMEZONE")
	if tz == "" {
		tz = "Europe/Moscow"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("MAIL_TIMEZONE noto'g'ri: %v", err)
	}
	config.Mail.Location = loc

	if config.AdminIDs, err = parseIDs(os.Getenv("ADMIN_IDS")); err != nil {
		return nil, err
	}

	// Validatsiya
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable bo'sh")
	}
	if config.ArticleMinDigits < 2 {
		return nil, fmt.Errorf("ARTICLE_MIN_DIGITS kamida 2 bo'lishi kerak")
	}
	if config.MaxResults < 1 {
		return nil, fmt.Errorf("MAX_RESULTS kamida 1 bo'lishi kerak")
	}
	if config.HistorySize < 1 {
		return nil, fmt.Errorf("HISTORY_SIZE kamida 1 bo'lishi kerak")
	}
	if config.Mail.Enabled() && config.Mail.Username == "" {
		return nil, fmt.Errorf("MAIL_USERNAME environment variable bo'sh")
	}

	return config, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s noto'g'ri formatda: %v", key, err)
	}
	return v, nil
}

// parseIDs "1,2, 3" ko'rinishidagi ro'yxat
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS noto'g'ri formatda: %v", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
