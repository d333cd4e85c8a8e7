package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/products.db", cfg.DBFile)
	assert.Equal(t, "data/history.db", cfg.HistoryDBPath)
	assert.Equal(t, "data/bot_data.xlsx", cfg.ExcelFile)
	assert.Equal(t, 20, cfg.HistorySize)
	assert.Equal(t, 5, cfg.ArticleMinDigits)
	assert.False(t, cfg.AlnumRequireDigit)
	assert.Equal(t, 20, cfg.MaxResults)
	assert.Equal(t, 25.0, cfg.SendRate)
	assert.Equal(t, "INBOX", cfg.Mail.Mailbox)
	assert.Equal(t, "0 20 * * *", cfg.Mail.Schedule)
	assert.Equal(t, 3, cfg.Mail.RetryAttempts)
	assert.Equal(t, time.Hour, cfg.Mail.RetryDelay)
	assert.Equal(t, "Europe/Moscow", cfg.Mail.Location.String())
	assert.False(t, cfg.Mail.Enabled())
	assert.Empty(t, cfg.AdminIDs)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("DB_FILE", "")
	t.Setenv("HISTORY_DB_PATH", "/tmp/h.db")
	t.Setenv("ARTICLE_MIN_DIGITS", "6")
	t.Setenv("ARTICLE_ALNUM_REQUIRE_DIGIT", "true")
	t.Setenv("ADMIN_IDS", "1, 2,,3")
	t.Setenv("MAIL_IMAP_ADDR", "imap.mail.ru:993")
	t.Setenv("MAIL_USERNAME", "bot@mail.ru")
	t.Setenv("MAIL_RETRY_DELAY", "15m")
	t.Setenv("MAIL_TIMEZONE", "UTC")
	t.Setenv("SEND_RATE", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.DBFile)
	assert.Equal(t, "/tmp/h.db", cfg.HistoryDBPath)
	assert.Equal(t, 6, cfg.ArticleMinDigits)
	assert.True(t, cfg.AlnumRequireDigit)
	assert.Equal(t, []int64{1, 2, 3}, cfg.AdminIDs)
	assert.True(t, cfg.Mail.Enabled())
	assert.Equal(t, 15*time.Minute, cfg.Mail.RetryDelay)
	assert.Equal(t, time.UTC, cfg.Mail.Location)
	assert.Equal(t, 5.0, cfg.SendRate)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing token", env: map[string]string{"TELEGRAM_BOT_TOKEN": ""}},
		{name: "bad admin id", env: map[string]string{"ADMIN_IDS": "abc"}},
		{name: "bad min digits", env: map[string]string{"ARTICLE_MIN_DIGITS": "1"}},
		{name: "bad alnum flag", env: map[string]string{"ARTICLE_ALNUM_REQUIRE_DIGIT": "maybe"}},
		{name: "bad max results", env: map[string]string{"MAX_RESULTS": "x"}},
		{name: "bad retry delay", env: map[string]string{"MAIL_RETRY_DELAY": "soon"}},
		{name: "bad timezone", env: map[string]string{"MAIL_TIMEZONE": "Mars/Base"}},
		{name: "bad send rate", env: map[string]string{"SEND_RATE": "0"}},
		{name: "mail without user", env: map[string]string{"MAIL_IMAP_ADDR": "imap:993", "MAIL_USERNAME": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TELEGRAM_BOT_TOKEN", "token")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
