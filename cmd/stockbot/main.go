package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yourusername/article-stock-bot/config"
	"github.com/yourusername/article-stock-bot/internal/delivery/telegram"
	"github.com/yourusername/article-stock-bot/internal/domain/article"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
	"github.com/yourusername/article-stock-bot/internal/infrastructure/mail"
	"github.com/yourusername/article-stock-bot/internal/infrastructure/metrics"
	"github.com/yourusername/article-stock-bot/internal/infrastructure/parser"
	"github.com/yourusername/article-stock-bot/internal/infrastructure/scheduler"
	"github.com/yourusername/article-stock-bot/internal/infrastructure/storage"
	"github.com/yourusername/article-stock-bot/internal/usecase"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("❌ %v", err)
	}
	log.Println("👋 Bot to'xtadi")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrikalar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Katalog: sqlite yoki xotira
	var catalogRepo repository.CatalogRepository
	if cfg.DBFile != "" {
		catalogRepo, err = storage.NewSQLiteCatalogRepository(cfg.DBFile)
		if err != nil {
			return fmt.Errorf("catalog storage: %w", err)
		}
		log.Printf("💾 Katalog SQLite: %s", cfg.DBFile)
	} else {
		catalogRepo = storage.NewMemoryCatalogRepository()
		log.Println("💾 Katalog xotirada")
	}
	defer catalogRepo.Close()

	// So'rovlar tarixi (ixtiyoriy)
	var queryLog repository.QueryLogRepository
	if cfg.HistoryDBPath != "" {
		queryLog, err = storage.NewSQLiteQueryLogRepository(cfg.HistoryDBPath, cfg.HistorySize)
		if err != nil {
			return fmt.Errorf("history storage: %w", err)
		}
		defer queryLog.Close()
	}

	extractor, err := article.NewExtractor(article.ExtractorConfig{
		MinSimpleDigits:   cfg.ArticleMinDigits,
		AlnumRequireDigit: cfg.AlnumRequireDigit,
	})
	if err != nil {
		return fmt.Errorf("extractor: %w", err)
	}

	var fetcher repository.MailFetcher
	if cfg.Mail.Enabled() {
		fetcher, err = mail.NewIMAPFetcher(mail.Config{
			Addr:     cfg.Mail.IMAPAddr,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			Mailbox:  cfg.Mail.Mailbox,
			Sender:   cfg.Mail.Sender,
		})
		if err != nil {
			return fmt.Errorf("mail: %w", err)
		}
	}

	lookupUseCase := usecase.NewLookupUseCase(extractor, catalogRepo, queryLog, cfg.MaxResults, cfg.HistorySize, m)
	catalogUseCase := usecase.NewCatalogUseCase(
		catalogRepo,
		parser.NewExcelParser(),
		mail.NewDatasetStore(cfg.ExcelFile),
		fetcher,
		m,
	)

	initialIngest(ctx, catalogRepo, catalogUseCase)

	// Kunlik pochta tekshiruvi
	if fetcher != nil {
		sched, err := scheduler.New(scheduler.Config{
			Spec:     cfg.Mail.Schedule,
			Location: cfg.Mail.Location,
			Attempts: cfg.Mail.RetryAttempts,
			Delay:    cfg.Mail.RetryDelay,
		})
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		err = sched.Add(ctx, "mail poll", func(ctx context.Context) error {
			_, err := catalogUseCase.PollMail(ctx)
			return err
		})
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	} else {
		log.Println("📭 MAIL_IMAP_ADDR bo'sh, pochta tekshirilmaydi")
	}

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, metrics.NewRouter(reg, catalogStatus(catalogRepo)))
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("⚠️ %v", err)
			}
		}()
	}

	bot, err := telegram.NewBotHandler(cfg.TelegramToken, cfg.AdminIDs, cfg.SendRate, lookupUseCase, catalogUseCase)
	if err != nil {
		return err
	}

	return bot.Start(ctx)
}

// initialIngest katalog bo'sh bo'lsa EXCEL_FILE dan yuklash
func initialIngest(ctx context.Context, catalogRepo repository.CatalogRepository, catalogUseCase usecase.CatalogUseCase) {
	if info, err := catalogRepo.Info(ctx); err == nil {
		log.Printf("📦 Katalog mavjud: %s, %d ta qator (%s)", info.Source, info.Rows, info.UpdatedAt.Format("2006-01-02 15:04"))
		return
	}

	if _, err := catalogUseCase.Reload(ctx); err != nil {
		if errors.Is(err, usecase.ErrNoDataset) {
			log.Printf("⚠️ Dataset fayli hali yo'q, katalog bo'sh")
			return
		}
		log.Printf("❌ Boshlang'ich yuklash: %v", err)
	}
}

func catalogStatus(catalogRepo repository.CatalogRepository) metrics.StatusFunc {
	return func(ctx context.Context) (string, string) {
		info, err := catalogRepo.Info(ctx)
		if errors.Is(err, repository.ErrCatalogEmpty) {
			return "empty", "catalog not loaded"
		}
		if err != nil {
			return "error", err.Error()
		}
		return "ok", fmt.Sprintf("%d rows from %s, updated %s", info.Rows, info.Source, info.UpdatedAt.Format(time.RFC3339))
	}
}
