package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job rejalashtirilgan vazifa
type Job func(ctx context.Context) error

// Config kunlik tekshiruv sozlamalari
type Config struct {
	Spec     string         // cron ifodasi, masalan "0 20 * * *"
	Location *time.Location // nil bo'lsa time.Local
	Attempts int            // xatoda urinishlar soni
	Delay    time.Duration  // urinishlar orasidagi kutish
}

// Scheduler cron asosidagi rejalashtiruvchi
type Scheduler struct {
	cfg      Config
	cron     *cron.Cron
	schedule cron.Schedule
}

// New yangi Scheduler yaratish
func New(cfg Config) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Spec, err)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	logger := cron.PrintfLogger(log.Default())
	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	return &Scheduler{cfg: cfg, cron: c, schedule: schedule}, nil
}

// Add vazifani qo'shish. Vazifa ctx bekor qilinguncha retry bilan ishlaydi.
func (s *Scheduler) Add(ctx context.Context, name string, job Job) error {
	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		log.Printf("⏰ %s boshlandi", name)
		if err := Retry(ctx, s.cfg.Attempts, s.cfg.Delay, name, job); err != nil {
			log.Printf("❌ %s: %v", name, err)
			return
		}
		log.Printf("✅ %s tugadi, keyingisi: %s", name, s.Next(time.Now()).Format("2006-01-02 15:04 MST"))
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}
	return nil
}

// Start rejalashtiruvchini ishga tushirish
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("🗓 Scheduler ishga tushdi (%s, %s), keyingi ishga tushish: %s",
		s.cfg.Spec, s.cfg.Location, s.Next(time.Now()).Format("2006-01-02 15:04 MST"))
}

// Stop to'xtatish va ishlayotgan vazifalarni kutish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next berilgan vaqtdan keyingi ishga tushish vaqti
func (s *Scheduler) Next(from time.Time) time.Time {
	return s.schedule.Next(from.In(s.cfg.Location))
}

// Retry vazifani attempts marta, orasida delay kutib, bajarish
func Retry(ctx context.Context, attempts int, delay time.Duration, name string, job Job) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = job(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		log.Printf("⚠️ %s: urinish %d/%d muvaffaqiyatsiz: %v; %s dan keyin qayta", name, attempt, attempts, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
