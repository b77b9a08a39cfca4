package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"MarketScanner/internal/model"
	"MarketScanner/internal/notifier"
	"MarketScanner/internal/recorder"
	"MarketScanner/internal/scanner"

	"github.com/robfig/cron/v3"
)

// Scheduler drives scan cycles with a fixed delay and runs housekeeping cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Scanner    *scanner.Scanner
	Notifier   notifier.Sender
	Recorder   recorder.Recorder
	Interval   time.Duration // delay between the end of one cycle and the start of the next
	MaxAge     time.Duration // 0 disables stale-window pruning
	MaxRetries int
	Ctx        context.Context // single cancellation source for cycles and sends

	mu    sync.Mutex
	last  *model.CycleReport
	stats model.DailyStats
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, sender notifier.Sender, rec recorder.Recorder, interval, maxAge time.Duration) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		Scanner:  sc,
		Notifier: sender,
		Recorder: rec,
		Interval: interval,
		MaxAge:   maxAge,
		Ctx:      ctx,
		stats:    model.DailyStats{Since: time.Now()},
	}
}

// RegisterAll registers the daily summary and, when pruning is enabled, the prune task.
func (s *Scheduler) RegisterAll(summaryCron, pruneCron string) error {
	if _, err := s.Cron.AddFunc(summaryCron, s.dailySummary); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	if s.MaxAge > 0 {
		if _, err := s.Cron.AddFunc(pruneCron, s.pruneStale); err != nil {
			return fmt.Errorf("register prune task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Run executes scan cycles until Ctx is cancelled. The next cycle starts
// Interval after the previous one finished, so an overrunning cycle delays
// the schedule instead of overlapping. With runOnStart false the first
// cycle waits one interval.
func (s *Scheduler) Run(runOnStart bool) {
	if !runOnStart && !s.wait() {
		return
	}
	for {
		s.RunCycleNow()
		if !s.wait() {
			return
		}
	}
}

func (s *Scheduler) wait() bool {
	timer := time.NewTimer(s.Interval)
	defer timer.Stop()
	select {
	case <-s.Ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RunCycleNow executes one scan cycle immediately.
func (s *Scheduler) RunCycleNow() *model.CycleReport {
	report := s.Scanner.RunCycle(s.Ctx)

	s.mu.Lock()
	s.last = report
	s.stats.Add(report)
	s.mu.Unlock()
	return report
}

// LastReport returns the most recent cycle report, or nil.
func (s *Scheduler) LastReport() *model.CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) dailySummary() {
	log.Println("[INFO] running daily summary")
	s.mu.Lock()
	stats := s.stats
	s.stats = model.DailyStats{Since: time.Now()}
	s.mu.Unlock()

	s.trySend(notifier.FormatDailySummary(&stats, s.Scanner.Store.Len()))
}

func (s *Scheduler) pruneStale() {
	removed := s.Scanner.Store.Prune(time.Now(), s.MaxAge)
	if len(removed) == 0 {
		return
	}
	log.Printf("[INFO] pruned %d stale windows older than %s: %v", len(removed), s.MaxAge, removed)

	s.mu.Lock()
	s.stats.Pruned += len(removed)
	s.mu.Unlock()
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status":
		return notifier.FormatStatus(s.LastReport(), s.Scanner.Store.Len(), s.Interval)
	case "/tracked":
		return notifier.FormatTracked(s.Scanner.Store.Snapshots(), s.Scanner.Store.Size())
	case "/alerts":
		alerts, err := s.Recorder.RecentAlerts(s.Ctx, 10)
		if err != nil {
			log.Printf("[ERROR] load recent alerts: %v", err)
			return "❌ could not load alerts"
		}
		return notifier.FormatRecentAlerts(alerts)
	default:
		return "Available commands:\n• /status\n• /tracked\n• /alerts"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, s.MaxRetries); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
