package scanner

import (
	"context"
	"fmt"
	"log"
	"time"

	"MarketScanner/internal/model"
	"MarketScanner/internal/recorder"
	"MarketScanner/internal/strategy"
	"MarketScanner/internal/tracker"

	"github.com/google/uuid"
)

// QuoteSource supplies the symbol universe and the per-cycle quotes.
type QuoteSource interface {
	Universe(ctx context.Context) ([]string, error)
	Quotes(ctx context.Context, symbols []string) map[string]*model.Quote
}

// Notifier delivers a fired trend.
type Notifier interface {
	Notify(ctx context.Context, symbol string, r model.TrendResult) (string, error)
}

// Scanner runs scan cycles: filter, window update, detection, alert.
//
// Per symbol the lifecycle is Untracked -> Tracking -> Fired -> Untracked.
// An eligible quote starts or extends a window; a detected trend sends one
// alert and drops the window whether or not delivery succeeded.
type Scanner struct {
	Source   QuoteSource
	Criteria strategy.Criteria
	Detector strategy.Detector
	Store    *tracker.Store
	Notifier Notifier
	Recorder recorder.Recorder
	Now      func() time.Time
}

// NewScanner creates a Scanner.
func NewScanner(src QuoteSource, criteria strategy.Criteria, detector strategy.Detector,
	store *tracker.Store, n Notifier, rec recorder.Recorder) *Scanner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scanner{
		Source:   src,
		Criteria: criteria,
		Detector: detector,
		Store:    store,
		Notifier: n,
		Recorder: rec,
		Now:      time.Now,
	}
}

// RunCycle performs one full pass over the universe. It never returns an
// error: a failed universe fetch is reported in CycleReport.FetchErr and
// per-symbol failures are logged and skipped.
func (s *Scanner) RunCycle(ctx context.Context) *model.CycleReport {
	report := &model.CycleReport{ID: uuid.NewString(), StartedAt: s.Now()}
	log.Printf("[INFO] cycle %s: scanning", report.ID[:8])

	defer func() {
		report.FinishedAt = s.Now()
		report.Tracked = s.Store.Len()
		if err := s.Recorder.RecordCycle(report); err != nil {
			log.Printf("[ERROR] record cycle: %v", err)
		}
	}()

	symbols, err := s.Source.Universe(ctx)
	if err != nil {
		report.FetchErr = err
		log.Printf("[ERROR] cycle %s: %v", report.ID[:8], err)
		return report
	}
	report.Universe = len(symbols)

	quotes := s.Source.Quotes(ctx, symbols)
	report.Quoted = len(quotes)

	for _, sym := range symbols {
		if ctx.Err() != nil {
			log.Printf("[WARN] cycle %s: interrupted: %v", report.ID[:8], ctx.Err())
			break
		}
		s.processSymbol(ctx, report, sym, quotes[sym])
	}

	log.Printf("[INFO] cycle %s: universe=%d quoted=%d gaps=%d eligible=%d tracked=%d alerts=%d",
		report.ID[:8], report.Universe, report.Quoted, report.DataGaps, report.Eligible,
		s.Store.Len(), len(report.Alerts))
	return report
}

func (s *Scanner) processSymbol(ctx context.Context, report *model.CycleReport, sym string, q *model.Quote) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] %s: skipped after panic: %v", sym, r)
		}
	}()

	switch reason := s.Criteria.Check(q); reason {
	case model.ReasonEligible:
		report.Eligible++
	case model.ReasonMissingData:
		report.DataGaps++
		return
	default:
		report.Ineligible++
		return
	}

	snap := s.Store.Update(sym, q.Last, s.Now())
	result := s.Detector.Detect(snap)
	if !result.Fired() {
		return
	}
	s.fire(ctx, report, snap, result)
}

func (s *Scanner) fire(ctx context.Context, report *model.CycleReport, snap model.WindowSnapshot, result model.TrendResult) {
	alert := model.Alert{
		CycleID:   report.ID,
		Symbol:    snap.Symbol,
		Trend:     result,
		WindowLen: snap.Len(),
		FirstSeen: snap.FirstSeen,
		FiredAt:   s.Now(),
	}

	msg, err := s.notifyAndRemove(ctx, snap.Symbol, result)
	alert.Message = msg
	if err != nil {
		alert.DeliveryErr = fmt.Errorf("notify %s: %w", snap.Symbol, err)
		log.Printf("[ERROR] %v", alert.DeliveryErr)
	}
	log.Printf("[INFO] %s %s %.2f%% over %d prices, now %.2f",
		snap.Symbol, result.Kind, result.Percent, snap.Len(), result.Last)

	report.Alerts = append(report.Alerts, alert)

	if err := s.Recorder.RecordAlert(&alert); err != nil {
		log.Printf("[ERROR] record alert: %v", err)
	}
}

// notifyAndRemove drops the window once Notify returns or panics, so a
// fired episode is never delivered twice.
func (s *Scanner) notifyAndRemove(ctx context.Context, symbol string, result model.TrendResult) (string, error) {
	defer s.Store.Remove(symbol)
	return s.Notifier.Notify(ctx, symbol, result)
}
