package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"MarketScanner/internal/model"
)

func openTestRecorder(t *testing.T) *SQLRecorder {
	t.Helper()
	r, err := NewSQLRecorder("sqlite", filepath.Join(t.TempDir(), "scanner.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNewSQLRecorder_UnknownDriver(t *testing.T) {
	if _, err := NewSQLRecorder("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRecordAlert_RoundTrip(t *testing.T) {
	r := openTestRecorder(t)
	fired := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	ok := &model.Alert{
		CycleID:   "c1",
		Symbol:    "ABC",
		Trend:     model.TrendResult{Kind: model.TrendRising, Percent: 110, First: 1, Last: 2.1, Points: 7},
		WindowLen: 7,
		FirstSeen: fired.Add(-14 * time.Minute),
		FiredAt:   fired,
	}
	failed := &model.Alert{
		CycleID:     "c2",
		Symbol:      "XYZ",
		Trend:       model.TrendResult{Kind: model.TrendFalling, Percent: 16, First: 5, Last: 4.2, Points: 5},
		WindowLen:   5,
		FirstSeen:   fired,
		FiredAt:     fired.Add(2 * time.Minute),
		DeliveryErr: errors.New("telegram unreachable"),
	}
	if err := r.RecordAlert(ok); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordAlert(failed); err != nil {
		t.Fatal(err)
	}

	alerts, err := r.RecentAlerts(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Symbol != "XYZ" || alerts[0].Delivered() {
		t.Errorf("expected newest undelivered XYZ first, got %+v", alerts[0])
	}
	if alerts[0].DeliveryErr.Error() != "telegram unreachable" {
		t.Errorf("unexpected delivery error %v", alerts[0].DeliveryErr)
	}
	if a := alerts[1]; a.Symbol != "ABC" || a.Trend.Kind != model.TrendRising || a.Trend.Percent != 110 || !a.Delivered() {
		t.Errorf("unexpected ABC row %+v", a)
	}
	if !alerts[1].FiredAt.Equal(fired) {
		t.Errorf("expected fired at %v, got %v", fired, alerts[1].FiredAt)
	}

	limited, err := r.RecentAlerts(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestRecordCycle(t *testing.T) {
	r := openTestRecorder(t)
	start := time.Now()
	rep := &model.CycleReport{
		ID:         "c1",
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Universe:   100,
		Quoted:     95,
		DataGaps:   5,
		Eligible:   3,
		Tracked:    3,
		FetchErr:   errors.New("partial"),
	}
	if err := r.RecordCycle(rep); err != nil {
		t.Fatal(err)
	}
	var got cycleRow
	if err := r.db.Get(&got, `SELECT cycle_id, started_at, duration_ms, universe, quoted, data_gaps, eligible, tracked, alerts, error FROM cycles`); err != nil {
		t.Fatal(err)
	}
	if got.DurationMS != 3000 || got.Universe != 100 || got.Error != "partial" {
		t.Errorf("unexpected row %+v", got)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordAlert(&model.Alert{}); err != nil {
		t.Error(err)
	}
	alerts, err := r.RecentAlerts(context.Background(), 5)
	if err != nil || alerts != nil {
		t.Errorf("expected nothing, got %v, %v", alerts, err)
	}
}
