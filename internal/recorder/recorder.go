package recorder

import (
	"context"

	"MarketScanner/internal/model"
)

// Recorder persists fired alerts and cycle statistics. Price windows are
// never written.
type Recorder interface {
	RecordAlert(alert *model.Alert) error
	RecordCycle(report *model.CycleReport) error
	RecentAlerts(ctx context.Context, limit int) ([]model.Alert, error)
	Close() error
}
