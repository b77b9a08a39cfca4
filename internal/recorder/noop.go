package recorder

import (
	"context"

	"MarketScanner/internal/model"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAlert(_ *model.Alert) error       { return nil }
func (n *NoopRecorder) RecordCycle(_ *model.CycleReport) error { return nil }
func (n *NoopRecorder) Close() error                           { return nil }
func (n *NoopRecorder) RecentAlerts(_ context.Context, _ int) ([]model.Alert, error) {
	return nil, nil
}
