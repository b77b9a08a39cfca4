package notifier

import (
	"context"
	"time"

	"MarketScanner/internal/model"
)

// Sender delivers one text message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// AlertNotifier turns fired trends into messages.
type AlertNotifier struct {
	Sender     Sender
	Interval   time.Duration // time between two window samples
	MaxRetries int
}

// NewAlertNotifier creates an AlertNotifier.
func NewAlertNotifier(sender Sender, interval time.Duration, maxRetries int) *AlertNotifier {
	return &AlertNotifier{Sender: sender, Interval: interval, MaxRetries: maxRetries}
}

// Notify formats and delivers the alert. It returns the message and the
// delivery error, which callers log; nothing is queued for later.
func (n *AlertNotifier) Notify(ctx context.Context, symbol string, r model.TrendResult) (string, error) {
	if !r.Fired() {
		return "", nil
	}
	msg := FormatAlert(symbol, r, time.Duration(r.Points)*n.Interval)
	return msg, n.Sender.SendWithRetry(ctx, msg, n.MaxRetries)
}
