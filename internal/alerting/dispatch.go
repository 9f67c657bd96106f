package alerting

import (
	"context"
	"errors"
	"log/slog"

	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/pkg/models"
)

// DispatchReport counts delivery outcomes.
type DispatchReport struct {
	Attempted     int  `json:"attempted"`
	Sent          int  `json:"sent"`
	Failed        int  `json:"failed"`
	NotConfigured bool `json:"not_configured,omitempty"`
}

// Dispatcher delivers alerts best-effort: failures are logged and counted,
// never returned.
type Dispatcher struct {
	notifier Notifier
	log      *slog.Logger
}

// NewDispatcher wraps n, which may be nil.
func NewDispatcher(n Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: n, log: logging.OrDefault(logger)}
}

// Dispatch sends every alert message in order.
func (d *Dispatcher) Dispatch(ctx context.Context, alerts []models.Alert) DispatchReport {
	var rep DispatchReport
	if len(alerts) == 0 {
		return rep
	}
	if d == nil || d.notifier == nil {
		rep.NotConfigured = true
		return rep
	}
	for _, a := range alerts {
		if ctx.Err() != nil {
			break
		}
		rep.Attempted++
		err := d.notifier.Notify(ctx, a.Message)
		switch {
		case err == nil:
			rep.Sent++
		case errors.Is(err, ErrNotConfigured):
			if !rep.NotConfigured {
				d.log.Warn("alert channel not configured", slog.String("error", err.Error()))
			}
			rep.NotConfigured = true
			rep.Failed++
		default:
			rep.Failed++
			d.log.Warn("alert_send_failed",
				slog.String("entity", a.Entity),
				slog.String("kind", string(a.Kind)),
				slog.String("error", err.Error()))
		}
	}
	return rep
}
