package bridge

import (
	"context"
	"log/slog"

	"github.com/framework-community/fwecd/internal/models"
)

// ApplySettings pushes the persisted settings to the EC. Nil fields are not
// managed by fwecd and are left alone. Failures are logged, never fatal:
// a dead backlight write must not block the charge limit, and vice versa.
func (b *Bridge) ApplySettings(ctx context.Context, s *models.Settings) {
	if s == nil {
		return
	}
	if s.ChargeLimit != nil {
		if err := b.SetChargeLimit(ctx, *s.ChargeLimit); err != nil {
			slog.Warn("bridge: apply charge limit failed", "percent", *s.ChargeLimit, "err", err)
		} else {
			slog.Info("bridge: charge limit applied", "percent", *s.ChargeLimit)
		}
	}
	if s.KbdBacklight != nil {
		if err := b.SetBacklight(ctx, *s.KbdBacklight); err != nil {
			slog.Warn("bridge: apply backlight failed", "percent", *s.KbdBacklight, "err", err)
		} else {
			slog.Info("bridge: backlight applied", "percent", *s.KbdBacklight)
		}
	}
}
