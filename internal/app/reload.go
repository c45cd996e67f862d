package app

import (
	"fmt"
	"log/slog"

	"github.com/MrWong99/deskscribe/internal/config"
)

// Reload applies the hot-reloadable parts of d. A changed vision entry is
// rebuilt through the registry; on failure the previous provider stays in
// place and the error is returned. Settings listed in d.RestartRequired are
// only logged.
func (a *App) Reload(d config.ConfigDiff) error {
	var err error

	if d.VisionChanged {
		if a.registry == nil {
			slog.Warn("vision settings changed but no registry is available; restart to apply")
		} else if p, cerr := a.registry.CreateVision(d.NewVision); cerr != nil {
			err = fmt.Errorf("app: reload vision provider: %w", cerr)
		} else {
			a.mu.Lock()
			a.vision = p
			a.visionName = d.NewVision.Name
			a.mu.Unlock()
			slog.Info("vision provider reloaded", "provider", d.NewVision.Name, "model", d.NewVision.Model)
		}
	}

	a.mu.Lock()
	if d.IntervalChanged && d.NewInterval > 0 {
		a.interval = config.CaptureConfig{IntervalSeconds: d.NewInterval}.Interval()
		slog.Info("capture interval changed", "interval", a.interval)
	}
	if d.WindowInfoChanged {
		a.windowInfo = d.NewWindowInfo
		slog.Info("window info toggled", "enabled", a.windowInfo)
	}
	a.mu.Unlock()

	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes require a restart", "settings", d.RestartRequired)
	}
	return err
}
