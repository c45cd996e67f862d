//go:build linux

package window

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// active reads the EWMH properties over a native X11 connection. Without one
// it shells out to xdotool, then xprop. All paths require an X11 (or XWayland)
// session.
func (s *SystemInspector) active(ctx context.Context) (Info, error) {
	info, err := s.x11(ctx)
	if err == nil || errors.Is(err, ErrNoWindow) {
		return info, err
	}
	slog.Debug("window: native X11 lookup failed, trying xdotool", "err", err)

	info, err = s.xdotool(ctx)
	if err == nil {
		return info, nil
	}
	info, xerr := s.xprop(ctx)
	if xerr != nil {
		return Info{}, fmt.Errorf("window: xdotool: %w; xprop: %w", err, xerr)
	}
	return info, nil
}

func (s *SystemInspector) xdotool(ctx context.Context) (Info, error) {
	out, err := s.run(ctx, "xdotool", "getactivewindow", "getwindowname")
	if err != nil {
		return Info{}, err
	}
	info := Info{Title: strings.TrimSpace(string(out))}

	if out, err := s.run(ctx, "xdotool", "getactivewindow", "getwindowpid"); err == nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 32); err == nil {
			info.PID = int32(n)
		}
	}
	if out, err := s.run(ctx, "xdotool", "getactivewindow", "getwindowclassname"); err == nil {
		info.AppName = strings.TrimSpace(string(out))
	}
	return info, nil
}

func (s *SystemInspector) xprop(ctx context.Context) (Info, error) {
	out, err := s.run(ctx, "xprop", "-root", "_NET_ACTIVE_WINDOW")
	if err != nil {
		return Info{}, err
	}
	id, err := parseActiveWindowID(string(out))
	if err != nil {
		return Info{}, err
	}
	out, err = s.run(ctx, "xprop", "-id", id, "_NET_WM_NAME", "WM_NAME", "_NET_WM_PID", "WM_CLASS")
	if err != nil {
		return Info{}, err
	}
	title, class, pid := parseWindowProps(string(out))
	return Info{AppName: class, Title: title, PID: pid}, nil
}
