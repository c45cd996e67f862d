// Package window reports which application currently owns the foreground
// window.
//
// The result is enrichment only. [Describe] never fails: when the platform
// lookup errors it logs and returns [Unknown].
package window

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/shirou/gopsutil/v3/process"
)

// Unknown is the text Describe returns when no window information is
// available.
const Unknown = "Unknown"

// ErrUnsupported is returned on platforms without a foreground-window lookup.
var ErrUnsupported = errors.New("window: active window lookup not supported on this platform")

// ErrNoWindow is returned when no window currently has focus.
var ErrNoWindow = errors.New("window: no active window")

// Info is a point-in-time snapshot of the foreground window.
type Info struct {
	// AppName is the application's display name.
	AppName string

	// Title is the window title.
	Title string

	// ExecName is the executable's base name, e.g. "firefox".
	ExecName string

	// Path is the absolute executable path.
	Path string

	// PID is the owning process, 0 when unknown.
	PID int32
}

// String renders i as the four-line block prefixed to descriptions.
func (i Info) String() string {
	return fmt.Sprintf("Active app: %s\nTitle: %s\nExec: %s\nPath: %s", i.AppName, i.Title, i.ExecName, i.Path)
}

// Inspector looks up the foreground window.
type Inspector interface {
	Active(ctx context.Context) (Info, error)
}

// InspectorFunc adapts a plain function to the Inspector interface.
type InspectorFunc func(ctx context.Context) (Info, error)

// Active implements Inspector.
func (f InspectorFunc) Active(ctx context.Context) (Info, error) { return f(ctx) }

// Describe returns the formatted window block for the current foreground
// window, or [Unknown] if it cannot be determined.
func Describe(ctx context.Context, in Inspector) string {
	info, err := in.Active(ctx)
	if err != nil {
		slog.Warn("window: lookup failed", "err", err)
		return Unknown
	}
	return info.String()
}

// runFunc executes an external command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// procFunc resolves the executable name and path of a process.
type procFunc func(ctx context.Context, pid int32) (name, exe string, err error)

func lookupProcess(ctx context.Context, pid int32) (string, string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", "", err
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return "", "", err
	}
	exe, err := p.ExeWithContext(ctx)
	if err != nil {
		// Name without path is still useful, e.g. for processes of other users.
		return name, "", nil
	}
	return name, exe, nil
}

// SystemInspector queries the running OS for the foreground window.
type SystemInspector struct {
	run   runFunc
	proc  procFunc
	dialX func() (xProps, error)
}

var _ Inspector = (*SystemInspector)(nil)

// NewSystemInspector returns an Inspector for the current platform.
func NewSystemInspector() *SystemInspector {
	return &SystemInspector{run: runCommand, proc: lookupProcess, dialX: dialX11}
}

// Active implements Inspector. The platform lookup provides title and PID;
// executable name and path are filled in from the process table.
func (s *SystemInspector) Active(ctx context.Context) (Info, error) {
	info, err := s.active(ctx)
	if err != nil {
		return Info{}, err
	}
	s.enrich(ctx, &info)
	return info, nil
}

func (s *SystemInspector) enrich(ctx context.Context, info *Info) {
	if info.PID > 0 && (info.ExecName == "" || info.Path == "") {
		name, exe, err := s.proc(ctx, info.PID)
		if err != nil {
			slog.Debug("window: process lookup failed", "pid", info.PID, "err", err)
		} else {
			if info.ExecName == "" {
				info.ExecName = name
			}
			if info.Path == "" {
				info.Path = exe
			}
		}
	}
	if info.AppName == "" {
		info.AppName = info.ExecName
	}
}
