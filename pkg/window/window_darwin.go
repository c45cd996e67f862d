//go:build darwin

package window

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const frontmostScript = `tell application "System Events"
	set p to first application process whose frontmost is true
	set t to ""
	try
		set t to name of front window of p
	end try
	return (name of p) & linefeed & (unix id of p) & linefeed & t
end tell`

func (s *SystemInspector) active(ctx context.Context) (Info, error) {
	out, err := s.run(ctx, "osascript", "-e", frontmostScript)
	if err != nil {
		return Info{}, fmt.Errorf("window: osascript: %w", err)
	}
	lines := strings.SplitN(strings.TrimRight(string(out), "\n"), "\n", 3)
	if len(lines) < 2 || lines[0] == "" {
		return Info{}, ErrNoWindow
	}
	info := Info{AppName: strings.TrimSpace(lines[0])}
	if n, err := strconv.ParseInt(strings.TrimSpace(lines[1]), 10, 32); err == nil {
		info.PID = int32(n)
	}
	if len(lines) == 3 {
		info.Title = strings.TrimSpace(lines[2])
	}
	return info, nil
}
