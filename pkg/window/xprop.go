package window

import (
	"fmt"
	"strconv"
	"strings"
)

// parseActiveWindowID extracts the window id from
//
//	_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3a00007
func parseActiveWindowID(out string) (string, error) {
	i := strings.LastIndex(out, "#")
	if i < 0 {
		return "", fmt.Errorf("window: unexpected xprop output %q", strings.TrimSpace(out))
	}
	id := strings.TrimSpace(out[i+1:])
	// Some window managers append a comma-separated list.
	if j := strings.IndexByte(id, ','); j >= 0 {
		id = id[:j]
	}
	if id == "" || id == "0x0" {
		return "", ErrNoWindow
	}
	return id, nil
}

// parseWindowProps reads the title and PID from
//
//	_NET_WM_NAME(UTF8_STRING) = "title"
//	WM_NAME(STRING) = "title"
//	_NET_WM_PID(CARDINAL) = 1234
//	WM_CLASS(STRING) = "navigator", "Firefox"
func parseWindowProps(out string) (title, class string, pid int32) {
	for line := range strings.Lines(out) {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch {
		case strings.HasPrefix(key, "_NET_WM_NAME"):
			title = unquote(value)
		case strings.HasPrefix(key, "WM_NAME") && title == "":
			title = unquote(value)
		case strings.HasPrefix(key, "_NET_WM_PID"):
			if n, err := strconv.ParseInt(value, 10, 32); err == nil {
				pid = int32(n)
			}
		case strings.HasPrefix(key, "WM_CLASS"):
			parts := strings.Split(value, ",")
			class = unquote(strings.TrimSpace(parts[len(parts)-1]))
		}
	}
	return title, class, pid
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}
