package window

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// maxPropertyWords bounds a single property read, in 32-bit units.
const maxPropertyWords = 1024

// errNoDisplay is returned when the inspector has no X11 dialer.
var errNoDisplay = errors.New("window: no X display")

// xProps reads EWMH and ICCCM properties from an X server.
type xProps interface {
	// ActiveWindow returns the window named by the root's
	// _NET_ACTIVE_WINDOW, or ErrNoWindow.
	ActiveWindow() (uint32, error)

	// Property returns the raw value of the named property on win. A
	// property that is not set yields an empty value and no error.
	Property(win uint32, name string) ([]byte, error)

	Close()
}

// xgbProps implements xProps over a native X11 connection.
type xgbProps struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// dialX11 connects to the display named by $DISPLAY.
func dialX11() (xProps, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	root := xproto.Setup(conn).DefaultScreen(conn).Root
	return &xgbProps{conn: conn, root: root, atoms: make(map[string]xproto.Atom)}, nil
}

func (x *xgbProps) Close() { x.conn.Close() }

// atom resolves name without creating it. AtomNone means no client ever
// interned it, so no window can carry the property.
func (x *xgbProps) atom(name string) (xproto.Atom, error) {
	if a, ok := x.atoms[name]; ok {
		return a, nil
	}
	r, err := xproto.InternAtom(x.conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone, fmt.Errorf("window: intern %s: %w", name, err)
	}
	x.atoms[name] = r.Atom
	return r.Atom, nil
}

func (x *xgbProps) Property(win uint32, name string) ([]byte, error) {
	a, err := x.atom(name)
	if err != nil || a == xproto.AtomNone {
		return nil, err
	}
	r, err := xproto.GetProperty(x.conn, false, xproto.Window(win), a, xproto.AtomAny, 0, maxPropertyWords).Reply()
	if err != nil {
		return nil, fmt.Errorf("window: get %s: %w", name, err)
	}
	return r.Value, nil
}

func (x *xgbProps) ActiveWindow() (uint32, error) {
	v, err := x.Property(uint32(x.root), "_NET_ACTIVE_WINDOW")
	if err != nil {
		return 0, err
	}
	if len(v) < 4 || xgb.Get32(v) == 0 {
		return 0, ErrNoWindow
	}
	return xgb.Get32(v), nil
}

// x11 reads the foreground window over a native X11 connection.
func (s *SystemInspector) x11(ctx context.Context) (Info, error) {
	if s.dialX == nil {
		return Info{}, errNoDisplay
	}
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	x, err := s.dialX()
	if err != nil {
		return Info{}, fmt.Errorf("window: connect to X server: %w", err)
	}
	defer x.Close()
	return readX11(x)
}

// readX11 collects title, PID and class of the active window. The title
// prefers _NET_WM_NAME (UTF-8) over the legacy WM_NAME.
func readX11(x xProps) (Info, error) {
	win, err := x.ActiveWindow()
	if err != nil {
		return Info{}, err
	}

	title, err := x.Property(win, "_NET_WM_NAME")
	if err != nil {
		return Info{}, err
	}
	if len(title) == 0 {
		if title, err = x.Property(win, "WM_NAME"); err != nil {
			return Info{}, err
		}
	}
	info := Info{Title: string(bytes.TrimRight(title, "\x00"))}

	if v, err := x.Property(win, "_NET_WM_PID"); err == nil && len(v) >= 4 {
		info.PID = int32(xgb.Get32(v))
	}
	if v, err := x.Property(win, "WM_CLASS"); err == nil {
		info.AppName = wmClass(v)
	}
	return info, nil
}

// wmClass returns the class half of a WM_CLASS value ("instance\0Class\0").
func wmClass(v []byte) string {
	parts := bytes.Split(bytes.TrimRight(v, "\x00"), []byte{0})
	return string(parts[len(parts)-1])
}
