//go:build linux

package window

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner answers commands from a table keyed by the joined argv.
func fakeRunner(t *testing.T, answers map[string]string) runFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		key := strings.Join(append([]string{name}, args...), " ")
		if out, ok := answers[key]; ok {
			return []byte(out), nil
		}
		return nil, errors.New("exec: not found: " + key)
	}
}

func noProc(context.Context, int32) (string, string, error) {
	return "", "", errors.New("no process table")
}

func TestSystemInspector_Xdotool(t *testing.T) {
	s := &SystemInspector{
		run: fakeRunner(t, map[string]string{
			"xdotool getactivewindow getwindowname":      "README.md - Visual Studio Code\n",
			"xdotool getactivewindow getwindowpid":       "3141\n",
			"xdotool getactivewindow getwindowclassname": "Code\n",
		}),
		proc: func(_ context.Context, pid int32) (string, string, error) {
			return "code", "/usr/share/code/code", nil
		},
	}
	info, err := s.Active(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Info{AppName: "Code", Title: "README.md - Visual Studio Code", ExecName: "code", Path: "/usr/share/code/code", PID: 3141}
	if info != want {
		t.Errorf("got %+v, want %+v", info, want)
	}
}

func TestSystemInspector_XpropFallback(t *testing.T) {
	s := &SystemInspector{
		run: fakeRunner(t, map[string]string{
			"xprop -root _NET_ACTIVE_WINDOW": "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x2800003\n",
			"xprop -id 0x2800003 _NET_WM_NAME WM_NAME _NET_WM_PID WM_CLASS": "WM_NAME(STRING) = \"bash\"\n" +
				"_NET_WM_PID(CARDINAL) = 77\nWM_CLASS(STRING) = \"xterm\", \"XTerm\"\n",
		}),
		proc: noProc,
	}
	info, err := s.Active(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Title != "bash" || info.AppName != "XTerm" || info.PID != 77 {
		t.Errorf("got %+v", info)
	}
}

func TestSystemInspector_NoX11(t *testing.T) {
	s := &SystemInspector{run: fakeRunner(t, nil), proc: noProc}
	if _, err := s.Active(context.Background()); err == nil {
		t.Fatal("expected error without xdotool and xprop")
	}
	if got := Describe(context.Background(), s); got != Unknown {
		t.Errorf("Describe() = %q, want %q", got, Unknown)
	}
}

func TestSystemInspector_NativeX11(t *testing.T) {
	x := &fakeProps{
		active: 0x2800003,
		props: map[uint32]map[string][]byte{0x2800003: {
			"_NET_WM_NAME": []byte("main.go - deskscribe"),
			"_NET_WM_PID":  cardinal(3141),
			"WM_CLASS":     []byte("code\x00Code\x00"),
		}},
	}
	s := &SystemInspector{
		run:   fakeRunner(t, nil),
		dialX: func() (xProps, error) { return x, nil },
		proc: func(_ context.Context, pid int32) (string, string, error) {
			return "code", "/usr/share/code/code", nil
		},
	}
	info, err := s.Active(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Info{AppName: "Code", Title: "main.go - deskscribe", ExecName: "code", Path: "/usr/share/code/code", PID: 3141}
	if info != want {
		t.Errorf("got %+v, want %+v", info, want)
	}
	if !x.closed {
		t.Error("X connection not closed")
	}
}

func TestSystemInspector_NativeNoActiveWindow(t *testing.T) {
	s := &SystemInspector{
		run: fakeRunner(t, map[string]string{
			"xdotool getactivewindow getwindowname": "should not be used\n",
		}),
		dialX: func() (xProps, error) { return &fakeProps{}, nil },
		proc:  noProc,
	}
	if _, err := s.Active(context.Background()); !errors.Is(err, ErrNoWindow) {
		t.Fatalf("expected ErrNoWindow, got %v", err)
	}
}

func TestSystemInspector_DialFailureFallsBackToXdotool(t *testing.T) {
	s := &SystemInspector{
		run: fakeRunner(t, map[string]string{
			"xdotool getactivewindow getwindowname": "Terminal\n",
		}),
		dialX: func() (xProps, error) { return nil, errors.New("DISPLAY not set") },
		proc:  noProc,
	}
	info, err := s.Active(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Title != "Terminal" {
		t.Errorf("Title = %q, want Terminal", info.Title)
	}
}
