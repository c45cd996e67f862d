package capture_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrWong99/deskscribe/pkg/capture"
)

func solid(w, h int) capture.GrabberFunc {
	return func(context.Context) (image.Image, error) {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := range h {
			for x := range w {
				img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
			}
		}
		return img, nil
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestFilename(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 31, 9, 30, 5, 999, time.Local)
	if got, want := capture.Filename(at), "20240131_093005_screenshot.png"; got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

func TestCapture_CreatesMissingDirectory(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "output")
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

	p := capture.New(dir, solid(4, 3), capture.WithClock(fixedClock(at)))
	frame, err := p.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if frame.Filename != "20240506_070809_screenshot.png" {
		t.Errorf("Filename = %q", frame.Filename)
	}
	if frame.Path != filepath.Join(dir, frame.Filename) {
		t.Errorf("Path = %q", frame.Path)
	}
	if !frame.CapturedAt.Equal(at) {
		t.Errorf("CapturedAt = %v, want %v", frame.CapturedAt, at)
	}
	if frame.Width != 4 || frame.Height != 3 {
		t.Errorf("size = %dx%d, want 4x3", frame.Width, frame.Height)
	}

	onDisk, err := os.ReadFile(frame.Path)
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if !bytes.Equal(onDisk, frame.PNG) {
		t.Error("file contents differ from returned PNG bytes")
	}
	img, err := png.Decode(bytes.NewReader(frame.PNG))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("decoded bounds = %v", img.Bounds())
	}
}

func TestCapture_SameSecondOverwrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

	first := capture.New(dir, solid(2, 2), capture.WithClock(fixedClock(at)))
	second := capture.New(dir, solid(8, 8), capture.WithClock(fixedClock(at.Add(400*time.Millisecond))))

	if _, err := first.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	f2, err := second.Capture(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file, got %d", len(entries))
	}
	onDisk, _ := os.ReadFile(f2.Path)
	if !bytes.Equal(onDisk, f2.PNG) {
		t.Error("last write should win")
	}
}

func TestCapture_GrabError(t *testing.T) {
	t.Parallel()
	boom := errors.New("access denied")
	p := capture.New(t.TempDir(), capture.GrabberFunc(func(context.Context) (image.Image, error) {
		return nil, boom
	}))

	_, err := p.Capture(context.Background())
	if !errors.Is(err, capture.ErrCapture) {
		t.Fatalf("expected ErrCapture, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestCapture_FilesystemError(t *testing.T) {
	t.Parallel()
	// A regular file where the directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := capture.New(filepath.Join(blocker, "out"), solid(1, 1))

	_, err := p.Capture(context.Background())
	if !errors.Is(err, capture.ErrFilesystem) {
		t.Fatalf("expected ErrFilesystem, got %v", err)
	}
}
