// Package capture grabs the screen, encodes it as PNG and stores it in the
// output directory under a timestamped filename.
//
// A [Provider] owns the output directory and a [Grabber]. Each call to
// [Provider.Capture] produces one [Frame]:
//
//	p := capture.New("output", capture.NewScreenGrabber(0))
//	frame, err := p.Capture(ctx)
//	// frame.Filename == "20240131_093000_screenshot.png"
//
// Filenames have second resolution. Two captures within the same second write
// the same file; the later one wins.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout is the time format used as filename prefix for every
// artefact the agent writes (screenshots, descriptions, audio segments).
const TimestampLayout = "20060102_150405"

// FilenameSuffix is appended to the timestamp to form the screenshot name.
const FilenameSuffix = "_screenshot.png"

var (
	// ErrCapture reports that the screen could not be grabbed or encoded.
	ErrCapture = errors.New("capture: screen capture failed")

	// ErrFilesystem reports that the output directory or the image file could
	// not be written.
	ErrFilesystem = errors.New("capture: filesystem error")

	// ErrNoDisplay is returned by [ScreenGrabber] when no active display exists
	// for the configured index.
	ErrNoDisplay = errors.New("capture: no active display")
)

// Grabber returns the current screen contents.
type Grabber interface {
	Grab(ctx context.Context) (image.Image, error)
}

// GrabberFunc adapts a plain function to the Grabber interface.
type GrabberFunc func(ctx context.Context) (image.Image, error)

// Grab implements Grabber.
func (f GrabberFunc) Grab(ctx context.Context) (image.Image, error) { return f(ctx) }

// Frame is one captured screenshot.
type Frame struct {
	// PNG holds the encoded image, identical to the bytes written to Path.
	PNG []byte

	// Filename is the base name, e.g. "20240131_093000_screenshot.png".
	Filename string

	// Path is Filename joined with the output directory.
	Path string

	// CapturedAt is the timestamp the filename was derived from.
	CapturedAt time.Time

	Width  int
	Height int
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock replaces time.Now. Used by tests to get deterministic filenames.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithCompression sets the PNG compression level. Defaults to
// png.DefaultCompression.
func WithCompression(level png.CompressionLevel) Option {
	return func(p *Provider) {
		p.encoder.CompressionLevel = level
	}
}

// Provider captures screenshots into a single output directory.
// It is safe for sequential use by one loop; concurrent captures in the same
// second race on the same file.
type Provider struct {
	dir     string
	grabber Grabber
	now     func() time.Time
	encoder png.Encoder
}

// New creates a Provider writing into dir using g to grab the screen.
func New(dir string, g Grabber, opts ...Option) *Provider {
	p := &Provider{
		dir:     dir,
		grabber: g,
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Dir returns the output directory.
func (p *Provider) Dir() string { return p.dir }

// Filename returns the screenshot filename for t.
func Filename(t time.Time) string {
	return t.Format(TimestampLayout) + FilenameSuffix
}

// Capture grabs the screen, creates the output directory if needed and writes
// the PNG. Errors match [ErrCapture] or [ErrFilesystem].
func (p *Provider) Capture(ctx context.Context) (Frame, error) {
	img, err := p.grabber.Grab(ctx)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: grab: %w", ErrCapture, err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return Frame{}, fmt.Errorf("%w: create output dir: %w", ErrFilesystem, err)
	}

	var buf bytes.Buffer
	if err := p.encoder.Encode(&buf, img); err != nil {
		return Frame{}, fmt.Errorf("%w: encode png: %w", ErrCapture, err)
	}

	at := p.now()
	name := Filename(at)
	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return Frame{}, fmt.Errorf("%w: write %s: %w", ErrFilesystem, name, err)
	}

	b := img.Bounds()
	return Frame{
		PNG:        buf.Bytes(),
		Filename:   name,
		Path:       path,
		CapturedAt: at,
		Width:      b.Dx(),
		Height:     b.Dy(),
	}, nil
}
