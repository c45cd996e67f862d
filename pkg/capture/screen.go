package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

var _ Grabber = (*ScreenGrabber)(nil)

// ScreenGrabber captures one physical display through the OS screen-capture
// API.
type ScreenGrabber struct {
	display int
}

// NewScreenGrabber returns a grabber for the display with the given index.
// Index 0 is the primary display.
func NewScreenGrabber(display int) *ScreenGrabber {
	return &ScreenGrabber{display: display}
}

// Grab implements Grabber.
func (g *ScreenGrabber) Grab(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := screenshot.NumActiveDisplays()
	if n == 0 || g.display < 0 || g.display >= n {
		return nil, fmt.Errorf("%w: index %d, %d active", ErrNoDisplay, g.display, n)
	}
	bounds := screenshot.GetDisplayBounds(g.display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Displays returns the bounds of every active display.
func Displays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := range n {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}
