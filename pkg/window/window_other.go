//go:build !linux && !darwin && !windows

package window

import (
	"context"
	"errors"
	"fmt"
)

// active uses X11 where a display is available, as on the BSDs.
func (s *SystemInspector) active(ctx context.Context) (Info, error) {
	info, err := s.x11(ctx)
	if err != nil && !errors.Is(err, ErrNoWindow) {
		return Info{}, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return info, err
}
