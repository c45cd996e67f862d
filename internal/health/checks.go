package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// DirWritable returns a checker that creates and removes a probe file in dir.
// A missing directory is created first, the same way the capture loop does.
func DirWritable(name, dir string) Checker {
	return Checker{
		Name: name,
		Check: func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
			f, err := os.CreateTemp(dir, ".deskscribe-probe-*")
			if err != nil {
				return fmt.Errorf("%s not writable: %w", dir, err)
			}
			probe := f.Name()
			_ = f.Close()
			return os.Remove(probe)
		},
	}
}

// Fresh returns a checker that fails when last reports a time older than
// maxAge. A zero time counts as fresh until grace has passed since the
// checker was built, so a freshly started agent reports ready while its first
// iteration is still running.
func Fresh(name string, last func() time.Time, maxAge, grace time.Duration) Checker {
	started := time.Now()
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			t := last()
			if t.IsZero() {
				if time.Since(started) > grace {
					return errors.New("no successful iteration yet")
				}
				return nil
			}
			if age := time.Since(t); age > maxAge {
				return fmt.Errorf("last success %s ago", age.Round(time.Second))
			}
			return nil
		},
	}
}
