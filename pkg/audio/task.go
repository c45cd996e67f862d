package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TaskConfig configures [Task].
type TaskConfig struct {
	Source   Source
	Mode     SelectMode
	Prompt   Prompt
	Dir      string
	Rotation time.Duration

	// RecorderOptions are passed to NewRecorder.
	RecorderOptions []RecorderOption
}

// Task is the long-running recording job. It selects a device, opens a
// stream feeding a [Recorder] and rotates segments until ctx is done. The
// open segment is finalized before Task returns.
//
// Device and stream errors are returned immediately; they end the recording
// but are meant to be logged by the caller, not escalated.
func Task(ctx context.Context, cfg TaskConfig) error {
	dev, err := SelectDevice(ctx, cfg.Source, cfg.Mode, cfg.Prompt)
	if err != nil {
		return err
	}

	rec, err := NewRecorder(cfg.Dir, dev.Format(), cfg.RecorderOptions...)
	if err != nil {
		return err
	}

	stream, err := cfg.Source.Open(dev, rec.Write)
	if err != nil {
		return fmt.Errorf("audio: open stream on %q: %w", dev.Name, err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			slog.Warn("audio: close stream", "err", err)
		}
	}()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("audio: start stream on %q: %w", dev.Name, err)
	}
	slog.Info("audio: recording", "device", dev.Name, "format", dev.Format().String(), "dir", cfg.Dir)

	runErr := rec.Run(ctx, cfg.Rotation)
	if err := stream.Stop(); err != nil {
		slog.Warn("audio: stop stream", "err", err)
	}
	return runErr
}
