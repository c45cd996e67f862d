package audio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/deskscribe/pkg/audio"
	"github.com/MrWong99/deskscribe/pkg/audio/mock"
)

func TestTask_RecordsUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	src := &mock.Source{DevicesResult: []audio.Device{
		{ID: 0, Name: "mic", Channels: 1, SampleRate: 8000, Default: true},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- audio.Task(ctx, audio.TaskConfig{
			Source:   src,
			Mode:     audio.Automatic,
			Dir:      dir,
			Rotation: time.Hour,
		})
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	stream := src.WaitStream(waitCtx)
	if stream == nil {
		t.Fatal("stream was never opened")
	}
	stream.Emit(make([]float32, 800))
	stream.Emit(make([]float32, 800))
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Task returned %v", err)
	}
	start, stop, closed := stream.Counts()
	if start != 1 || stop != 1 || closed != 1 {
		t.Errorf("lifecycle start=%d stop=%d close=%d, want 1/1/1", start, stop, closed)
	}

	paths := listWAV(t, dir)
	if len(paths) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(paths))
	}
	if _, _, _, n := decodeSegment(t, paths[0]); n != 1600 {
		t.Errorf("samples = %d, want 1600", n)
	}
}

func TestTask_Failures(t *testing.T) {
	openErr := errors.New("device busy")
	startErr := errors.New("stream refused")
	dev := []audio.Device{{ID: 0, Name: "mic", Channels: 1, SampleRate: 8000, Default: true}}

	tests := []struct {
		name string
		src  *mock.Source
		want error
	}{
		{"no device", &mock.Source{}, audio.ErrNoInputDevice},
		{"open fails", &mock.Source{DevicesResult: dev, OpenErr: openErr}, openErr},
		{"start fails", &mock.Source{DevicesResult: dev, StartErr: startErr}, startErr},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := audio.Task(context.Background(), audio.TaskConfig{Source: tc.src, Dir: t.TempDir()})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
