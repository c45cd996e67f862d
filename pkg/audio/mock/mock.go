// Package mock provides in-memory implementations of [audio.Source] and
// [audio.Stream] for use in unit tests.
//
// All mocks are safe for concurrent use. Tests push samples through the
// callback registered by Open with [Stream.Emit]:
//
//	src := &mock.Source{
//	    DevicesResult: []audio.Device{{ID: 0, Name: "mic", Channels: 1, SampleRate: 8000, Default: true}},
//	}
//	go audio.Task(ctx, audio.TaskConfig{Source: src, Dir: dir})
//	stream := src.WaitStream(t.Context())
//	stream.Emit(make([]float32, 8000))
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/MrWong99/deskscribe/pkg/audio"
)

var (
	_ audio.Source = (*Source)(nil)
	_ audio.Stream = (*Stream)(nil)
)

// ─── Source ───────────────────────────────────────────────────────────────────

// Source is a mock implementation of [audio.Source].
type Source struct {
	mu sync.Mutex

	// DevicesResult is returned by Devices. The entry with Default set is
	// returned by DefaultDevice.
	DevicesResult []audio.Device

	// DevicesErr is returned by Devices.
	DevicesErr error

	// OpenErr is returned by Open.
	OpenErr error

	// StartErr is set on every stream returned by Open.
	StartErr error

	// OpenedDevices records every device passed to Open.
	OpenedDevices []audio.Device

	streams []*Stream
	opened  chan struct{}
}

// Devices implements [audio.Source].
func (s *Source) Devices() ([]audio.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DevicesErr != nil {
		return nil, s.DevicesErr
	}
	out := make([]audio.Device, len(s.DevicesResult))
	copy(out, s.DevicesResult)
	return out, nil
}

// DefaultDevice implements [audio.Source].
func (s *Source) DefaultDevice() (audio.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.DevicesResult {
		if d.Default {
			return d, nil
		}
	}
	return audio.Device{}, errors.New("mock: no default device")
}

// Open implements [audio.Source].
func (s *Source) Open(dev audio.Device, cb func([]float32)) (audio.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OpenedDevices = append(s.OpenedDevices, dev)
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	st := &Stream{cb: cb, StartErr: s.StartErr}
	s.streams = append(s.streams, st)
	if s.opened == nil {
		s.opened = make(chan struct{})
	}
	select {
	case <-s.opened:
	default:
		close(s.opened)
	}
	return st, nil
}

// WaitStream blocks until Open has been called at least once and returns the
// first stream, or nil when ctx ends first.
func (s *Source) WaitStream(ctx context.Context) *Stream {
	s.mu.Lock()
	if s.opened == nil {
		s.opened = make(chan struct{})
	}
	ch := s.opened
	s.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[0]
}

// ─── Stream ───────────────────────────────────────────────────────────────────

// Stream is a mock implementation of [audio.Stream].
type Stream struct {
	mu sync.Mutex
	cb func([]float32)

	// StartErr is returned by Start.
	StartErr error

	// CallCountStart, CallCountStop and CallCountClose record lifecycle calls.
	CallCountStart int
	CallCountStop  int
	CallCountClose int
}

// Start implements [audio.Stream].
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountStart++
	return s.StartErr
}

// Stop implements [audio.Stream].
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountStop++
	return nil
}

// Close implements [audio.Stream].
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountClose++
	return nil
}

// Emit delivers samples to the callback registered by Open, as the driver
// thread would.
func (s *Stream) Emit(samples []float32) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	cb(samples)
}

// Counts returns the lifecycle call counters.
func (s *Stream) Counts() (start, stop, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CallCountStart, s.CallCountStop, s.CallCountClose
}
