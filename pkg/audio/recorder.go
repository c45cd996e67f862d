package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// MaxSamplesPerCallback is the default cap on samples taken from a single
	// driver callback. Excess samples are discarded.
	MaxSamplesPerCallback = 44100

	// DefaultRotation is the default segment length.
	DefaultRotation = 60 * time.Second

	// SegmentSuffix is appended to the timestamp to form a segment filename.
	SegmentSuffix = "_audio.wav"

	segmentTimestampLayout = "20060102_150405"

	bitDepth     = 16
	wavFormatPCM = 1
)

// ErrRecorderClosed is returned by Write and Rotate after Close.
var ErrRecorderClosed = errors.New("audio: recorder closed")

// SegmentInfo describes a finalized segment.
type SegmentInfo struct {
	Path     string
	Samples  int64
	OpenedAt time.Time
}

// Stats is a snapshot of recorder counters.
type Stats struct {
	SegmentsOpened    int
	SegmentsFinalized int
	OpenFailures      int
	SamplesWritten    int64

	// Open is 1 while a segment is open and 0 otherwise.
	Open int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithMaxSamples overrides [MaxSamplesPerCallback].
func WithMaxSamples(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.maxSamples = n
		}
	}
}

// WithClock replaces time.Now for segment naming.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithDownmix averages multi-channel input into a mono segment.
func WithDownmix() RecorderOption {
	return func(r *Recorder) { r.downmix = true }
}

// WithSegmentHook registers fn to be called after each segment is finalized.
// fn runs with the recorder lock held and must not call back into the
// Recorder.
func WithSegmentHook(fn func(SegmentInfo)) RecorderOption {
	return func(r *Recorder) { r.onFinalize = fn }
}

// segment is the single open output file.
type segment struct {
	path     string
	file     *os.File
	enc      *wav.Encoder
	samples  int64
	openedAt time.Time
}

// Recorder writes incoming samples into timestamped WAV segments in dir.
//
// State is either "no active segment" (seg == nil) or "segment open". The
// first Write in the former state opens a new segment; Rotate finalizes the
// open segment and returns to the former state. All transitions happen under
// mu.
type Recorder struct {
	dir        string
	in         Format
	out        Format
	maxSamples int
	downmix    bool
	now        func() time.Time
	onFinalize func(SegmentInfo)

	mu      sync.Mutex
	seg     *segment
	closed  bool
	scratch []int
	stats   Stats
}

// NewRecorder creates a Recorder for input in format f writing into dir.
func NewRecorder(dir string, f Format, opts ...RecorderOption) (*Recorder, error) {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return nil, fmt.Errorf("audio: invalid format %s", f)
	}
	r := &Recorder{
		dir:        dir,
		in:         f,
		out:        f,
		maxSamples: MaxSamplesPerCallback,
		now:        time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.downmix {
		r.out.Channels = 1
	}
	return r, nil
}

// SegmentFilename returns the segment filename for t.
func SegmentFilename(t time.Time) string {
	return t.Format(segmentTimestampLayout) + SegmentSuffix
}

// Write appends samples to the open segment, opening one first if needed.
// At most the configured maximum of samples is taken from each call. Write
// is meant to be called from the driver callback; failures are logged rather
// than returned to the driver.
func (r *Recorder) Write(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || len(samples) == 0 {
		return
	}
	if len(samples) > r.maxSamples {
		samples = samples[:r.maxSamples]
	}
	// Keep whole frames so channels stay aligned across callbacks.
	samples = samples[:len(samples)-len(samples)%r.in.Channels]
	if len(samples) == 0 {
		return
	}

	if r.seg == nil {
		seg, err := r.openSegment()
		if err != nil {
			r.stats.OpenFailures++
			slog.Warn("audio: failed to open segment, dropping buffer", "err", err, "samples", len(samples))
			return
		}
		r.seg = seg
		r.stats.SegmentsOpened++
		r.stats.Open = 1
	}

	r.scratch = Float32ToPCM(r.scratch, samples)
	data := r.scratch
	if r.downmix {
		data = DownmixToMono(data, r.in.Channels)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: r.out.Channels, SampleRate: r.out.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := r.seg.enc.Write(buf); err != nil {
		slog.Warn("audio: failed to write samples", "path", r.seg.path, "err", err)
		return
	}
	r.seg.samples += int64(len(data))
	r.stats.SamplesWritten += int64(len(data))
}

// openSegment creates the output file and WAV encoder. Must be called with mu
// held.
func (r *Recorder) openSegment() (*segment, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio: create output dir: %w", err)
	}
	at := r.now()
	path := filepath.Join(r.dir, SegmentFilename(at))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audio: create segment: %w", err)
	}
	enc := wav.NewEncoder(f, r.out.SampleRate, bitDepth, r.out.Channels, wavFormatPCM)
	slog.Debug("audio: segment opened", "path", path, "format", r.out.String())
	return &segment{path: path, file: f, enc: enc, openedAt: at}, nil
}

// Rotate finalizes the open segment, if any. The next Write opens a new one.
func (r *Recorder) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRecorderClosed
	}
	return r.finalizeLocked()
}

// finalizeLocked patches the WAV header with the final length and closes the
// file. Must be called with mu held.
func (r *Recorder) finalizeLocked() error {
	seg := r.seg
	if seg == nil {
		return nil
	}
	r.seg = nil
	r.stats.Open = 0

	encErr := seg.enc.Close()
	fileErr := seg.file.Close()
	if err := errors.Join(encErr, fileErr); err != nil {
		return fmt.Errorf("audio: finalize %s: %w", seg.path, err)
	}
	r.stats.SegmentsFinalized++
	slog.Debug("audio: segment finalized", "path", seg.path, "samples", seg.samples)
	if r.onFinalize != nil {
		r.onFinalize(SegmentInfo{Path: seg.path, Samples: seg.samples, OpenedAt: seg.openedAt})
	}
	return nil
}

// Run calls Rotate every interval until ctx is done, then closes the
// recorder.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultRotation
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return r.Close()
		case <-ticker.C:
			if err := r.Rotate(); err != nil {
				slog.Warn("audio: rotation failed", "err", err)
			}
		}
	}
}

// Close finalizes the open segment and makes further writes no-ops. Calling
// Close more than once is safe.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.finalizeLocked()
}

// Stats returns a snapshot of the recorder counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Format returns the format of the written segments.
func (r *Recorder) Format() Format { return r.out }
