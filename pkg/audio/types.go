// Package audio records microphone input into rolling WAV segments.
//
// The package has three layers:
//
//   - [Source] and [Stream] abstract the OS audio device API. The production
//     implementation lives in audio/portaudio.
//   - [Recorder] owns the currently open segment. It is driven by exactly two
//     actors: the hardware callback ([Recorder.Write]) and the rotation timer
//     ([Recorder.Rotate]). A single mutex serialises them, so at most one
//     segment is open at any time and a segment is always finalized before the
//     next one is opened.
//   - [Task] ties both together into the long-running background job started
//     by the capture loop.
package audio

import "fmt"

// Format describes the sample rate and channel count of an audio stream.
type Format struct {
	SampleRate int
	Channels   int
}

// String returns a human-readable description, e.g. "48000Hz stereo".
func (f Format) String() string {
	return formatString(f.SampleRate, f.Channels)
}

// Device describes an audio input device reported by a [Source].
type Device struct {
	// ID identifies the device within the Source that listed it.
	ID int

	// Name is the human-readable device name.
	Name string

	// Channels is the number of input channels the recorder will open.
	Channels int

	// SampleRate is the device's default sample rate in Hz.
	SampleRate float64

	// Default marks the system default input device.
	Default bool
}

// Format returns the stream format used when recording from d.
func (d Device) Format() Format {
	return Format{SampleRate: int(d.SampleRate), Channels: d.Channels}
}

// String implements fmt.Stringer.
func (d Device) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Format())
}

// Source enumerates input devices and opens callback-driven streams on them.
type Source interface {
	// Devices lists the available input devices.
	Devices() ([]Device, error)

	// DefaultDevice returns the system default input device.
	DefaultDevice() (Device, error)

	// Open prepares a stream on dev. cb is invoked from the audio driver's
	// thread with interleaved float32 samples in [-1, 1]; the slice is only
	// valid for the duration of the call.
	Open(dev Device, cb func(samples []float32)) (Stream, error)
}

// Stream is an opened input stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}
