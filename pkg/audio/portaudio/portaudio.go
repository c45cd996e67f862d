// Package portaudio implements audio.Source on top of the PortAudio library.
//
// PortAudio must be initialised once per process; [New] does that and
// [Source.Close] terminates it again.
package portaudio

import (
	"fmt"
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/MrWong99/deskscribe/pkg/audio"
)

var _ audio.Source = (*Source)(nil)

// maxChannels caps the number of channels opened per device. Virtual devices
// such as "default" on PulseAudio report dozens of input channels.
const maxChannels = 2

// Source lists and opens PortAudio input devices.
type Source struct {
	mu        sync.Mutex
	devices   []*pa.DeviceInfo
	closeOnce sync.Once
}

// New initialises PortAudio.
func New() (*Source, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	return &Source{}, nil
}

// Devices implements audio.Source. Output-only devices are skipped.
func (s *Source) Devices() ([]audio.Device, error) {
	all, err := pa.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio: list devices: %w", err)
	}
	def, _ := pa.DefaultInputDevice()

	s.mu.Lock()
	s.devices = all
	s.mu.Unlock()

	var out []audio.Device
	for i, d := range all {
		if d.MaxInputChannels < 1 {
			continue
		}
		out = append(out, toDevice(i, d, d == def))
	}
	return out, nil
}

// DefaultDevice implements audio.Source.
func (s *Source) DefaultDevice() (audio.Device, error) {
	all, err := pa.Devices()
	if err != nil {
		return audio.Device{}, fmt.Errorf("portaudio: list devices: %w", err)
	}
	def, err := pa.DefaultInputDevice()
	if err != nil {
		return audio.Device{}, fmt.Errorf("portaudio: default input: %w", err)
	}

	s.mu.Lock()
	s.devices = all
	s.mu.Unlock()

	for i, d := range all {
		if d == def {
			return toDevice(i, d, true), nil
		}
	}
	return audio.Device{}, fmt.Errorf("portaudio: default input %q not in device list", def.Name)
}

// Open implements audio.Source.
func (s *Source) Open(dev audio.Device, cb func([]float32)) (audio.Stream, error) {
	s.mu.Lock()
	var info *pa.DeviceInfo
	if dev.ID >= 0 && dev.ID < len(s.devices) {
		info = s.devices[dev.ID]
	}
	s.mu.Unlock()
	if info == nil {
		return nil, fmt.Errorf("portaudio: unknown device %d", dev.ID)
	}

	params := pa.HighLatencyParameters(info, nil)
	params.Input.Channels = dev.Channels
	params.SampleRate = dev.SampleRate

	stream, err := pa.OpenStream(params, func(in []float32) {
		cb(in)
	})
	if err != nil {
		return nil, fmt.Errorf("portaudio: open stream: %w", err)
	}
	return stream, nil
}

// Close terminates PortAudio. Streams must be closed first.
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = pa.Terminate()
	})
	return err
}

func toDevice(id int, d *pa.DeviceInfo, isDefault bool) audio.Device {
	return audio.Device{
		ID:         id,
		Name:       d.Name,
		Channels:   min(d.MaxInputChannels, maxChannels),
		SampleRate: d.DefaultSampleRate,
		Default:    isDefault,
	}
}
