package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DefaultSelectTimeout bounds how long interactive selection waits for input.
const DefaultSelectTimeout = 10 * time.Second

// ErrNoInputDevice is returned when no usable input device exists.
var ErrNoInputDevice = errors.New("audio: no input device available")

// SelectMode controls how the recording device is chosen.
type SelectMode string

const (
	// Automatic uses the system default input device.
	Automatic SelectMode = "auto"

	// Interactive lists the devices and reads a choice from the terminal,
	// falling back to the default device on timeout or invalid input.
	Interactive SelectMode = "interactive"
)

// IsValid reports whether m is a known mode.
func (m SelectMode) IsValid() bool {
	return m == Automatic || m == Interactive
}

// Prompt carries the terminal used for interactive selection.
type Prompt struct {
	In      io.Reader
	Out     io.Writer
	Timeout time.Duration
}

// SelectDevice picks an input device from src according to mode.
func SelectDevice(ctx context.Context, src Source, mode SelectMode, p Prompt) (Device, error) {
	def, defErr := src.DefaultDevice()
	if mode != Interactive {
		if defErr != nil {
			return Device{}, fmt.Errorf("%w: %w", ErrNoInputDevice, defErr)
		}
		return def, nil
	}

	devices, err := src.Devices()
	if err != nil {
		return Device{}, fmt.Errorf("audio: list devices: %w", err)
	}
	if len(devices) == 0 {
		return Device{}, ErrNoInputDevice
	}
	if defErr != nil {
		// Without a system default the first listed device is the fallback.
		def = devices[0]
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultSelectTimeout
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}

	fmt.Fprintln(out, "Available input devices:")
	WriteDeviceList(out, devices)
	fmt.Fprintf(out, "Enter the number of the device to use [1-%d], or press Enter for default (%s, %s): ", len(devices), def.Name, timeout)

	line, ok := readLine(ctx, p.In, timeout)
	if !ok {
		fmt.Fprintln(out, "\nNo selection made. Using default device.")
		slog.Info("audio: no device chosen, using default", "device", def.Name)
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(devices) {
		fmt.Fprintln(out, "Invalid choice. Using default device.")
		slog.Info("audio: invalid device choice, using default", "input", line, "device", def.Name)
		return def, nil
	}
	return devices[n-1], nil
}

// WriteDeviceList prints one line per device, numbered from 1.
func WriteDeviceList(w io.Writer, devices []Device) {
	for i, d := range devices {
		mark := ""
		if d.Default {
			mark = " (default)"
		}
		fmt.Fprintf(w, "  %d. %s%s\n", i+1, d, mark)
	}
}

// readLine reads one line from r, giving up after timeout or when ctx ends.
// The reading goroutine stays blocked on r after a timeout.
func readLine(ctx context.Context, r io.Reader, timeout time.Duration) (string, bool) {
	if r == nil {
		return "", false
	}
	ch := make(chan string, 1)
	go func() {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && line == "" {
			close(ch)
			return
		}
		ch <- line
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case line, ok := <-ch:
		if !ok || strings.TrimSpace(line) == "" {
			return "", false
		}
		return line, true
	case <-timer.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}
