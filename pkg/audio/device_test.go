package audio_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/deskscribe/pkg/audio"
	"github.com/MrWong99/deskscribe/pkg/audio/mock"
)

func testDevices() []audio.Device {
	return []audio.Device{
		{ID: 0, Name: "Built-in Microphone", Channels: 1, SampleRate: 48000, Default: true},
		{ID: 3, Name: "USB Headset", Channels: 2, SampleRate: 44100},
	}
}

func TestSelectDevice_Automatic(t *testing.T) {
	src := &mock.Source{DevicesResult: testDevices()}
	dev, err := audio.SelectDevice(context.Background(), src, audio.Automatic, audio.Prompt{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dev.Name != "Built-in Microphone" {
		t.Errorf("device = %q, want default", dev.Name)
	}
}

func TestSelectDevice_AutomaticNoDevice(t *testing.T) {
	src := &mock.Source{}
	_, err := audio.SelectDevice(context.Background(), src, audio.Automatic, audio.Prompt{})
	if !errors.Is(err, audio.ErrNoInputDevice) {
		t.Fatalf("expected ErrNoInputDevice, got %v", err)
	}
}

func TestSelectDevice_Interactive(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"first device", "1\n", "Built-in Microphone"},
		{"second device", "2\n", "USB Headset"},
		{"choice with spaces", "  2  \n", "USB Headset"},
		{"zero is not a device", "0\n", "Built-in Microphone"},
		{"out of range", "3\n", "Built-in Microphone"},
		{"negative", "-1\n", "Built-in Microphone"},
		{"not a number", "usb\n", "Built-in Microphone"},
		{"empty line", "\n", "Built-in Microphone"},
		{"eof", "", "Built-in Microphone"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &mock.Source{DevicesResult: testDevices()}
			var out bytes.Buffer
			dev, err := audio.SelectDevice(context.Background(), src, audio.Interactive, audio.Prompt{
				In:      strings.NewReader(tc.input),
				Out:     &out,
				Timeout: time.Second,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dev.Name != tc.want {
				t.Errorf("device = %q, want %q", dev.Name, tc.want)
			}
			if !strings.Contains(out.String(), "2. USB Headset") {
				t.Errorf("device list not printed:\n%s", out.String())
			}
		})
	}
}

func TestSelectDevice_InteractiveTimeout(t *testing.T) {
	src := &mock.Source{DevicesResult: testDevices()}
	pr, pw := io.Pipe()
	defer pw.Close()

	start := time.Now()
	dev, err := audio.SelectDevice(context.Background(), src, audio.Interactive, audio.Prompt{
		In:      pr,
		Out:     io.Discard,
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dev.Name != "Built-in Microphone" {
		t.Errorf("device = %q, want default after timeout", dev.Name)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("selection took %v, timeout not honoured", elapsed)
	}
}

func TestSelectDevice_InteractiveNoDevices(t *testing.T) {
	src := &mock.Source{}
	_, err := audio.SelectDevice(context.Background(), src, audio.Interactive, audio.Prompt{In: strings.NewReader("0\n")})
	if !errors.Is(err, audio.ErrNoInputDevice) {
		t.Fatalf("expected ErrNoInputDevice, got %v", err)
	}
}

func TestSelectMode_IsValid(t *testing.T) {
	for _, m := range []audio.SelectMode{audio.Automatic, audio.Interactive} {
		if !m.IsValid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if audio.SelectMode("prompt").IsValid() {
		t.Error(`"prompt" should be invalid`)
	}
}

func TestWriteDeviceList(t *testing.T) {
	var buf bytes.Buffer
	audio.WriteDeviceList(&buf, testDevices())
	want := "  1. Built-in Microphone (48000Hz mono) (default)\n  2. USB Headset (44100Hz stereo)\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}
