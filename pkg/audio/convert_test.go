package audio_test

import (
	"math"
	"testing"

	"github.com/MrWong99/deskscribe/pkg/audio"
)

func TestFloat32ToInt16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{0.5, 16383},   // 16383.5 truncated
		{-0.5, -16383}, // truncation is toward zero
		{0.00001, 0},
		// Out-of-range input saturates instead of wrapping.
		{1.0001, 32767},
		{1.5, 32767},
		{2, 32767},
		{-1.5, -32768},
		{-2, -32768},
		{float32(math.Inf(1)), 32767},
		{float32(math.Inf(-1)), -32768},
		{float32(math.NaN()), 0},
	}
	for _, tc := range tests {
		if got := audio.Float32ToInt16(tc.in); got != tc.want {
			t.Errorf("Float32ToInt16(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFloat32ToPCM_ReusesBuffer(t *testing.T) {
	buf := make([]int, 0, 8)
	out := audio.Float32ToPCM(buf, []float32{0, 1, -1})
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if &out[0] != &buf[:1][0] {
		t.Error("expected the destination buffer to be reused")
	}
	if out[1] != 32767 || out[2] != -32767 {
		t.Errorf("got %v", out)
	}
}

func TestDownmixToMono(t *testing.T) {
	got := audio.DownmixToMono([]int{100, 200, -100, -200, 7}, 2)
	want := []int{150, -150}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDownmixToMono_Clamping(t *testing.T) {
	got := audio.DownmixToMono([]int{32767, 32767, 32767}, 3)
	if len(got) != 1 || got[0] != 32767 {
		t.Errorf("got %v, want [32767]", got)
	}
}

func TestDownmixToMono_MonoPassthrough(t *testing.T) {
	in := []int{1, 2, 3}
	out := audio.DownmixToMono(in, 1)
	if &out[0] != &in[0] {
		t.Error("expected mono input to be returned unchanged")
	}
}

func TestFormatString(t *testing.T) {
	tests := map[audio.Format]string{
		{SampleRate: 48000, Channels: 2}: "48000Hz stereo",
		{SampleRate: 16000, Channels: 1}: "16000Hz mono",
		{SampleRate: 44100, Channels: 6}: "44100Hz 6ch",
	}
	for f, want := range tests {
		if got := f.String(); got != want {
			t.Errorf("%+v.String() = %q, want %q", f, got, want)
		}
	}
}
