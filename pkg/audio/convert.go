package audio

import (
	"fmt"
	"math"
)

// Float32ToInt16 converts a float sample to 16-bit PCM by multiplying with
// 32767 and truncating toward zero. Out-of-range products saturate at the
// int16 limits and NaN becomes silence.
func Float32ToInt16(s float32) int16 {
	v := float64(s) * 32767
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// Float32ToPCM converts src into dst as 16-bit sample values stored in int,
// the representation go-audio buffers use. dst is grown as needed and
// returned.
func Float32ToPCM(dst []int, src []float32) []int {
	if cap(dst) < len(src) {
		dst = make([]int, len(src))
	}
	dst = dst[:len(src)]
	for i, s := range src {
		dst[i] = int(Float32ToInt16(s))
	}
	return dst
}

// DownmixToMono averages each interleaved frame of channels samples into one
// sample. Uses int32 arithmetic to prevent overflow and clamps to int16 range.
// Trailing samples that do not form a whole frame are dropped.
func DownmixToMono(pcm []int, channels int) []int {
	if channels <= 1 {
		return pcm
	}
	frames := len(pcm) / channels
	out := make([]int, frames)
	for i := range frames {
		var sum int32
		for c := range channels {
			sum += int32(pcm[i*channels+c])
		}
		avg := sum / int32(channels)
		if avg > 32767 {
			avg = 32767
		} else if avg < -32768 {
			avg = -32768
		}
		out[i] = int(avg)
	}
	return out
}

// formatString returns a human-readable string for a sample rate and channel count,
// e.g. "48000Hz stereo".
func formatString(rate, channels int) string {
	ch := "mono"
	if channels == 2 {
		ch = "stereo"
	} else if channels > 2 {
		ch = fmt.Sprintf("%dch", channels)
	}
	return fmt.Sprintf("%dHz %s", rate, ch)
}
