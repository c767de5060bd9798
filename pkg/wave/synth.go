package wave

import (
	"github.com/chewxy/math32"
)

const (
	// MaxCode is the largest 12-bit ADC code.
	MaxCode = 4095
	// MidCode is the 12-bit code for the DC operating point (vref/2).
	MidCode = 2048
)

// Synth generates n ADC codes of the given waveform at the given sample rate
// and signal frequency. amplitude is in ADC codes around mid-scale; offset is
// the absolute index of the first sample, so consecutive calls with advancing
// offsets produce a phase-continuous signal. Codes are clipped to 0..4095.
func Synth(t Type, n int, rate, freq, amplitude float32, offset int) []int {
	out := make([]int, n)
	if rate <= 0 {
		return out
	}

	inc := freq / rate
	for i := 0; i < n; i++ {
		phase := math32.Mod(float32(offset+i)*inc, 1.0)
		if phase < 0 {
			phase += 1.0
		}
		out[i] = Clip(MidCode + int(amplitude*Value(t, phase)))
	}

	return out
}

// Value returns the normalized waveform value (-1..1) at phase (0..1).
func Value(t Type, phase float32) float32 {
	switch t {
	case Sine:
		return math32.Sin(2 * math32.Pi * phase)
	case Square:
		if phase < 0.5 {
			return 1.0
		}
		return -1.0
	case Triangle:
		return 4.0*math32.Abs(phase-0.5) - 1.0
	case Sawtooth:
		return 2.0*phase - 1.0
	default:
		return 0.0
	}
}

// Noise returns a deterministic pseudo-noise value in roughly [-level, level].
// Deterministic on the sample index so synthesized streams are reproducible.
func Noise(k int, level float32) float32 {
	return (math32.Sin(float32(k)*0.7) + math32.Cos(float32(k)*1.3)) * level * 0.5
}

// CodeToVoltage converts a 12-bit ADC code to voltage.
func CodeToVoltage(code int, vref float32) float32 {
	return (float32(code) / float32(MaxCode)) * vref
}

// Clip limits a code to the 12-bit ADC range.
func Clip(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxCode {
		return MaxCode
	}
	return v
}
