package wave

// Stats summarizes one window of ADC samples.
type Stats struct {
	Min  int
	Max  int
	Mean float32
}

// Range returns the peak-to-peak spread of the window.
func (s Stats) Range() int {
	return s.Max - s.Min
}

// Analyze computes min/max/mean over a window of samples.
func Analyze(samples []int) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	st := Stats{Min: samples[0], Max: samples[0]}
	sum := 0
	for _, v := range samples {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		sum += v
	}
	st.Mean = float32(sum) / float32(len(samples))

	return st
}
