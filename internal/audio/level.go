package audio

import "math"

// silenceRMS is the level below which a normalized recording is treated as silent
const silenceRMS = 1e-4

// levelMeter accumulates the RMS of mono-mixed float samples
type levelMeter struct {
	sum   float64
	count int64
}

func (m *levelMeter) add(samples [][2]float64) {
	for _, s := range samples {
		v := (s[0] + s[1]) / 2
		m.sum += v * v
	}
	m.count += int64(len(samples))
}

func (m *levelMeter) rms() float64 {
	if m.count == 0 {
		return 0
	}
	return math.Sqrt(m.sum / float64(m.count))
}

// IsSilent reports whether an RMS level is indistinguishable from silence
func IsSilent(rms float64) bool {
	return rms < silenceRMS
}
