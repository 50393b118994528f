// Package ppqn converts between musical time, measured in pulses per
// quarter note, and sample frames.
package ppqn

import "math"

const (
	// Quarter is the number of pulses in one quarter note.
	Quarter = 960.0
	// Bar is the number of pulses in a 4/4 bar.
	Bar = 4 * Quarter
	// SemiQuaver is a 1/16 note. Tempo automation is evaluated on this grid.
	SemiQuaver = Quarter / 4
)

// SamplesToPulses returns the number of pulses covered by samples at the
// given tempo and sample rate.
func SamplesToPulses(samples, bpm, sampleRate float64) float64 {
	return samples * bpm * Quarter / (60 * sampleRate)
}

// PulsesToSamples is the inverse of SamplesToPulses.
func PulsesToSamples(pulses, bpm, sampleRate float64) float64 {
	return pulses * 60 * sampleRate / (bpm * Quarter)
}

// SecondsToPulses converts seconds into pulses at the given tempo.
func SecondsToPulses(seconds, bpm float64) float64 {
	return seconds * bpm * Quarter / 60
}

// PulsesToSeconds converts pulses into seconds at the given tempo.
func PulsesToSeconds(pulses, bpm float64) float64 {
	return pulses * 60 / (bpm * Quarter)
}

// QuantizeFloor returns the largest multiple of interval that is not
// greater than position.
func QuantizeFloor(position, interval float64) float64 {
	return math.Floor(position/interval) * interval
}

// QuantizeCeil returns the smallest multiple of interval that is not
// less than position.
func QuantizeCeil(position, interval float64) float64 {
	return math.Ceil(position/interval) * interval
}
