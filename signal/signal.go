// Package signal provides non-interleaved audio buffers used by processors
// and the engine output:
// 	- allocation of fixed size buffers
// 	- clearing, copying and mixing of sample ranges
// 	- conversion to float32 and interleaved go-audio buffers
package signal

import (
	"time"

	"github.com/go-audio/audio"
)

// Float64 is a non-interleaved float64 signal.
type Float64 [][]float64

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// EmptyFloat64 returns an empty buffer of specified dimentions.
func EmptyFloat64(numChannels int, bufferSize int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, bufferSize)
	}
	return result
}

// NumChannels returns number of channels in this sample slice
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples in single block in this sample slice
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Clear zeroes samples in [from, to) range of every channel.
func (floats Float64) Clear(from, to int) {
	for i := range floats {
		s := floats[i][from:to]
		for j := range s {
			s[j] = 0
		}
	}
}

// ClearAll zeroes the whole buffer. Channels can have different length.
func (floats Float64) ClearAll() {
	for i := range floats {
		s := floats[i]
		for j := range s {
			s[j] = 0
		}
	}
}

// CopyChannels copies source channels into the buffer starting at channel
// offset. Channels that don't fit are skipped. Returns the number of copied
// channels.
func (floats Float64) CopyChannels(offset int, source Float64) int {
	n := 0
	for i := range source {
		if offset+i >= len(floats) {
			break
		}
		copy(floats[offset+i], source[i])
		n++
	}
	return n
}

// Add mixes source into the buffer channel by channel.
func (floats Float64) Add(source Float64) {
	for i := range floats {
		if i >= len(source) {
			return
		}
		dst, src := floats[i], source[i]
		if len(src) < len(dst) {
			dst = dst[:len(src)]
		}
		for j := range dst {
			dst[j] += src[j]
		}
	}
}

// CopyToFloat32 converts the buffer into non-interleaved float32 data as
// expected by audio callbacks.
func (floats Float64) CopyToFloat32(dst [][]float32) {
	for i := range dst {
		if i >= len(floats) {
			for j := range dst[i] {
				dst[i][j] = 0
			}
			continue
		}
		src := floats[i]
		for j := range dst[i] {
			if j < len(src) {
				dst[i][j] = float32(src[j])
			} else {
				dst[i][j] = 0
			}
		}
	}
}

// AsBuffer returns the signal as interleaved go-audio buffer.
func (floats Float64) AsBuffer(sampleRate int) *audio.FloatBuffer {
	numChannels := floats.NumChannels()
	buf := &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		Data: make([]float64, numChannels*floats.Size()),
	}
	for i := range floats {
		for j := range floats[i] {
			buf.Data[j*numChannels+i] = floats[i][j]
		}
	}
	return buf
}

// AppendTo interleaves the signal at the end of provided go-audio buffer.
// Buffer format must have the same number of channels.
func (floats Float64) AppendTo(buf *audio.FloatBuffer) {
	numChannels := floats.NumChannels()
	offset := len(buf.Data)
	buf.Data = append(buf.Data, make([]float64, numChannels*floats.Size())...)
	for i := range floats {
		for j := range floats[i] {
			buf.Data[offset+j*numChannels+i] = floats[i][j]
		}
	}
}
