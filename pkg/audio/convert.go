package audio

import (
	"encoding/binary"
	"math"
)

// Convert returns c in the target format. Resampling happens before channel
// conversion so stereo input is never resampled twice. Channel layouts other
// than mono and stereo are left untouched. A clip already in the target
// format is returned as is.
func Convert(c Clip, target Format) Clip {
	if c.SampleRate == target.SampleRate && c.Channels == target.Channels {
		return c
	}
	pcm := c.PCM
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}

	if c.SampleRate != target.SampleRate {
		switch c.Channels {
		case 1:
			pcm = ResampleMono16(pcm, c.SampleRate, target.SampleRate)
		case 2:
			pcm = ResampleStereo16(pcm, c.SampleRate, target.SampleRate)
		}
	}
	channels := c.Channels
	switch {
	case c.Channels == 1 && target.Channels == 2:
		pcm = MonoToStereo(pcm)
		channels = 2
	case c.Channels == 2 && target.Channels == 1:
		pcm = StereoToMono(pcm)
		channels = 1
	}
	return Clip{PCM: pcm, SampleRate: target.SampleRate, Channels: channels}
}

// MonoToStereo duplicates each int16 mono sample into a stereo L+R pair.
func MonoToStereo(pcm []byte) []byte {
	out := make([]byte, (len(pcm)/2)*4)
	for i := 0; i+1 < len(pcm); i += 2 {
		lo, hi := pcm[i], pcm[i+1]
		j := i * 2
		out[j] = lo
		out[j+1] = hi
		out[j+2] = lo
		out[j+3] = hi
	}
	return out
}

// StereoToMono averages L+R per stereo frame (4 bytes) to produce mono output.
// Uses int32 arithmetic to prevent overflow and clamps to int16 range.
func StereoToMono(pcm []byte) []byte {
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := range frames {
		lSample := int32(int16(pcm[i*4]) | int16(pcm[i*4+1])<<8)
		rSample := int32(int16(pcm[i*4+2]) | int16(pcm[i*4+3])<<8)
		avg := (lSample + rSample) / 2

		if avg > 32767 {
			avg = 32767
		} else if avg < -32768 {
			avg = -32768
		}

		out[i*2] = byte(avg)
		out[i*2+1] = byte(avg >> 8)
	}
	return out
}

// ResampleMono16 resamples 16-bit mono PCM from srcRate to dstRate using linear
// interpolation. If srcRate == dstRate, the input is returned unchanged.
func ResampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 {
		return pcm
	}
	if srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range dstSamples {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := int16(pcm[srcIdx*2]) | int16(pcm[srcIdx*2+1])<<8
		s1 := s0
		if srcIdx+1 < srcSamples {
			s1 = int16(pcm[(srcIdx+1)*2]) | int16(pcm[(srcIdx+1)*2+1])<<8
		}

		interpolated := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(interpolated)
		out[i*2+1] = byte(interpolated >> 8)
	}
	return out
}

// ResampleStereo16 resamples 16-bit stereo PCM from srcRate to dstRate using
// linear interpolation on each channel.
func ResampleStereo16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 {
		return pcm
	}
	if srcRate == dstRate || len(pcm) < 4 {
		return pcm
	}
	left, right := splitStereo(pcm)
	left = ResampleMono16(left, srcRate, dstRate)
	right = ResampleMono16(right, srcRate, dstRate)

	out := make([]byte, len(left)*2)
	for i := 0; i+1 < len(left); i += 2 {
		j := i * 2
		out[j], out[j+1] = left[i], left[i+1]
		out[j+2], out[j+3] = right[i], right[i+1]
	}
	return out
}

func splitStereo(pcm []byte) (left, right []byte) {
	frames := len(pcm) / 4
	left = make([]byte, frames*2)
	right = make([]byte, frames*2)
	for i := range frames {
		copy(left[i*2:i*2+2], pcm[i*4:i*4+2])
		copy(right[i*2:i*2+2], pcm[i*4+2:i*4+4])
	}
	return left, right
}

// Float32 converts 16-bit PCM to float32 samples normalised to [-1.0, 1.0],
// down-mixing to mono by averaging when channels > 1. A trailing partial
// frame is ignored.
func Float32(pcm []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / (2 * channels)
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sum += float32(int16(binary.LittleEndian.Uint16(pcm[idx:idx+2]))) / 32768.0
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// RMS returns the root-mean-square energy of 16-bit PCM in sample units
// (0–32 767). Returns 0 for input shorter than one sample.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
