// Package audio holds the PCM clip type shared by the speech providers and
// the HTTP layer, plus the WAV container codec and format conversion helpers.
//
// All PCM in this package is 16-bit signed little-endian, interleaved when
// Channels > 1.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const bitsPerSample = 16

// Format describes the sample rate and channel count of a clip.
type Format struct {
	SampleRate int
	Channels   int
}

// SpeechFormat is the 16 kHz mono format expected by the recognisers.
var SpeechFormat = Format{SampleRate: 16000, Channels: 1}

// Clip is a complete utterance of raw PCM audio.
type Clip struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Format returns the clip's format.
func (c Clip) Format() Format {
	return Format{SampleRate: c.SampleRate, Channels: c.Channels}
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.PCM) / (2 * c.Channels)
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// ErrNotWAV is returned by [DecodeWAV] for input that is not a RIFF/WAVE file.
var ErrNotWAV = errors.New("audio: not a RIFF/WAVE file")

// EncodeWAV wraps c in a canonical 44-byte-header RIFF/WAV container.
func EncodeWAV(c Clip) []byte {
	channels := c.Channels
	if channels <= 0 {
		channels = 1
	}
	byteRate := c.SampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(c.PCM)

	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(c.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], c.PCM)

	return buf
}

// DecodeWAV parses a RIFF/WAV file holding 16-bit PCM. Chunks other than
// "fmt " and "data" are skipped. A data chunk whose declared size runs past
// the end of the input is truncated to what is present, which is what
// streaming encoders that never patch the header produce.
func DecodeWAV(wav []byte) (Clip, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return Clip{}, ErrNotWAV
	}

	var (
		clip     Clip
		foundFmt bool
	)
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || body+16 > len(wav) {
				return Clip{}, errors.New("audio: truncated fmt chunk")
			}
			f := wav[body:]
			if format := binary.LittleEndian.Uint16(f[0:2]); format != 1 && format != 0xFFFE {
				return Clip{}, fmt.Errorf("audio: unsupported WAV encoding %d, want PCM", format)
			}
			if bits := binary.LittleEndian.Uint16(f[14:16]); bits != bitsPerSample {
				return Clip{}, fmt.Errorf("audio: unsupported WAV bit depth %d, want 16", bits)
			}
			clip.Channels = int(binary.LittleEndian.Uint16(f[2:4]))
			clip.SampleRate = int(binary.LittleEndian.Uint32(f[4:8]))
			foundFmt = true
		case "data":
			if !foundFmt {
				return Clip{}, errors.New("audio: data chunk before fmt chunk")
			}
			end := body + chunkSize
			if end > len(wav) || chunkSize == 0 {
				end = len(wav)
			}
			pcm := wav[body:end]
			if len(pcm)%2 != 0 {
				pcm = pcm[:len(pcm)-1]
			}
			clip.PCM = pcm
			return clip, nil
		}

		// Chunks are word-aligned.
		offset = body + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return Clip{}, errors.New("audio: WAV file has no data chunk")
}
