package playback

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/go-audio/wav"
	"github.com/zaf/g711"
)

// ErrDecode indicates the payload is not valid encoded audio. The engine
// returns to Stopped; the caller surfaces the error.
var ErrDecode = errors.New("audio payload not decodable")

// DefaultSampleRate is the rate raw PCM payloads are assumed to carry, the
// same rate the upstream speech models emit.
const DefaultSampleRate = 24000

// Clip is a decoded, playable buffer: 16-bit little-endian PCM.
type Clip struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Samples reports the clip length in samples per channel.
func (c Clip) Samples() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.PCM) / 2 / c.Channels
}

// Decode turns an encoded payload into a playable clip. Supported encodings:
// WAV containers, G.711 μ-law (audio/basic) and raw 16-bit PCM at 24 kHz.
func Decode(payload []byte, mimeType string) (Clip, error) {
	if len(payload) == 0 {
		return Clip{}, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	switch normalizeMIME(mimeType) {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return decodeWAV(payload)
	case "audio/basic":
		return decodeUlaw(payload)
	case "audio/pcm", "audio/l16", "":
		// A WAV container sometimes arrives untagged; sniff before assuming
		// raw samples.
		if bytes.HasPrefix(payload, []byte("RIFF")) {
			return decodeWAV(payload)
		}
		return decodeRawPCM(payload)
	default:
		return Clip{}, fmt.Errorf("%w: unsupported media type %q", ErrDecode, mimeType)
	}
}

func normalizeMIME(mimeType string) string {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(m, ";"); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}

func decodeWAV(payload []byte) (Clip, error) {
	decoder := wav.NewDecoder(bytes.NewReader(payload))
	if !decoder.IsValidFile() {
		return Clip{}, fmt.Errorf("%w: invalid wav container", ErrDecode)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return Clip{}, fmt.Errorf("%w: wav container holds no samples", ErrDecode)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(decoder.BitDepth)
	}
	// Samples above 16 bits are scaled down, 8-bit (unsigned, centered on
	// 128) is scaled up.
	var toInt16 func(sample int) int16
	switch depth {
	case 16:
		toInt16 = func(sample int) int16 { return int16(sample) }
	case 8:
		toInt16 = func(sample int) int16 { return int16((sample - 128) << 8) }
	case 24:
		toInt16 = func(sample int) int16 { return int16(sample >> 8) }
	case 32:
		toInt16 = func(sample int) int16 { return int16(sample >> 16) }
	default:
		return Clip{}, fmt.Errorf("%w: unsupported wav bit depth %d", ErrDecode, depth)
	}

	pcm := make([]byte, len(buf.Data)*2)
	for i, sample := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(toInt16(sample)))
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	rate := buf.Format.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	return Clip{PCM: pcm, SampleRate: rate, Channels: channels}, nil
}

func decodeUlaw(payload []byte) (Clip, error) {
	pcm := g711.DecodeUlaw(payload)
	if len(pcm) == 0 {
		return Clip{}, fmt.Errorf("%w: empty ulaw payload", ErrDecode)
	}
	// G.711 is 8 kHz mono by definition.
	return Clip{PCM: pcm, SampleRate: 8000, Channels: 1}, nil
}

func decodeRawPCM(payload []byte) (Clip, error) {
	if len(payload)%2 != 0 {
		return Clip{}, fmt.Errorf("%w: odd byte count for 16-bit pcm", ErrDecode)
	}
	return Clip{
		PCM:        append([]byte(nil), payload...),
		SampleRate: DefaultSampleRate,
		Channels:   1,
	}, nil
}
