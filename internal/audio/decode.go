package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// bytesPerSample is fixed: every decoder emits signed 16-bit little endian.
const bytesPerSample = 2

var (
	// ErrUnsupportedFormat is returned for files that are neither MP3 nor WAV.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrInvalidWAV is returned when a .wav file has no valid RIFF header.
	ErrInvalidWAV = errors.New("invalid wav file")
)

// Stream is decoded PCM ready to be handed to the audio device.
type Stream struct {
	io.ReadSeeker
	SampleRate int
	Channels   int
	Length     int64 // PCM bytes, or -1 when unknown

	closer io.Closer

	// The device reads on its own goroutine.
	pos     atomic.Int64
	drained atomic.Bool
}

// Read reads PCM and tracks how far into the track the reader is.
func (s *Stream) Read(b []byte) (int, error) {
	n, err := s.ReadSeeker.Read(b)
	s.pos.Add(int64(n))
	if errors.Is(err, io.EOF) {
		s.drained.Store(true)
	}
	return n, err
}

// Seek moves the read position.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	n, err := s.ReadSeeker.Seek(offset, whence)
	if err != nil {
		return n, err
	}
	s.pos.Store(n)
	s.drained.Store(false)
	return n, nil
}

// Exhausted reports whether the whole track has been read.
func (s *Stream) Exhausted() bool {
	if s.drained.Load() {
		return true
	}
	return s.Length >= 0 && s.pos.Load() >= s.Length
}

// Duration is the playing time of the whole stream.
func (s *Stream) Duration() time.Duration {
	if s.Length < 0 || s.SampleRate == 0 || s.Channels == 0 {
		return 0
	}
	frames := s.Length / int64(s.Channels*bytesPerSample)
	return time.Duration(frames) * time.Second / time.Duration(s.SampleRate)
}

// Close releases the underlying file, if any.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// Decode opens path and decodes it based on its extension.
func Decode(path string) (*Stream, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return decodeMP3(path)
	case ".wav":
		return decodeWAV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// decodeMP3 streams from the file; go-mp3 always yields stereo.
func decodeMP3(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open track: %w", err)
	}
	d, err := mp3.NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("unable to decode mp3: %w", err)
	}
	return &Stream{
		ReadSeeker: d,
		SampleRate: d.SampleRate(),
		Channels:   2,
		Length:     d.Length(),
		closer:     f,
	}, nil
}

// decodeWAV reads the whole file into memory and converts it to 16-bit.
func decodeWAV(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open track: %w", err)
	}
	defer func() { _ = f.Close() }()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("unable to decode wav: %w", err)
	}

	pcm := pcm16(buf, int(d.BitDepth))
	return &Stream{
		ReadSeeker: bytes.NewReader(pcm),
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		Length:     int64(len(pcm)),
	}, nil
}

// pcm16 converts integer samples of any bit depth to signed 16-bit LE.
func pcm16(buf *audio.IntBuffer, bitDepth int) []byte {
	out := make([]byte, len(buf.Data)*bytesPerSample)
	for i, v := range buf.Data {
		switch {
		case bitDepth == 8:
			// 8-bit WAV is unsigned
			v = (v - 128) << 8
		case bitDepth > 16:
			v >>= bitDepth - 16
		case bitDepth < 16:
			v <<= 16 - bitDepth
		}
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(int16(v)))
	}
	return out
}
