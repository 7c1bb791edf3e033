package mediafile

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplesPerFrame(t *testing.T) {
	assert.Equal(t, 800, samplesPerFrame(8000, 8000, 1, 10, 10))
	assert.Equal(t, 1600, samplesPerFrame(16000, 8000, 2, 10, 10))
	// stereo chunks stay aligned to interleaved sample pairs
	assert.Equal(t, 2942, samplesPerFrame(88200, 44100, 2, 29.97, 0))
	// unknown frame rate spreads the track over the frame count
	assert.Equal(t, 800, samplesPerFrame(8000, 8000, 1, 0, 10))
	assert.Equal(t, 1600, samplesPerFrame(16002, 8000, 2, 0, 10))
	assert.Equal(t, 0, samplesPerFrame(8000, 8000, 1, 0, 0))
}

// a source that breaks mid-stream, after the encoder started
type brokenSource struct {
	frames int
}

func (s *brokenSource) Next() (*Frame, error) {
	if s.frames == 0 {
		return nil, fmt.Errorf("source broke")
	}
	s.frames--
	return &Frame{Image: image.NewRGBA(image.Rect(0, 0, 64, 48))}, nil
}

func (s *brokenSource) Close() error { return nil }

func TestFromVideoStreamSourceError(t *testing.T) {
	skipWithoutFFMpeg(t)

	f := NewVideoFile()
	err := f.FromVideoStream(&brokenSource{frames: 2}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source broke")
}
