package mediafile

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/je4/mediakit/v2/pkg/mediatype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writes numbered frame images into dir, spacing the modification
// times so the directory order is deterministic
func writeFrames(t *testing.T, dir string, n int) []string {
	t.Helper()
	var paths []string
	now := time.Now().Add(-time.Duration(n) * time.Second)
	for i := 0; i < n; i++ {
		fp := filepath.Join(dir, fmt.Sprintf("frame%02d.png", i))
		require.NoError(t, ioutil.WriteFile(fp, pngBytes(t, 64, 48), 0644))
		ts := now.Add(time.Duration(i) * time.Second)
		require.NoError(t, os.Chtimes(fp, ts, ts))
		paths = append(paths, fp)
	}
	return paths
}

func TestVideoFromImageFiles(t *testing.T) {
	skipWithoutFFMpeg(t)

	frames := writeFrames(t, t.TempDir(), 10)
	f := NewVideoFile()
	require.NoError(t, f.FromImageFiles(frames, 10))

	assert.Equal(t, mediatype.KindVideo, f.Kind())
	assert.Equal(t, "video.mp4", f.Name())
	assert.Equal(t, int64(64), f.Width())
	assert.Equal(t, int64(48), f.Height())
	assert.InDelta(t, 10.0, f.FrameRate(), 0.5)
	assert.Equal(t, int64(10), f.FrameCount())
	assert.Equal(t, int64(0), f.AudioSampleRate())
}

func TestVideoFromFilesEmpty(t *testing.T) {
	f := NewVideoFile()
	err := f.FromImageFiles(nil, 10)
	require.Error(t, err)
}

func TestVideoFromFilesMissingFrame(t *testing.T) {
	skipWithoutFFMpeg(t)

	dir := t.TempDir()
	frames := writeFrames(t, dir, 2)
	frames = append(frames, filepath.Join(dir, "missing.png"))

	// the failure comes after the encoder was already started
	f := NewVideoFile()
	err := f.FromImageFiles(frames, 10)
	require.Error(t, err)
}

func TestVideoStream(t *testing.T) {
	skipWithoutFFMpeg(t)

	frames := writeFrames(t, t.TempDir(), 8)
	f := NewVideoFile()
	require.NoError(t, f.FromImageFiles(frames, 8))

	vs, err := f.ToImageStream()
	require.NoError(t, err)
	defer vs.Close()

	var count int64
	for {
		frame, err := vs.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, 64, frame.Image.Bounds().Dx())
		assert.Equal(t, 48, frame.Image.Bounds().Dy())
		assert.Nil(t, frame.Audio)
		count++
	}
	assert.Equal(t, int64(8), count)
	// exhausting the stream fixes the exact frame count
	assert.Equal(t, int64(8), f.FrameCount())

	// forward only, a drained stream stays drained
	_, err = vs.Next()
	assert.Equal(t, io.EOF, err)
}

func TestVideoAddAudioSamples(t *testing.T) {
	skipWithoutFFMpeg(t)

	frames := writeFrames(t, t.TempDir(), 10)
	f := NewVideoFile()
	require.NoError(t, f.FromImageFiles(frames, 10))
	require.NoError(t, f.AddAudioSamples(sineSamples(8000), 8000, 1))

	assert.True(t, f.AudioSampleRate() > 0)

	audio, err := f.ExtractAudio("")
	require.NoError(t, err)
	assert.True(t, len(audio) > 0)
}

func TestVideoStreamWithAudio(t *testing.T) {
	skipWithoutFFMpeg(t)

	frames := writeFrames(t, t.TempDir(), 10)
	f := NewVideoFile()
	require.NoError(t, f.FromImageFiles(frames, 10))
	require.NoError(t, f.AddAudioSamples(sineSamples(8000), 8000, 1))

	vs, err := f.ToVideoStream(true)
	require.NoError(t, err)
	defer vs.Close()

	assert.True(t, vs.SampleRate() > 0)

	frame, err := vs.Next()
	require.NoError(t, err)
	assert.True(t, len(frame.Audio) > 0)
}

func TestVideoFromVideoStream(t *testing.T) {
	skipWithoutFFMpeg(t)

	frames := writeFrames(t, t.TempDir(), 6)
	src := NewVideoFile()
	require.NoError(t, src.FromImageFiles(frames, 6))

	vs, err := src.ToVideoStream(false)
	require.NoError(t, err)

	dst := NewVideoFile()
	require.NoError(t, dst.FromVideoStream(vs, 0))
	assert.Equal(t, int64(64), dst.Width())
	assert.Equal(t, int64(48), dst.Height())
	assert.Equal(t, int64(6), dst.FrameCount())
}

func TestVideoFromDir(t *testing.T) {
	skipWithoutFFMpeg(t)

	dir := t.TempDir()
	writeFrames(t, dir, 10)

	audio := NewAudioFile()
	require.NoError(t, audio.FromSamples(sineSamples(8000), 8000, 1, "wav"))
	require.NoError(t, audio.Save(filepath.Join(dir, "track.wav")))

	f := NewVideoFile()
	require.NoError(t, f.FromDir(dir, "", 10))
	assert.Equal(t, int64(10), f.FrameCount())
	assert.True(t, f.AudioSampleRate() > 0)
}

func TestVideoExtractAudioTo(t *testing.T) {
	skipWithoutFFMpeg(t)

	frames := writeFrames(t, t.TempDir(), 10)
	f := NewVideoFile()
	require.NoError(t, f.FromImageFiles(frames, 10))
	require.NoError(t, f.AddAudioSamples(sineSamples(8000), 8000, 1))

	fp := filepath.Join(t.TempDir(), "sound.wav")
	require.NoError(t, f.ExtractAudioTo(fp))

	back := NewAudioFile()
	require.NoError(t, back.FromFile(fp))
	assert.True(t, back.SampleRate() > 0)
}
