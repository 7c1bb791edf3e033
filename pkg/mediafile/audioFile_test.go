package mediafile

import (
	"math"
	"os/exec"
	"testing"

	"github.com/je4/mediakit/v2/pkg/mediatype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipWithoutFFMpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}
}

// one second of a 440Hz sine at the given rate, mono
func sineSamples(rate int) []int16 {
	samples := make([]int16, rate)
	for i := range samples {
		samples[i] = int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return samples
}

func TestAudioFromSamples(t *testing.T) {
	skipWithoutFFMpeg(t)

	f := NewAudioFile()
	require.NoError(t, f.FromSamples(sineSamples(8000), 8000, 1, ""))

	assert.Equal(t, mediatype.KindAudio, f.Kind())
	assert.Equal(t, "audio_file.wav", f.Name())
	assert.Equal(t, int64(8000), f.SampleRate())
	assert.Equal(t, int64(1), f.Channels())
	assert.InDelta(t, 1.0, f.Duration(), 0.1)
}

func TestAudioSamplesRoundtrip(t *testing.T) {
	skipWithoutFFMpeg(t)

	in := sineSamples(8000)
	f := NewAudioFile()
	require.NoError(t, f.FromSamples(in, 8000, 1, "wav"))

	out, rate, err := f.ToSamples()
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)
	// wav is pcm, the roundtrip is lossless
	assert.Equal(t, in, out)
}

func TestAudioConvert(t *testing.T) {
	skipWithoutFFMpeg(t)

	f := NewAudioFile()
	require.NoError(t, f.FromSamples(sineSamples(8000), 8000, 1, "wav"))

	require.NoError(t, f.Convert("mp3"))
	assert.Equal(t, "audio_file.mp3", f.Name())
	assert.Equal(t, "audio/mpeg", f.Mimetype())
	assert.Equal(t, int64(8000), f.SampleRate())
	assert.InDelta(t, 1.0, f.Duration(), 0.2)
}

func TestAudioDecodeError(t *testing.T) {
	skipWithoutFFMpeg(t)

	f := NewAudioFile()
	err := f.FromBytes([]byte("this is not audio data at all"))
	require.Error(t, err)
}

func TestAudioSaveLoad(t *testing.T) {
	skipWithoutFFMpeg(t)

	f := NewAudioFile()
	require.NoError(t, f.FromSamples(sineSamples(8000), 8000, 1, "wav"))

	fp := t.TempDir() + "/tone.wav"
	require.NoError(t, f.Save(fp))

	back := NewAudioFile()
	require.NoError(t, back.FromFile(fp))
	assert.Equal(t, f.ToBytes(), back.ToBytes())
	assert.Equal(t, int64(8000), back.SampleRate())
}
