package codec

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/je4/mediakit/v2/pkg/mediatype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	assert.Equal(t, 30.0, parseRate("30"))
	assert.Equal(t, 25.0, parseRate("25/1"))
	assert.InDelta(t, 29.97, parseRate("30000/1001"), 0.001)
	assert.Equal(t, 0.0, parseRate(""))
	assert.Equal(t, 0.0, parseRate("0/0"))
	assert.Equal(t, 0.0, parseRate("x/y"))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "one", tail("one\n"))
	assert.Equal(t, "c | d | e | f", tail("a\nb\nc\nd\ne\nf"))
}

func TestNonEmptyExt(t *testing.T) {
	assert.Equal(t, "bin", nonEmptyExt(""))
	assert.Equal(t, "mp4", nonEmptyExt(".mp4"))
	assert.Equal(t, "wav", nonEmptyExt("wav"))
}

func TestTempName(t *testing.T) {
	dir := t.TempDir()
	a := TempName(dir, "mp4")
	b := TempName(dir, "mp4")
	assert.NotEqual(t, a, b)
	assert.Equal(t, dir, filepath.Dir(a))
	assert.True(t, strings.HasPrefix(filepath.Base(a), "mediakit-"))
	assert.True(t, strings.HasSuffix(a, ".mp4"))

	c := TempName("", "wav")
	assert.True(t, strings.HasSuffix(c, ".wav"))
}

func TestMissingFFMpeg(t *testing.T) {
	_, err := NewFFMpeg("mediakit-no-such-binary", "mediakit-no-such-binary", "")
	require.Error(t, err)
	var missing *mediatype.MissingDependencyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "ffmpeg", missing.Backend)
	assert.Equal(t, mediatype.KindVideo, missing.Kind)
	assert.Contains(t, err.Error(), "ffmpeg")

	r := newRegistry(Options{
		FFMpeg:        "mediakit-no-such-binary",
		FFProbe:       "mediakit-no-such-binary",
		DisableVips:   true,
		DisableMagick: true,
	})
	assert.False(t, r.Available(mediatype.KindVideo))
	_, err = r.AV(mediatype.KindAudio)
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, mediatype.KindAudio, missing.Kind)
}

func TestToRGBA(t *testing.T) {
	direct := image.NewRGBA(image.Rect(0, 0, 8, 8))
	assert.Same(t, direct, toRGBA(direct))

	// a subimage shares its parent's stride and must be repacked
	base := image.NewRGBA(image.Rect(0, 0, 128, 96))
	base.Set(33, 25, color.RGBA{R: 200, A: 255})
	sub := base.SubImage(image.Rect(32, 24, 96, 72)).(*image.RGBA)
	out := toRGBA(sub)
	assert.Equal(t, image.Point{}, out.Rect.Min)
	assert.Equal(t, 64*4, out.Stride)
	assert.Equal(t, 64*48*4, len(out.Pix))
	assert.Equal(t, color.RGBA{R: 200, A: 255}, out.RGBAAt(1, 1))

	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	packed := toRGBA(gray)
	assert.Equal(t, 4*4*4, len(packed.Pix))
}
