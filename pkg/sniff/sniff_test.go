package sniff

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"io/ioutil"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/je4/mediakit/v2/pkg/mediatype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectMime(t *testing.T) {
	assert.Equal(t, "image/png", DetectMime(pngBytes(t)))
	assert.Equal(t, mediatype.KindImage, DetectKind(pngBytes(t)))
	assert.Equal(t, mediatype.KindBinary, DetectKind([]byte{0x00, 0x01, 0x02, 0x03}))
}

func TestIsBase64(t *testing.T) {
	assert.True(t, IsBase64(base64.StdEncoding.EncodeToString([]byte("payload"))))
	assert.False(t, IsBase64("not a real path or data"))
	assert.False(t, IsBase64("notarealpathordata"))
	assert.False(t, IsBase64(""))
}

func TestIsFilePath(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "x.bin")
	require.NoError(t, ioutil.WriteFile(fp, []byte("x"), 0644))
	assert.True(t, IsFilePath(fp))
	assert.False(t, IsFilePath(dir))
	assert.False(t, IsFilePath(filepath.Join(dir, "missing")))
}

func TestParseURL(t *testing.T) {
	for _, ok := range []string{
		"http://example.com/a.png",
		"https://example.com/a.png",
		"s3://bucket/key.mp4",
		"sftp://host/folder/file.wav",
	} {
		_, valid := ParseURL(ok)
		assert.True(t, valid, ok)
	}
	for _, bad := range []string{
		"ftp://example.com/a.png",
		"example.com/a.png",
		"/tmp/a.png",
		"http://",
	} {
		_, valid := ParseURL(bad)
		assert.False(t, valid, bad)
	}
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "x.bin")
	require.NoError(t, ioutil.WriteFile(fp, []byte("x"), 0644))

	input, ok := Classify(fp)
	require.True(t, ok)
	assert.Equal(t, ShapePath, input.Shape)

	input, ok = Classify("https://example.com/a.png")
	require.True(t, ok)
	assert.Equal(t, ShapeURL, input.Shape)

	input, ok = Classify(base64.StdEncoding.EncodeToString([]byte("data")))
	require.True(t, ok)
	assert.Equal(t, ShapeBase64, input.Shape)

	input, ok = Classify([]byte{1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, ShapeBytes, input.Shape)

	f, err := os.Open(fp)
	require.NoError(t, err)
	defer f.Close()
	input, ok = Classify(f)
	require.True(t, ok)
	assert.Equal(t, ShapeReader, input.Shape)

	input, ok = Classify(&multipart.FileHeader{Filename: "a.png"})
	require.True(t, ok)
	assert.Equal(t, ShapeUpload, input.Shape)

	input, ok = Classify(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.True(t, ok)
	assert.Equal(t, ShapeImage, input.Shape)

	_, ok = Classify("not a real path or data")
	assert.False(t, ok)
	_, ok = Classify(42)
	assert.False(t, ok)
	_, ok = Classify(nil)
	assert.False(t, ok)
}
