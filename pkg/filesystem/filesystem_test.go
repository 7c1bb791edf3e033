package filesystem

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFs(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFs(dir)
	require.NoError(t, err)

	assert.True(t, fs.IsLocal())
	assert.Equal(t, "file://", fs.Protocol())

	exists, err := fs.FileExists("sub", "x.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = fs.FileGet("sub", "x.bin", FileGetOptions{})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	payload := []byte("payload")
	require.NoError(t, fs.FilePut("sub", "x.bin", payload, FilePutOptions{}))

	exists, err = fs.FileExists("sub", "x.bin")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := fs.FileGet("sub", "x.bin", FileGetOptions{})
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestLocalFsMissingBase(t *testing.T) {
	_, err := NewLocalFs("/no/such/folder/anywhere")
	assert.Error(t, err)
}

func TestResolver(t *testing.T) {
	r := NewResolver()
	_, err := r.Get("s3")
	assert.Error(t, err)

	fs, err := NewLocalFs("")
	require.NoError(t, err)
	r.Register("file", fs)

	got, err := r.Get("FILE")
	require.NoError(t, err)
	assert.Equal(t, fs, got)
}

func TestSplitURL(t *testing.T) {
	u, err := url.Parse("s3://bucket/some/key.mp4")
	require.NoError(t, err)
	folder, name := SplitURL(u)
	assert.Equal(t, "bucket", folder)
	assert.Equal(t, "some/key.mp4", name)

	u, err = url.Parse("sftp://host/folder/sub/file.wav")
	require.NoError(t, err)
	folder, name = SplitURL(u)
	assert.Equal(t, "folder/sub", folder)
	assert.Equal(t, "file.wav", name)

	u, err = url.Parse("sftp://host/file.wav")
	require.NoError(t, err)
	folder, name = SplitURL(u)
	assert.Equal(t, "", folder)
	assert.Equal(t, "file.wav", name)
}
