package fetch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	defer srv.Close()

	f := NewFetcher(0, 0, 0)
	data, filename, err := f.Fetch(srv.URL + "/media/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "clip.mp4", filename)
}

func TestFetchContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
		fmt.Fprint(w, "pdf")
	}))
	defer srv.Close()

	f := NewFetcher(0, 0, 0)
	_, filename, err := f.Fetch(srv.URL + "/download")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", filename)
}

func TestFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(0, 0, 0)
	_, _, err := f.Fetch(srv.URL + "/missing")
	assert.Error(t, err)
}

func TestFetchCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, "cached")
	}))
	defer srv.Close()

	f := NewFetcher(0, 8, 0)
	for i := 0; i < 3; i++ {
		data, _, err := f.Fetch(srv.URL + "/asset.png")
		require.NoError(t, err)
		assert.Equal(t, []byte("cached"), data)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRemoteFilename(t *testing.T) {
	assert.Equal(t, "a.png", remoteFilename("http://host/x/a.png?v=1", ""))
	assert.Equal(t, "b.png", remoteFilename("http://host/a.png", `attachment; filename="b.png"`))
	assert.Equal(t, "a.png", remoteFilename("http://host/a.png", "not a disposition"))
}
