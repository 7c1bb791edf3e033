package fetch

import (
	"fmt"
	"io/ioutil"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/bluele/gcache"
	"github.com/goph/emperror"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("mediakit")

const DefaultTimeout = 30 * time.Second

// Fetcher downloads payloads over http(s). Responses are kept in a
// bounded LRU cache so repeated FromURL calls for the same resource do
// not hit the network again.
type Fetcher struct {
	client *http.Client
	cache  gcache.Cache
	ttl    time.Duration
}

type result struct {
	data     []byte
	filename string
}

// NewFetcher creates a Fetcher. cacheSize 0 disables caching, ttl 0
// caches without expiration.
func NewFetcher(timeout time.Duration, cacheSize int, ttl time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	f := &Fetcher{
		client: &http.Client{Timeout: timeout},
		ttl:    ttl,
	}
	if cacheSize > 0 {
		f.cache = gcache.New(cacheSize).LRU().Build()
	}
	return f
}

// Fetch downloads a single URL and returns the payload together with
// the remote file name (Content-Disposition if present, the URL path
// basename otherwise).
func (f *Fetcher) Fetch(urlstring string) (data []byte, filename string, err error) {
	if f.cache != nil {
		if val, err := f.cache.Get(urlstring); err == nil {
			if res, ok := val.(*result); ok {
				return res.data, res.filename, nil
			}
		}
	}

	resp, err := f.client.Get(urlstring)
	if err != nil {
		return nil, "", emperror.Wrapf(err, "cannot get %s", urlstring)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status not ok - %v -> %v", urlstring, resp.Status)
	}

	data, err = ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, "", emperror.Wrapf(err, "error reading body - %v", urlstring)
	}

	filename = remoteFilename(urlstring, resp.Header.Get("Content-Disposition"))
	log.Debugf("fetched %s (%v bytes) as %s", urlstring, len(data), filename)

	if f.cache != nil {
		res := &result{data: data, filename: filename}
		if f.ttl > 0 {
			f.cache.SetWithExpire(urlstring, res, f.ttl)
		} else {
			f.cache.Set(urlstring, res)
		}
	}
	return data, filename, nil
}

func remoteFilename(urlstring, disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name, ok := params["filename"]; ok && name != "" {
				return path.Base(name)
			}
		}
	}
	u, err := url.Parse(urlstring)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}
