package filesystem

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// FileSystem is a storage backend media payloads can be read from and
// written to. folder/name follow the backend's own addressing (bucket
// and object key for s3, directory and file name elsewhere).
type FileSystem interface {
	Protocol() string
	IsLocal() bool
	FileGet(folder, name string, opts FileGetOptions) ([]byte, error)
	FilePut(folder, name string, data []byte, opts FilePutOptions) error
	FileExists(folder, name string) (bool, error)
}

type FileGetOptions struct {
	VersionID string
}

type FilePutOptions struct {
	ContentType string
}

type NotFoundError struct {
	err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %v", e.err)
}

func (e *NotFoundError) Unwrap() error { return e.err }

func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// Resolver routes URLs to registered filesystem backends by scheme.
type Resolver struct {
	sync.RWMutex
	fss map[string]FileSystem
}

func NewResolver() *Resolver {
	return &Resolver{fss: make(map[string]FileSystem)}
}

func (r *Resolver) Register(scheme string, fs FileSystem) {
	r.Lock()
	defer r.Unlock()
	r.fss[strings.ToLower(scheme)] = fs
}

func (r *Resolver) Get(scheme string) (FileSystem, error) {
	r.RLock()
	defer r.RUnlock()
	fs, ok := r.fss[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("no filesystem registered for scheme %s", scheme)
	}
	return fs, nil
}

// SplitURL maps an URL onto the folder/name addressing of a backend.
// For s3 the host is the bucket, for sftp the path is split on the last
// separator.
func SplitURL(u *url.URL) (folder, name string) {
	p := strings.Trim(u.Path, "/")
	switch u.Scheme {
	case "s3":
		return u.Host, p
	default:
		idx := strings.LastIndex(p, "/")
		if idx < 0 {
			return "", p
		}
		return p[:idx], p[idx+1:]
	}
}

var defaultResolver = NewResolver()

// DefaultResolver is the process wide URL router used by the mediafile
// facade. Backends are registered once at setup time.
func DefaultResolver() *Resolver { return defaultResolver }
