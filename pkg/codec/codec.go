package codec

import (
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/je4/mediakit/v2/pkg/mediatype"
	"github.com/op/go-logging"
	"github.com/segmentio/ksuid"
	"gopkg.in/gographics/imagick.v3/imagick"
)

var log = logging.MustGetLogger("mediakit")

// ImageCodec is a backend adapter for still images. Implementations
// wrap one external codec library each.
type ImageCodec interface {
	Name() string
	Decode(p []byte) (image.Image, *mediatype.Meta, error)
	Encode(img image.Image, format string) ([]byte, *mediatype.Meta, error)
	Transcode(p []byte, format string) ([]byte, *mediatype.Meta, error)
	Identify(p []byte) (*mediatype.Meta, error)
}

// Options configure registry construction. Zero values select the
// defaults (binaries from PATH, all backends enabled, system tempdir).
type Options struct {
	FFMpeg        string
	FFProbe       string
	TempFolder    string
	DisableVips   bool
	DisableMagick bool
}

// Registry holds the codec adapters available to this process. It is
// populated once at initialization and only read afterwards.
type Registry struct {
	image      []ImageCodec
	av         *FFMpeg
	avErr      error
	tempfolder string
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
	defaultMu       sync.Mutex

	vipsOnce   sync.Once
	magickOnce sync.Once
)

// Setup builds the process wide registry from the given options and
// replaces the default. Call it once at startup before using the
// mediafile facade; without it a default registry probing PATH is built
// on first use.
func Setup(opts Options) *Registry {
	r := newRegistry(opts)
	defaultMu.Lock()
	defaultRegistry = r
	defaultMu.Unlock()
	return r
}

// Default returns the process wide registry.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultOnce.Do(func() {
			defaultRegistry = newRegistry(Options{})
		})
	}
	return defaultRegistry
}

func newRegistry(opts Options) *Registry {
	r := &Registry{tempfolder: opts.TempFolder}

	if !opts.DisableVips {
		vipsOnce.Do(func() {
			vips.Startup(nil)
		})
		r.image = append(r.image, NewImageVips())
	}
	if !opts.DisableMagick {
		magickOnce.Do(func() {
			imagick.Initialize()
		})
		r.image = append(r.image, NewImageMagick())
	}

	r.av, r.avErr = NewFFMpeg(opts.FFMpeg, opts.FFProbe, opts.TempFolder)
	if r.avErr != nil {
		log.Warningf("audio/video backend not available: %v", r.avErr)
	}
	return r
}

// Image returns the primary image backend.
func (r *Registry) Image() (ImageCodec, error) {
	if len(r.image) == 0 {
		return nil, &mediatype.MissingDependencyError{Backend: "libvips/imagemagick", Kind: mediatype.KindImage}
	}
	return r.image[0], nil
}

// AV returns the ffmpeg backend serving the given audio or video kind.
func (r *Registry) AV(kind mediatype.Kind) (*FFMpeg, error) {
	if r.av == nil {
		return nil, &mediatype.MissingDependencyError{Backend: "ffmpeg", Kind: kind, Err: r.avErr}
	}
	return r.av, nil
}

// Available reports whether a live adapter exists for the media kind.
func (r *Registry) Available(kind mediatype.Kind) bool {
	switch kind {
	case mediatype.KindImage:
		return len(r.image) > 0
	case mediatype.KindAudio, mediatype.KindVideo:
		return r.av != nil
	}
	return true
}

// DecodeImage runs the payload through the image backends in probe
// order until one of them can parse it.
func (r *Registry) DecodeImage(p []byte) (image.Image, *mediatype.Meta, error) {
	if len(r.image) == 0 {
		return nil, nil, &mediatype.MissingDependencyError{Backend: "libvips/imagemagick", Kind: mediatype.KindImage}
	}
	var lastErr error
	for _, c := range r.image {
		img, meta, err := c.Decode(p)
		if err == nil {
			return img, meta, nil
		}
		log.Debugf("image backend %s cannot decode: %v", c.Name(), err)
		lastErr = err
	}
	return nil, nil, &mediatype.DecodeError{Kind: mediatype.KindImage, Err: lastErr}
}

// EncodeImage renders decoded pixels to the requested format, falling
// through the backends like DecodeImage.
func (r *Registry) EncodeImage(img image.Image, format string) ([]byte, *mediatype.Meta, error) {
	if len(r.image) == 0 {
		return nil, nil, &mediatype.MissingDependencyError{Backend: "libvips/imagemagick", Kind: mediatype.KindImage}
	}
	var lastErr error
	for _, c := range r.image {
		data, meta, err := c.Encode(img, format)
		if err == nil {
			return data, meta, nil
		}
		log.Debugf("image backend %s cannot encode %s: %v", c.Name(), format, err)
		lastErr = err
	}
	return nil, nil, &mediatype.EncodeError{Kind: mediatype.KindImage, Target: format, Err: lastErr}
}

// TranscodeImage re-encodes an encoded image payload to another format.
func (r *Registry) TranscodeImage(p []byte, format string) ([]byte, *mediatype.Meta, error) {
	if len(r.image) == 0 {
		return nil, nil, &mediatype.MissingDependencyError{Backend: "libvips/imagemagick", Kind: mediatype.KindImage}
	}
	var lastErr error
	for _, c := range r.image {
		data, meta, err := c.Transcode(p, format)
		if err == nil {
			return data, meta, nil
		}
		lastErr = err
	}
	return nil, nil, &mediatype.EncodeError{Kind: mediatype.KindImage, Target: format, Err: lastErr}
}

// IdentifyImage returns decoded metadata without keeping the pixels.
func (r *Registry) IdentifyImage(p []byte) (*mediatype.Meta, error) {
	if len(r.image) == 0 {
		return nil, &mediatype.MissingDependencyError{Backend: "libvips/imagemagick", Kind: mediatype.KindImage}
	}
	var lastErr error
	for _, c := range r.image {
		meta, err := c.Identify(p)
		if err == nil {
			return meta, nil
		}
		lastErr = err
	}
	return nil, &mediatype.DecodeError{Kind: mediatype.KindImage, Err: lastErr}
}

// TempName returns a fresh collision free temp file path with the
// given extension. The caller removes the file.
func (r *Registry) TempName(ext string) string {
	return TempName(r.tempfolder, ext)
}

func TempName(folder, ext string) string {
	if folder == "" {
		folder = defaultTempFolder()
	}
	return filepath.Join(folder, fmt.Sprintf("mediakit-%s.%s", ksuid.New().String(), ext))
}

func lookBinary(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	return p, nil
}
