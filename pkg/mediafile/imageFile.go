package mediafile

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/je4/mediakit/v2/pkg/codec"
	"github.com/je4/mediakit/v2/pkg/mediatype"

	// pure-Go decoders for the image.Image interchange path
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ImageFile is a media file whose payload is a still image. Loading
// verifies the payload against the image backends and keeps the
// decoded metadata.
type ImageFile struct {
	MediaFile
	meta *mediatype.Meta
}

func NewImageFile() *ImageFile {
	f := &ImageFile{}
	f.name = "file"
	f.mimetype = mediatype.DefaultMime
	f.kind = mediatype.KindImage
	f.onLoad = f.identify
	return f
}

func (f *ImageFile) identify() error {
	meta, err := codec.Default().IdentifyImage(f.buffer.Bytes())
	if err != nil {
		return err
	}
	f.meta = meta
	if meta.Mimetype != mediatype.DefaultMime {
		f.mimetype = meta.Mimetype
	}
	return nil
}

func (f *ImageFile) Meta() *mediatype.Meta { return f.meta }

func (f *ImageFile) Width() int64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.Width
}

func (f *ImageFile) Height() int64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.Height
}

func (f *ImageFile) Channels() int64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.Channels
}

// ToImage decodes the payload into pixels.
func (f *ImageFile) ToImage() (image.Image, error) {
	img, _, err := codec.Default().DecodeImage(f.buffer.Bytes())
	return img, err
}

// FromImage encodes decoded pixels into the payload. An empty format
// keeps the current image format, falling back to png.
func (f *ImageFile) FromImage(img image.Image, format string) error {
	if format == "" {
		format = f.currentFormat()
	}
	data, meta, err := codec.Default().EncodeImage(img, format)
	if err != nil {
		return err
	}
	if err := f.FromBytes(data); err != nil {
		return err
	}
	f.meta = meta
	f.mimetype = meta.Mimetype
	return nil
}

// Convert re-encodes the payload to another image format in place.
func (f *ImageFile) Convert(format string) error {
	data, meta, err := codec.Default().TranscodeImage(f.buffer.Bytes(), format)
	if err != nil {
		return err
	}
	if err := f.FromBytes(data); err != nil {
		return err
	}
	f.meta = meta
	f.mimetype = meta.Mimetype
	return nil
}

func (f *ImageFile) currentFormat() string {
	if f.meta != nil && f.meta.Format != "" {
		return f.meta.Format
	}
	if strings.HasPrefix(f.mimetype, "image/") {
		if format := mediatype.FormatByMime(f.mimetype); format != "" {
			return format
		}
	}
	return "png"
}

// Save converts on the fly when the target extension names another
// image format.
func (f *ImageFile) Save(path string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext != "" && f.meta != nil && ext != f.meta.Format && !(ext == "jpg" && f.meta.Format == "jpeg") {
		data, _, err := codec.Default().TranscodeImage(f.buffer.Bytes(), ext)
		if err != nil {
			return err
		}
		tmp := NewMediaFile()
		tmp.name = f.name
		if err := tmp.FromBytes(data); err != nil {
			return err
		}
		return tmp.Save(path)
	}
	return f.MediaFile.Save(path)
}
