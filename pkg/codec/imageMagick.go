package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/goph/emperror"
	"github.com/je4/mediakit/v2/pkg/mediatype"
	"gopkg.in/gographics/imagick.v3/imagick"
)

// ImageMagick is the fallback image backend. It covers formats vips
// does not export, gif in particular.
type ImageMagick struct{}

func NewImageMagick() *ImageMagick { return &ImageMagick{} }

func (im *ImageMagick) Name() string { return "imagemagick" }

func (im *ImageMagick) read(p []byte) (*imagick.MagickWand, error) {
	mw := imagick.NewMagickWand()
	if err := mw.ReadImageBlob(p); err != nil {
		mw.Destroy()
		return nil, emperror.Wrapf(err, "cannot read image from blob")
	}
	return mw, nil
}

func (im *ImageMagick) meta(mw *imagick.MagickWand, format string) *mediatype.Meta {
	if format == "" {
		format = strings.ToLower(mw.GetImageFormat())
	}
	return &mediatype.Meta{
		Width:    int64(mw.GetImageWidth()),
		Height:   int64(mw.GetImageHeight()),
		Format:   format,
		Mimetype: mediatype.MimeByFormat(format),
	}
}

func (im *ImageMagick) Identify(p []byte) (*mediatype.Meta, error) {
	mw, err := im.read(p)
	if err != nil {
		return nil, err
	}
	defer mw.Destroy()
	return im.meta(mw, ""), nil
}

func (im *ImageMagick) Decode(p []byte) (image.Image, *mediatype.Meta, error) {
	mw, err := im.read(p)
	if err != nil {
		return nil, nil, err
	}
	defer mw.Destroy()
	meta := im.meta(mw, "")

	if err := mw.SetFormat("PNG"); err != nil {
		return nil, nil, emperror.Wrapf(err, "cannot set format PNG")
	}
	decoded, err := png.Decode(bytes.NewReader(mw.GetImageBlob()))
	if err != nil {
		return nil, nil, emperror.Wrapf(err, "cannot decode png export")
	}
	return decoded, meta, nil
}

func (im *ImageMagick) Encode(img image.Image, format string) ([]byte, *mediatype.Meta, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, emperror.Wrapf(err, "cannot encode pixels")
	}
	return im.Transcode(buf.Bytes(), format)
}

func (im *ImageMagick) Transcode(p []byte, format string) ([]byte, *mediatype.Meta, error) {
	mw, err := im.read(p)
	if err != nil {
		return nil, nil, err
	}
	defer mw.Destroy()

	if err := mw.SetFormat(strings.ToUpper(format)); err != nil {
		return nil, nil, emperror.Wrapf(err, "cannot set format %s", format)
	}
	data := mw.GetImageBlob()
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("zero bytes written for format %s", format)
	}
	return data, im.meta(mw, strings.ToLower(format)), nil
}
