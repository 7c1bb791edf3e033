package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/goph/emperror"
	"github.com/je4/mediakit/v2/pkg/mediatype"
)

// ImageVips delegates image work to libvips via govips. Decoded pixels
// travel through a lossless png export, vips keeps the codec work.
type ImageVips struct{}

func NewImageVips() *ImageVips { return &ImageVips{} }

func (iv *ImageVips) Name() string { return "vips" }

func (iv *ImageVips) load(p []byte) (*vips.ImageRef, error) {
	img, err := vips.NewImageFromBuffer(p)
	if err != nil {
		return nil, emperror.Wrapf(err, "cannot read image")
	}
	return img, nil
}

func exportParams(format string) (*vips.ExportParams, error) {
	switch format {
	case "jpeg", "jpg":
		return vips.NewDefaultJPEGExportParams(), nil
	case "png":
		return vips.NewDefaultPNGExportParams(), nil
	case "webp":
		return vips.NewDefaultWEBPExportParams(), nil
	case "tiff":
		return &vips.ExportParams{Format: vips.ImageTypeTIFF}, nil
	default:
		return nil, fmt.Errorf("invalid format %s", format)
	}
}

func (iv *ImageVips) meta(img *vips.ImageRef, format string) *mediatype.Meta {
	if format == "" {
		format = vips.ImageTypes[img.Format()]
	}
	return &mediatype.Meta{
		Width:    int64(img.Width()),
		Height:   int64(img.Height()),
		Channels: int64(img.Bands()),
		Format:   format,
		Mimetype: mediatype.MimeByFormat(format),
	}
}

func (iv *ImageVips) Identify(p []byte) (*mediatype.Meta, error) {
	img, err := iv.load(p)
	if err != nil {
		return nil, err
	}
	defer img.Close()
	return iv.meta(img, ""), nil
}

func (iv *ImageVips) Decode(p []byte) (image.Image, *mediatype.Meta, error) {
	img, err := iv.load(p)
	if err != nil {
		return nil, nil, err
	}
	defer img.Close()
	meta := iv.meta(img, "")

	data, _, err := img.Export(vips.NewDefaultPNGExportParams())
	if err != nil {
		return nil, nil, emperror.Wrapf(err, "cannot export image to png")
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, emperror.Wrapf(err, "cannot decode png export")
	}
	return decoded, meta, nil
}

func (iv *ImageVips) Encode(img image.Image, format string) ([]byte, *mediatype.Meta, error) {
	ep, err := exportParams(format)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, emperror.Wrapf(err, "cannot encode pixels")
	}
	ref, err := iv.load(buf.Bytes())
	if err != nil {
		return nil, nil, err
	}
	defer ref.Close()

	data, meta, err := ref.Export(ep)
	if err != nil {
		return nil, nil, emperror.Wrapf(err, "cannot export to %s", format)
	}
	cm := &mediatype.Meta{
		Width:    int64(meta.Width),
		Height:   int64(meta.Height),
		Format:   format,
		Mimetype: mediatype.MimeByFormat(format),
	}
	return data, cm, nil
}

func (iv *ImageVips) Transcode(p []byte, format string) ([]byte, *mediatype.Meta, error) {
	ep, err := exportParams(format)
	if err != nil {
		return nil, nil, err
	}
	ref, err := iv.load(p)
	if err != nil {
		return nil, nil, err
	}
	defer ref.Close()

	data, meta, err := ref.Export(ep)
	if err != nil {
		return nil, nil, emperror.Wrapf(err, "cannot export to %s", format)
	}
	cm := &mediatype.Meta{
		Width:    int64(meta.Width),
		Height:   int64(meta.Height),
		Format:   format,
		Mimetype: mediatype.MimeByFormat(format),
	}
	return data, cm, nil
}
