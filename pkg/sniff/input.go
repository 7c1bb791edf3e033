package sniff

import (
	"encoding/base64"
	"image"
	"io"
	"mime/multipart"
	"net/url"
	"os"
)

// Shape is the closed set of input representations FromAny recognizes.
// Anything outside this set is an unsupported input, not a fallthrough.
type Shape int

const (
	ShapeNone Shape = iota
	ShapePath
	ShapeURL
	ShapeBase64
	ShapeBytes
	ShapeReader
	ShapeUpload
	ShapeImage
)

func (s Shape) String() string {
	switch s {
	case ShapePath:
		return "path"
	case ShapeURL:
		return "url"
	case ShapeBase64:
		return "base64"
	case ShapeBytes:
		return "bytes"
	case ShapeReader:
		return "reader"
	case ShapeUpload:
		return "upload"
	case ShapeImage:
		return "image"
	}
	return "none"
}

// Input is the tagged variant produced by Classify. Only the field
// matching Shape is set.
type Input struct {
	Shape  Shape
	Path   string
	URL    *url.URL
	Base64 string
	Bytes  []byte
	Reader io.Reader
	Upload *multipart.FileHeader
	Image  image.Image
}

// Classify inspects an arbitrary value and maps it onto the closed set
// of recognized input shapes. A string is tried as file path, then as
// URL, then as strict base64. ok is false when no recognizer matched.
func Classify(v interface{}) (*Input, bool) {
	switch data := v.(type) {
	case string:
		if IsFilePath(data) {
			return &Input{Shape: ShapePath, Path: data}, true
		}
		if u, ok := ParseURL(data); ok {
			return &Input{Shape: ShapeURL, URL: u}, true
		}
		if IsBase64(data) {
			return &Input{Shape: ShapeBase64, Base64: data}, true
		}
	case []byte:
		return &Input{Shape: ShapeBytes, Bytes: data}, true
	case *multipart.FileHeader:
		return &Input{Shape: ShapeUpload, Upload: data}, true
	case image.Image:
		return &Input{Shape: ShapeImage, Image: data}, true
	case io.Reader:
		return &Input{Shape: ShapeReader, Reader: data}, true
	}
	return &Input{}, false
}

// IsFilePath reports whether the string names an existing regular file.
func IsFilePath(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// remote schemes FromURL can resolve
var urlSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"s3":    true,
	"sftp":  true,
}

// ParseURL reports whether the string is a downloadable URL.
func ParseURL(rawurl string) (*url.URL, bool) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, false
	}
	if !urlSchemes[u.Scheme] || u.Host == "" {
		return nil, false
	}
	return u, true
}

// IsBase64 checks a string with a strict decode / re-encode round trip
// so that ordinary text is not mistaken for payload data.
func IsBase64(data string) bool {
	decoded, err := base64.StdEncoding.Strict().DecodeString(data)
	if err != nil {
		return false
	}
	if len(decoded) == 0 {
		return false
	}
	return base64.StdEncoding.EncodeToString(decoded) == data
}
