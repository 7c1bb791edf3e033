package mediatype

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind is the coarse media classification deciding which codec adapter
// and buffer shape apply.
type Kind int

const (
	KindBinary Kind = iota
	KindImage
	KindAudio
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	}
	return "binary"
}

// KindFromMime maps a mimetype to a Kind. Unknown or application/*
// mimetypes map to KindBinary.
func KindFromMime(mimetype string) Kind {
	parts := strings.SplitN(strings.ToLower(mimetype), "/", 2)
	switch parts[0] {
	case "image":
		return KindImage
	case "audio":
		return KindAudio
	case "video":
		return KindVideo
	}
	return KindBinary
}

// KindFromFilename guesses the Kind from the file extension.
func KindFromFilename(name string) Kind {
	mimetype := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if mimetype == "" {
		return KindBinary
	}
	return KindFromMime(mimetype)
}

// Meta describes the decoded content of a media buffer. Fields not
// applicable to the media kind stay zero.
type Meta struct {
	Width      int64
	Height     int64
	Duration   float64
	FrameRate  float64
	Frames     int64
	SampleRate int64
	Channels   int64
	Format     string
	Mimetype   string
}

const DefaultMime = "application/octet-stream"

var extMime = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"wav":  "audio/x-wav",
	"mp3":  "audio/mpeg",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
}

// MimeByFormat returns the mimetype for a bare format name like "png"
// or "mp4".
func MimeByFormat(format string) string {
	if m, ok := extMime[strings.ToLower(strings.TrimPrefix(format, "."))]; ok {
		return m
	}
	if m := mime.TypeByExtension("." + strings.ToLower(strings.TrimPrefix(format, "."))); m != "" {
		return m
	}
	return DefaultMime
}

// FormatByMime returns the canonical format / extension (without dot)
// for a mimetype, or "" if unknown.
func FormatByMime(mimetype string) string {
	mimetype = strings.ToLower(mimetype)
	if idx := strings.Index(mimetype, ";"); idx >= 0 {
		mimetype = strings.TrimSpace(mimetype[:idx])
	}
	for ext, m := range extMime {
		if m == mimetype {
			if ext == "jpg" {
				continue
			}
			return ext
		}
	}
	parts := strings.SplitN(mimetype, "/", 2)
	if len(parts) == 2 && parts[1] != "octet-stream" {
		return strings.TrimPrefix(parts[1], "x-")
	}
	return ""
}

/*
holistic function to give some mimetypes a relevance
*/
func MimeRelevance(mimetype string) (relevance int) {
	if mimetype == "" {
		return 0
	}
	if mimetype == "application/octet-stream" {
		return 1
	}
	if mimetype == "text/plain" {
		return 2
	}
	if strings.HasPrefix(mimetype, "application/") {
		return 3
	}
	if strings.HasPrefix(mimetype, "text/") {
		return 4
	}
	return 100
}
