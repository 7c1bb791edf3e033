package mediafile

import (
	"encoding/json"
	"strings"

	"github.com/je4/mediakit/v2/pkg/mediatype"
)

// Media is the common surface of all media file types.
type Media interface {
	Kind() mediatype.Kind
	Name() string
	SetName(n string)
	Mimetype() string
	FromAny(v interface{}) error
	FromDocument(doc *Document) error
	ToBytes() []byte
	ToBase64() string
	ToJSON() ([]byte, error)
	Save(path string) error
}

func forKind(kind mediatype.Kind) Media {
	switch kind {
	case mediatype.KindImage:
		return NewImageFile()
	case mediatype.KindAudio:
		return NewAudioFile()
	case mediatype.KindVideo:
		return NewVideoFile()
	}
	return NewMediaFile()
}

// MediaFromFile guesses the media kind from the file extension and
// returns the fitting loaded media file instance.
func MediaFromFile(path string) (Media, error) {
	m := forKind(mediatype.KindFromFilename(path))
	if err := m.FromAny(path); err != nil {
		return nil, err
	}
	return m, nil
}

// MediaFromAny loads any recognized input into the media kind
// requested; KindBinary sniffs the kind from the payload.
func MediaFromAny(v interface{}, kind mediatype.Kind) (Media, error) {
	if m, ok := v.(Media); ok {
		return m, nil
	}
	if kind == mediatype.KindBinary {
		if path, ok := v.(string); ok {
			kind = mediatype.KindFromFilename(path)
		}
	}
	m := forKind(kind)
	if err := m.FromAny(v); err != nil {
		return nil, err
	}
	return m, nil
}

// MediaFromJSON loads a marshalled Document into the media kind its
// content type declares.
func MediaFromJSON(p []byte) (Media, error) {
	var doc Document
	if err := json.Unmarshal(p, &doc); err != nil {
		return nil, &mediatype.DecodeError{Kind: mediatype.KindBinary, Err: err}
	}
	kind := mediatype.KindFromMime(strings.ToLower(doc.ContentType))
	m := forKind(kind)
	if err := m.FromDocument(&doc); err != nil {
		return nil, err
	}
	return m, nil
}
