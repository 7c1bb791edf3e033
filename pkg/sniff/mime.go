package sniff

import (
	"mime"
	"net/http"

	"github.com/je4/mediakit/v2/pkg/mediatype"
	"github.com/zRedShift/mimemagic"
)

// header bytes handed to the content sniffers. 512 is what
// http.DetectContentType looks at, mimemagic needs a little more for
// container formats.
const sniffLen = 1024

// DetectMime sniffs the mimetype of a payload from its leading bytes.
// The magic database result and http.DetectContentType compete, the
// more relevant mimetype wins.
func DetectMime(p []byte) string {
	head := p
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	mimetype := mediatype.DefaultMime
	if mt, _, err := mime.ParseMediaType(http.DetectContentType(head)); err == nil {
		mimetype = mt
	}

	magic := mimemagic.MatchMagic(head).MediaType()
	if mediatype.MimeRelevance(magic) > mediatype.MimeRelevance(mimetype) {
		mimetype = magic
	}
	return mimetype
}

// DetectKind sniffs the media kind of a payload.
func DetectKind(p []byte) mediatype.Kind {
	return mediatype.KindFromMime(DetectMime(p))
}
