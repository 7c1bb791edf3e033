package mediafile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goph/emperror"
	"github.com/gosimple/slug"
	"github.com/je4/mediakit/v2/pkg/codec"
	"github.com/je4/mediakit/v2/pkg/filesystem"
	"github.com/je4/mediakit/v2/pkg/mediatype"
	"github.com/je4/mediakit/v2/pkg/sniff"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("mediakit")

// MediaFile normalizes loading, converting and serializing a single
// media payload. It holds exactly one canonical byte buffer; every To*
// accessor is a view derived from that buffer. A later From* call
// replaces the buffer wholesale.
type MediaFile struct {
	name     string
	mimetype string
	path     string
	kind     mediatype.Kind
	buffer   bytes.Buffer

	// set by the specialized types, runs after every buffer replacement
	onLoad func() error
}

// NewMediaFile creates a generic media file with no payload.
func NewMediaFile() *MediaFile {
	return &MediaFile{name: "file", mimetype: mediatype.DefaultMime, kind: mediatype.KindBinary}
}

func (m *MediaFile) Name() string     { return m.name }
func (m *MediaFile) SetName(n string) { m.name = n }
func (m *MediaFile) Mimetype() string { return m.mimetype }
func (m *MediaFile) Path() string     { return m.path }

// Kind is the declared media kind of this file.
func (m *MediaFile) Kind() mediatype.Kind { return m.kind }

// FromAny loads the payload from any recognized input shape: another
// loaded media value, file path, URL, base64 string, byte buffer,
// reader, multipart upload or decoded image. Anything else fails with
// UnsupportedInputError.
func (m *MediaFile) FromAny(v interface{}) error {
	if mf, ok := v.(Media); ok {
		return m.FromBytes(mf.ToBytes())
	}
	input, ok := sniff.Classify(v)
	if !ok {
		return &mediatype.UnsupportedInputError{Value: fmt.Sprintf("%T", v)}
	}
	switch input.Shape {
	case sniff.ShapePath:
		return m.FromFile(input.Path)
	case sniff.ShapeURL:
		return m.FromURL(input.URL.String())
	case sniff.ShapeBase64:
		return m.FromBase64(input.Base64)
	case sniff.ShapeBytes:
		return m.FromBytes(input.Bytes)
	case sniff.ShapeReader:
		return m.FromReader(input.Reader)
	case sniff.ShapeUpload:
		return m.FromUpload(input.Upload)
	case sniff.ShapeImage:
		data, _, err := codec.Default().EncodeImage(input.Image, "png")
		if err != nil {
			return err
		}
		return m.FromBytes(data)
	}
	return &mediatype.UnsupportedInputError{Value: input.Shape.String()}
}

// FromFile loads the payload from a local file path.
func (m *MediaFile) FromFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return emperror.Wrapf(err, "cannot read file %s", path)
	}
	m.path = path
	return m.setBuffer(data)
}

// FromReader drains a reader into the buffer. For *os.File the file
// name is picked up like FromFile does.
func (m *MediaFile) FromReader(r io.Reader) error {
	if f, ok := r.(*os.File); ok {
		m.path = f.Name()
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return emperror.Wrap(err, "cannot read from reader")
	}
	return m.setBuffer(data)
}

// FromBytes replaces the payload with a copy of the given bytes.
func (m *MediaFile) FromBytes(p []byte) error {
	m.path = ""
	return m.setBuffer(p)
}

// FromBase64 loads a payload that was encoded as a standard base64
// string.
func (m *MediaFile) FromBase64(s string) error {
	if !sniff.IsBase64(s) {
		short := s
		if len(short) > 50 {
			short = short[:50] + "..."
		}
		return &mediatype.DecodeError{Kind: m.kind, Err: fmt.Errorf("not a base64 string: %s", short)}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return &mediatype.DecodeError{Kind: m.kind, Err: err}
	}
	m.path = ""
	return m.setBuffer(data)
}

// FromURL downloads the payload. http(s) URLs go through the fetcher,
// s3 and sftp URLs through the registered filesystem backends.
func (m *MediaFile) FromURL(rawurl string) error {
	u, ok := sniff.ParseURL(rawurl)
	if !ok {
		return &mediatype.UnsupportedInputError{Value: rawurl}
	}
	switch u.Scheme {
	case "http", "https":
		data, filename, err := Fetcher().Fetch(rawurl)
		if err != nil {
			return err
		}
		m.path = ""
		if filename != "" {
			m.name = filename
		}
		return m.setBuffer(data)
	default:
		return m.fromFilesystemURL(u)
	}
}

func (m *MediaFile) fromFilesystemURL(u *url.URL) error {
	fs, err := filesystem.DefaultResolver().Get(u.Scheme)
	if err != nil {
		return err
	}
	folder, name := filesystem.SplitURL(u)
	data, err := fs.FileGet(folder, name, filesystem.FileGetOptions{})
	if err != nil {
		return emperror.Wrapf(err, "cannot get %s", u.String())
	}
	m.path = ""
	m.name = name
	return m.setBuffer(data)
}

// FromUpload loads the payload from a multipart upload part the way a
// web handler receives it.
func (m *MediaFile) FromUpload(fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return emperror.Wrapf(err, "cannot open upload %s", fh.Filename)
	}
	defer f.Close()
	data, err := ioutil.ReadAll(f)
	if err != nil {
		return emperror.Wrapf(err, "cannot read upload %s", fh.Filename)
	}
	m.path = ""
	m.name = fh.Filename
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		m.mimetype = ct
	}
	return m.setBuffer(data)
}

// Document is the json serializable shape of a media file.
type Document struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// FromJSON loads the payload from a marshalled Document.
func (m *MediaFile) FromJSON(p []byte) error {
	var doc Document
	if err := json.Unmarshal(p, &doc); err != nil {
		return emperror.Wrap(err, "cannot unmarshal document")
	}
	return m.FromDocument(&doc)
}

// FromDocument loads the payload from a Document.
func (m *MediaFile) FromDocument(doc *Document) error {
	if err := m.FromBase64(doc.Content); err != nil {
		return err
	}
	if doc.FileName != "" {
		m.name = doc.FileName
	}
	if doc.ContentType != "" {
		m.mimetype = doc.ContentType
	}
	return nil
}

// setBuffer installs the new canonical payload and re-derives the file
// info, then runs the kind specific load hook.
func (m *MediaFile) setBuffer(p []byte) error {
	m.buffer.Reset()
	m.buffer.Write(p)
	m.fileInfo()
	if m.onLoad != nil {
		return m.onLoad()
	}
	return nil
}

// fileInfo derives name and mimetype from path and content after the
// buffer was replaced. The sniffed content mimetype wins over the
// extension guess when it is more specific.
func (m *MediaFile) fileInfo() {
	if m.path != "" {
		m.name = filepath.Base(m.path)
	}
	extMime := mediatype.MimeByFormat(strings.TrimPrefix(filepath.Ext(m.name), "."))
	sniffed := sniff.DetectMime(m.buffer.Bytes())
	if mediatype.MimeRelevance(sniffed) > mediatype.MimeRelevance(extMime) {
		m.mimetype = sniffed
	} else {
		m.mimetype = extMime
	}
	if m.mimetype == "" {
		m.mimetype = mediatype.DefaultMime
	}
}

// ToBytes returns a copy of the canonical buffer.
func (m *MediaFile) ToBytes() []byte {
	out := make([]byte, m.buffer.Len())
	copy(out, m.buffer.Bytes())
	return out
}

// ToReader returns a fresh reader over the payload.
func (m *MediaFile) ToReader() io.Reader {
	return bytes.NewReader(m.ToBytes())
}

// ToBase64 renders the payload as a standard base64 string.
func (m *MediaFile) ToBase64() string {
	return base64.StdEncoding.EncodeToString(m.buffer.Bytes())
}

// ToDocument returns the json serializable shape of this file.
func (m *MediaFile) ToDocument() *Document {
	return &Document{
		FileName:    m.name,
		ContentType: m.mimetype,
		Content:     m.ToBase64(),
	}
}

// ToJSON marshals the payload with its name and mimetype.
func (m *MediaFile) ToJSON() ([]byte, error) {
	data, err := json.Marshal(m.ToDocument())
	if err != nil {
		return nil, &mediatype.EncodeError{Kind: m.kind, Target: "json", Err: err}
	}
	return data, nil
}

// ToFormPart writes the payload as a file part onto a multipart
// writer, the shape http clients expect for uploads.
func (m *MediaFile) ToFormPart(w *multipart.Writer, field string) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field), escapeQuotes(m.name)))
	h.Set("Content-Type", m.mimetype)
	part, err := w.CreatePart(h)
	if err != nil {
		return &mediatype.EncodeError{Kind: m.kind, Target: "multipart", Err: err}
	}
	if _, err := part.Write(m.buffer.Bytes()); err != nil {
		return &mediatype.EncodeError{Kind: m.kind, Target: "multipart", Err: err}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Save writes the payload to disk. A directory path gets the default
// file name appended, missing parent folders are created.
func (m *MediaFile) Save(path string) error {
	if path == "" {
		path = "."
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return emperror.Wrapf(err, "cannot create folder %s", dir)
		}
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, m.defaultFilename())
	}
	if err := ioutil.WriteFile(path, m.buffer.Bytes(), 0644); err != nil {
		return emperror.Wrapf(err, "cannot write %s", path)
	}
	log.Debugf("saved %s (%v bytes)", path, m.buffer.Len())
	return nil
}

// SaveURL writes the payload to a registered filesystem backend.
func (m *MediaFile) SaveURL(rawurl string) error {
	u, ok := sniff.ParseURL(rawurl)
	if !ok {
		return &mediatype.UnsupportedInputError{Value: rawurl}
	}
	fs, err := filesystem.DefaultResolver().Get(u.Scheme)
	if err != nil {
		return err
	}
	folder, name := filesystem.SplitURL(u)
	if name == "" {
		name = m.defaultFilename()
	}
	return fs.FilePut(folder, name, m.buffer.Bytes(), filesystem.FilePutOptions{ContentType: m.mimetype})
}

// defaultFilename derives a safe file name from the media name and
// mimetype.
func (m *MediaFile) defaultFilename() string {
	ext := filepath.Ext(m.name)
	base := strings.TrimSuffix(m.name, ext)
	if base == "" {
		base = "mediakit-output"
	}
	if ext == "" {
		if format := mediatype.FormatByMime(m.mimetype); format != "" {
			ext = "." + format
		}
	}
	return slug.Make(base) + ext
}

// Size returns the payload size in the given unit (bytes, kb, mb, gb).
func (m *MediaFile) Size(unit string) float64 {
	size := float64(m.buffer.Len())
	switch strings.ToLower(unit) {
	case "kb":
		return size / 1000
	case "mb":
		return size / 1000000
	case "gb":
		return size / 1000000000
	}
	return size
}
