package mediafile

import (
	"path/filepath"
	"strings"

	"github.com/je4/mediakit/v2/pkg/codec"
	"github.com/je4/mediakit/v2/pkg/mediatype"
)

// AudioFile is a media file whose payload is an audio track. Loading
// probes the payload with ffprobe and keeps sample rate and channel
// layout.
type AudioFile struct {
	MediaFile
	meta *mediatype.Meta
}

func NewAudioFile() *AudioFile {
	f := &AudioFile{}
	f.name = "file"
	f.mimetype = mediatype.DefaultMime
	f.kind = mediatype.KindAudio
	f.onLoad = f.identify
	return f
}

func (f *AudioFile) identify() error {
	av, err := codec.Default().AV(mediatype.KindAudio)
	if err != nil {
		return err
	}
	tmp, clean, err := av.WriteTemp(f.buffer.Bytes(), f.tempExt())
	if err != nil {
		return err
	}
	defer clean()
	meta, err := av.Meta(tmp)
	if err != nil {
		return &mediatype.DecodeError{Kind: mediatype.KindAudio, Err: err}
	}
	if meta.SampleRate == 0 {
		return &mediatype.DecodeError{Kind: mediatype.KindAudio}
	}
	f.meta = meta
	if mt := mediatype.MimeByFormat(meta.Format); mt != mediatype.DefaultMime {
		f.mimetype = mt
	}
	return nil
}

func (f *AudioFile) tempExt() string {
	if ext := strings.TrimPrefix(filepath.Ext(f.name), "."); ext != "" {
		return ext
	}
	if format := mediatype.FormatByMime(f.mimetype); format != "" {
		return format
	}
	return "bin"
}

func (f *AudioFile) Meta() *mediatype.Meta { return f.meta }

func (f *AudioFile) SampleRate() int64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.SampleRate
}

func (f *AudioFile) Channels() int64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.Channels
}

func (f *AudioFile) Duration() float64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.Duration
}

// ToSamples decodes the payload into interleaved signed 16 bit pcm at
// its native sample rate.
func (f *AudioFile) ToSamples() (samples []int16, rate int, err error) {
	av, err := codec.Default().AV(mediatype.KindAudio)
	if err != nil {
		return nil, 0, err
	}
	tmp, clean, err := av.WriteTemp(f.buffer.Bytes(), f.tempExt())
	if err != nil {
		return nil, 0, err
	}
	defer clean()
	samples, rate, _, err = av.DecodeSamples(tmp)
	return samples, rate, err
}

// FromSamples encodes interleaved pcm samples into the payload. rate 0
// means 44100, channels 0 means mono, empty format means wav.
func (f *AudioFile) FromSamples(samples []int16, rate, channels int, format string) error {
	if format == "" {
		format = "wav"
	}
	av, err := codec.Default().AV(mediatype.KindAudio)
	if err != nil {
		return err
	}
	data, err := av.EncodeSamples(samples, rate, channels, format)
	if err != nil {
		return &mediatype.EncodeError{Kind: mediatype.KindAudio, Target: format, Err: err}
	}
	f.name = "audio_file." + format
	return f.FromBytes(data)
}

// Convert re-encodes the payload to another audio container in place.
func (f *AudioFile) Convert(format string) error {
	av, err := codec.Default().AV(mediatype.KindAudio)
	if err != nil {
		return err
	}
	data, err := av.Transcode(f.buffer.Bytes(), f.tempExt(), format)
	if err != nil {
		return &mediatype.EncodeError{Kind: mediatype.KindAudio, Target: format, Err: err}
	}
	ext := filepath.Ext(f.name)
	f.name = strings.TrimSuffix(f.name, ext) + "." + format
	return f.FromBytes(data)
}
