package mediafile

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goph/emperror"
	"github.com/je4/mediakit/v2/pkg/codec"
	"github.com/je4/mediakit/v2/pkg/mediatype"
)

var errEmptyFrameList = errors.New("the list of image files is empty")

// VideoFile is a media file whose payload is a video container.
// Loading probes the payload and keeps frame rate, dimensions, the
// estimated frame count and the audio sample rate.
type VideoFile struct {
	MediaFile
	meta *mediatype.Meta
	// estimate from the container header, exact after a stream was
	// consumed to the end
	frameCount int64
}

func NewVideoFile() *VideoFile {
	f := &VideoFile{}
	f.name = "file"
	f.mimetype = mediatype.DefaultMime
	f.kind = mediatype.KindVideo
	f.onLoad = f.identify
	return f
}

func (f *VideoFile) identify() error {
	av, err := codec.Default().AV(mediatype.KindVideo)
	if err != nil {
		return err
	}
	tmp, clean, err := f.toTemp(av)
	if err != nil {
		return err
	}
	defer clean()
	meta, err := av.Meta(tmp)
	if err != nil {
		return &mediatype.DecodeError{Kind: mediatype.KindVideo, Err: err}
	}
	if meta.Width == 0 || meta.Height == 0 {
		return &mediatype.DecodeError{Kind: mediatype.KindVideo}
	}
	f.meta = meta
	f.frameCount = meta.Frames
	if mt := mediatype.MimeByFormat(meta.Format); mt != mediatype.DefaultMime {
		f.mimetype = mt
	}
	return nil
}

func (f *VideoFile) toTemp(av *codec.FFMpeg) (string, func(), error) {
	ext := strings.TrimPrefix(filepath.Ext(f.name), ".")
	if ext == "" {
		ext = mediatype.FormatByMime(f.mimetype)
	}
	if ext == "" {
		ext = "mp4"
	}
	return av.WriteTemp(f.buffer.Bytes(), ext)
}

func (f *VideoFile) Meta() *mediatype.Meta { return f.meta }

// FrameCount is the container's estimate until a stream was consumed
// to the end, then the exact count.
func (f *VideoFile) FrameCount() int64 { return f.frameCount }

func (f *VideoFile) FrameRate() float64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.FrameRate
}

func (f *VideoFile) Width() int64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.Width
}

func (f *VideoFile) Height() int64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.Height
}

func (f *VideoFile) AudioSampleRate() int64 {
	if f.meta == nil {
		return 0
	}
	return f.meta.SampleRate
}

// ExtractAudio demuxes the audio track and returns it encoded in the
// given format (mp3 if empty).
func (f *VideoFile) ExtractAudio(format string) ([]byte, error) {
	if format == "" {
		format = "mp3"
	}
	av, err := codec.Default().AV(mediatype.KindVideo)
	if err != nil {
		return nil, err
	}
	tmp, clean, err := f.toTemp(av)
	if err != nil {
		return nil, err
	}
	defer clean()
	data, err := av.ExtractAudio(tmp, format)
	if err != nil {
		return nil, &mediatype.EncodeError{Kind: mediatype.KindAudio, Target: format, Err: err}
	}
	return data, nil
}

// ExtractAudioTo writes the audio track to a file, the format taken
// from the target extension.
func (f *VideoFile) ExtractAudioTo(path string) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	data, err := f.ExtractAudio(format)
	if err != nil {
		return err
	}
	af := NewMediaFile()
	af.name = filepath.Base(path)
	if err := af.FromBytes(data); err != nil {
		return err
	}
	return af.Save(path)
}

// AddAudio muxes an audio file into the video, replacing the payload.
// The video stream is copied, not re-encoded.
func (f *VideoFile) AddAudio(audioPath string) error {
	av, err := codec.Default().AV(mediatype.KindVideo)
	if err != nil {
		return err
	}
	tmp, clean, err := f.toTemp(av)
	if err != nil {
		return err
	}
	defer clean()
	return f.muxInto(av, tmp, audioPath)
}

// AddAudioSamples encodes pcm samples to an audio track and muxes it
// into the video.
func (f *VideoFile) AddAudioSamples(samples []int16, rate, channels int) error {
	av, err := codec.Default().AV(mediatype.KindVideo)
	if err != nil {
		return err
	}
	if rate == 0 {
		rate = int(f.AudioSampleRate())
	}
	audio, err := av.EncodeSamples(samples, rate, channels, "mp3")
	if err != nil {
		return &mediatype.EncodeError{Kind: mediatype.KindAudio, Target: "mp3", Err: err}
	}
	audioPath, cleanAudio, err := av.WriteTemp(audio, "mp3")
	if err != nil {
		return err
	}
	defer cleanAudio()
	tmp, clean, err := f.toTemp(av)
	if err != nil {
		return err
	}
	defer clean()
	return f.muxInto(av, tmp, audioPath)
}

func (f *VideoFile) muxInto(av *codec.FFMpeg, videoPath, audioPath string) error {
	out := av.TempName("mp4")
	defer os.Remove(out)
	if err := av.Mux(videoPath, audioPath, out); err != nil {
		return &mediatype.EncodeError{Kind: mediatype.KindVideo, Target: "mp4", Err: err}
	}
	data, err := ioutil.ReadFile(out)
	if err != nil {
		return emperror.Wrapf(err, "cannot read muxed file %s", out)
	}
	name := f.name
	if err := f.FromBytes(data); err != nil {
		return err
	}
	f.name = name
	return nil
}

// FromFiles assembles a video from still image files plus an optional
// audio track.
func (f *VideoFile) FromFiles(imageFiles []string, frameRate float64, audioPath string) error {
	if len(imageFiles) == 0 {
		return &mediatype.DecodeError{Kind: mediatype.KindVideo, Err: errEmptyFrameList}
	}
	av, err := codec.Default().AV(mediatype.KindVideo)
	if err != nil {
		return err
	}
	out := av.TempName("mp4")
	defer os.Remove(out)

	var fw *codec.FrameWriter
	// releases the encoder process on early error returns, a no-op
	// after the regular Close below
	defer func() {
		if fw != nil {
			fw.Close()
		}
	}()
	for _, path := range imageFiles {
		p, err := ioutil.ReadFile(path)
		if err != nil {
			return emperror.Wrapf(err, "cannot read frame %s", path)
		}
		img, _, err := codec.Default().DecodeImage(p)
		if err != nil {
			return err
		}
		if fw == nil {
			bounds := img.Bounds()
			fw, err = av.NewFrameWriter(out, bounds.Dx(), bounds.Dy(), frameRate)
			if err != nil {
				return err
			}
		}
		if err := fw.Write(img); err != nil {
			return &mediatype.EncodeError{Kind: mediatype.KindVideo, Target: "mp4", Err: err}
		}
	}
	if err := fw.Close(); err != nil {
		return &mediatype.EncodeError{Kind: mediatype.KindVideo, Target: "mp4", Err: err}
	}

	if audioPath != "" {
		name := "video.mp4"
		if err := f.muxFromPaths(av, out, audioPath); err != nil {
			return err
		}
		f.name = name
		return nil
	}

	data, err := ioutil.ReadFile(out)
	if err != nil {
		return emperror.Wrapf(err, "cannot read assembled video %s", out)
	}
	if err := f.FromBytes(data); err != nil {
		return err
	}
	f.name = "video.mp4"
	return nil
}

func (f *VideoFile) muxFromPaths(av *codec.FFMpeg, videoPath, audioPath string) error {
	out := av.TempName("mp4")
	defer os.Remove(out)
	if err := av.Mux(videoPath, audioPath, out); err != nil {
		return &mediatype.EncodeError{Kind: mediatype.KindVideo, Target: "mp4", Err: err}
	}
	data, err := ioutil.ReadFile(out)
	if err != nil {
		return emperror.Wrapf(err, "cannot read muxed file %s", out)
	}
	return f.FromBytes(data)
}

// FromImageFiles assembles a silent video from still image files.
func (f *VideoFile) FromImageFiles(imageFiles []string, frameRate float64) error {
	return f.FromFiles(imageFiles, frameRate, "")
}

// FromDir assembles a video from all images in a directory, ordered by
// modification time. With an empty audioPath the first wav or mp3 file
// in the directory is used, if any.
func (f *VideoFile) FromDir(dir string, audioPath string, frameRate float64) error {
	var imageFiles []string
	for _, pattern := range []string{"*.png", "*.jpg", "*.jpeg"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return emperror.Wrapf(err, "cannot glob %s", pattern)
		}
		imageFiles = append(imageFiles, matches...)
	}
	sort.Slice(imageFiles, func(i, j int) bool {
		return mtime(imageFiles[i]).Before(mtime(imageFiles[j]))
	})

	if audioPath == "" {
		for _, pattern := range []string{"*.wav", "*.mp3"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err == nil && len(matches) > 0 {
				audioPath = matches[0]
				break
			}
		}
	}
	return f.FromFiles(imageFiles, frameRate, audioPath)
}

func mtime(path string) (t time.Time) {
	if info, err := os.Stat(path); err == nil {
		t = info.ModTime()
	}
	return t
}
