package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io/ioutil"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/goph/emperror"
	ffmpeg_models "github.com/je4/goffmpeg/models"
	"github.com/je4/mediakit/v2/pkg/mediatype"
)

// FFMpeg wraps the ffmpeg/ffprobe binaries for all audio and video
// work. Data moves through temp files since most container formats
// need seekable output.
type FFMpeg struct {
	ffmpeg     string
	ffprobe    string
	tempfolder string
}

// NewFFMpeg resolves the binaries. A missing binary is reported as
// MissingDependencyError right here instead of failing deep inside a
// later exec call.
func NewFFMpeg(ffmpeg, ffprobe, tempfolder string) (*FFMpeg, error) {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	ffm, err := lookBinary(ffmpeg)
	if err != nil {
		return nil, &mediatype.MissingDependencyError{Backend: "ffmpeg", Kind: mediatype.KindVideo, Err: err}
	}
	ffp, err := lookBinary(ffprobe)
	if err != nil {
		return nil, &mediatype.MissingDependencyError{Backend: "ffprobe", Kind: mediatype.KindVideo, Err: err}
	}
	return &FFMpeg{ffmpeg: ffm, ffprobe: ffp, tempfolder: tempfolder}, nil
}

func (f *FFMpeg) run(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(f.ffmpeg, args...)
	var stdout, stderr bytes.Buffer
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	log.Debugf("running %s %s", f.ffmpeg, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return nil, emperror.Wrapf(err, "ffmpeg failed: %s", tail(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// last stderr lines, full ffmpeg banners are useless in error messages
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}

// TempName returns a temp file path for intermediate payloads.
func (f *FFMpeg) TempName(ext string) string {
	return TempName(f.tempfolder, ext)
}

// WriteTemp materializes a payload for the binaries, returning the path
// and a cleanup func.
func (f *FFMpeg) WriteTemp(p []byte, ext string) (string, func(), error) {
	name := f.TempName(ext)
	if err := ioutil.WriteFile(name, p, 0600); err != nil {
		return "", nil, emperror.Wrapf(err, "cannot write temp file %s", name)
	}
	return name, func() { os.Remove(name) }, nil
}

// Probe runs ffprobe on a file and returns the raw metadata document.
func (f *FFMpeg) Probe(path string) (*ffmpeg_models.Metadata, error) {
	cmd := exec.Command(f.ffprobe,
		"-i", path,
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-v", "quiet",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, emperror.Wrapf(err, "ffprobe failed: %s", tail(stderr.String()))
	}
	metadata := &ffmpeg_models.Metadata{}
	if err := json.Unmarshal(stdout.Bytes(), metadata); err != nil {
		return nil, emperror.Wrapf(err, "error decoding json - %v", stdout.String())
	}
	return metadata, nil
}

// Meta condenses the ffprobe document into the common Meta shape.
func (f *FFMpeg) Meta(path string) (*mediatype.Meta, error) {
	metadata, err := f.Probe(path)
	if err != nil {
		return nil, err
	}
	meta := &mediatype.Meta{}
	meta.Duration, _ = strconv.ParseFloat(metadata.Format.Duration, 64)
	formats := strings.Split(metadata.Format.FormatName, ",")
	if len(formats) > 0 {
		meta.Format = formats[0]
	}
	for _, stream := range metadata.Streams {
		switch stream.CodecType {
		case "video":
			meta.Width = int64(stream.Width)
			meta.Height = int64(stream.Height)
			meta.FrameRate = parseRate(stream.AvgFrameRate)
			if meta.FrameRate == 0 {
				meta.FrameRate = parseRate(stream.RFrameRrate)
			}
			if frames, err := strconv.ParseInt(stream.NbFrames, 10, 64); err == nil {
				meta.Frames = frames
			}
		case "audio":
			if rate, err := strconv.ParseInt(stream.SampleRate, 10, 64); err == nil {
				meta.SampleRate = rate
			}
			meta.Channels = int64(stream.Channels)
		}
	}
	// mjpeg/png probes are still images, not videos
	if meta.Frames == 0 && meta.FrameRate > 0 && meta.Duration > 0 {
		meta.Frames = int64(meta.Duration * meta.FrameRate)
	}
	return meta, nil
}

// "30000/1001" -> 29.97
func parseRate(rate string) float64 {
	parts := strings.SplitN(rate, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

// Transcode converts a payload from one container/codec to another.
// srcExt hints the input format for containers ffmpeg cannot sniff.
func (f *FFMpeg) Transcode(p []byte, srcExt, format string) ([]byte, error) {
	in, cleanIn, err := f.WriteTemp(p, nonEmptyExt(srcExt))
	if err != nil {
		return nil, err
	}
	defer cleanIn()
	out := f.TempName(format)
	defer os.Remove(out)

	if _, err := f.run(nil, "-y", "-i", in, out); err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(out)
	if err != nil {
		return nil, emperror.Wrapf(err, "cannot read transcoded file %s", out)
	}
	return data, nil
}

func nonEmptyExt(ext string) string {
	if ext == "" {
		return "bin"
	}
	return strings.TrimPrefix(ext, ".")
}

// ExtractAudio demuxes and re-encodes the audio track of a video file.
func (f *FFMpeg) ExtractAudio(videoPath, format string) ([]byte, error) {
	out := f.TempName(format)
	defer os.Remove(out)
	if _, err := f.run(nil, "-y", "-i", videoPath, "-vn", out); err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(out)
	if err != nil {
		return nil, emperror.Wrapf(err, "cannot read extracted audio %s", out)
	}
	return data, nil
}

// Mux adds an audio track to a video file without re-encoding the
// video stream, truncating to the shorter of the two.
func (f *FFMpeg) Mux(videoPath, audioPath, outPath string) error {
	_, err := f.run(nil,
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-shortest",
		outPath,
	)
	return err
}

// DecodeSamples decodes the audio of a file into interleaved signed
// 16 bit pcm at its native rate and channel count.
func (f *FFMpeg) DecodeSamples(path string) (samples []int16, rate, channels int, err error) {
	meta, err := f.Meta(path)
	if err != nil {
		return nil, 0, 0, err
	}
	if meta.SampleRate == 0 {
		return nil, 0, 0, &mediatype.DecodeError{Kind: mediatype.KindAudio}
	}
	rate = int(meta.SampleRate)
	channels = int(meta.Channels)
	if channels == 0 {
		channels = 1
	}

	raw, err := f.run(nil,
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	)
	if err != nil {
		return nil, 0, 0, err
	}
	samples = make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return samples, rate, channels, nil
}

// EncodeSamples renders interleaved pcm samples to an audio container.
func (f *FFMpeg) EncodeSamples(samples []int16, rate, channels int, format string) ([]byte, error) {
	if rate == 0 {
		rate = 44100
	}
	if channels == 0 {
		channels = 1
	}
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}

	out := f.TempName(format)
	defer os.Remove(out)
	if _, err := f.run(raw,
		"-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(channels),
		"-i", "pipe:0",
		out,
	); err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(out)
	if err != nil {
		return nil, emperror.Wrapf(err, "cannot read encoded audio %s", out)
	}
	return data, nil
}

func defaultTempFolder() string {
	return os.TempDir()
}
