package mediafile

import (
	"image"
	"io"
	"io/ioutil"
	"os"

	"github.com/je4/mediakit/v2/pkg/codec"
	"github.com/je4/mediakit/v2/pkg/mediatype"
)

// Frame is one element of a video stream: decoded pixels plus the pcm
// samples covering the frame's display time. Audio is nil for silent
// streams.
type Frame struct {
	Image image.Image
	Audio []int16
}

// FrameSource yields frames until io.EOF. It is finite and forward
// only.
type FrameSource interface {
	Next() (*Frame, error)
	Close() error
}

// VideoStream lazily decodes a video into frame/audio pairs. It can
// only be restarted by asking the VideoFile for a new stream.
type VideoStream struct {
	owner      *VideoFile
	fr         *codec.FrameReader
	tempPath   string
	tempClean  func()
	audio      []int16
	audioPos   int
	perFrame   int
	sampleRate int
	channels   int
	frameRate  float64
	count      int64
	done       bool
}

// ToVideoStream opens a lazy stream of decoded frames, each paired
// with its slice of the audio track when includeAudio is set.
func (f *VideoFile) ToVideoStream(includeAudio bool) (*VideoStream, error) {
	av, err := codec.Default().AV(mediatype.KindVideo)
	if err != nil {
		return nil, err
	}
	if f.meta == nil {
		return nil, &mediatype.DecodeError{Kind: mediatype.KindVideo}
	}
	tmp, clean, err := f.toTemp(av)
	if err != nil {
		return nil, err
	}

	vs := &VideoStream{
		owner:     f,
		tempPath:  tmp,
		tempClean: clean,
		frameRate: f.meta.FrameRate,
	}

	if includeAudio && f.meta.SampleRate > 0 {
		samples, rate, channels, err := av.DecodeSamples(tmp)
		if err != nil {
			clean()
			return nil, err
		}
		vs.audio = samples
		vs.sampleRate = rate
		vs.channels = channels
		vs.perFrame = samplesPerFrame(len(samples), rate, channels, vs.frameRate, f.frameCount)
	}

	vs.fr, err = av.OpenFrameReader(tmp, int(f.meta.Width), int(f.meta.Height))
	if err != nil {
		clean()
		return nil, err
	}
	return vs, nil
}

// ToImageStream opens a lazy stream of decoded frames without audio.
func (f *VideoFile) ToImageStream() (*VideoStream, error) {
	return f.ToVideoStream(false)
}

// samplesPerFrame sizes the audio chunk paired with one frame. With an
// unknown frame rate the track is spread over the estimated frame
// count. Chunks stay aligned to interleaved sample groups.
func samplesPerFrame(total, rate, channels int, frameRate float64, frames int64) int {
	var per int
	if frameRate > 0 {
		per = int(float64(rate*channels) / frameRate)
	} else if frames > 0 {
		per = total / int(frames)
	}
	per -= per % channels
	return per
}

func (vs *VideoStream) SampleRate() int { return vs.sampleRate }

func (vs *VideoStream) Channels() int { return vs.channels }

func (vs *VideoStream) FrameRate() float64 { return vs.frameRate }

// Next returns the next frame or io.EOF after the last one. Exhausting
// the stream fixes the owner's frame count to the exact value.
func (vs *VideoStream) Next() (*Frame, error) {
	if vs.done {
		return nil, io.EOF
	}
	img, err := vs.fr.Next()
	if err == io.EOF {
		vs.owner.frameCount = vs.count
		vs.release()
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}

	frame := &Frame{Image: img}
	if vs.audio != nil {
		end := vs.audioPos + vs.perFrame
		if end > len(vs.audio) {
			end = len(vs.audio)
		}
		frame.Audio = vs.audio[vs.audioPos:end]
		vs.audioPos = end
	}
	vs.count++
	return frame, nil
}

func (vs *VideoStream) release() {
	if vs.done {
		return
	}
	vs.done = true
	vs.fr.Close()
	if vs.tempClean != nil {
		vs.tempClean()
	}
}

// Close stops the stream early and removes the backing temp file.
func (vs *VideoStream) Close() error {
	vs.release()
	return nil
}

// FromVideoStream assembles a video from a frame source, typically
// another file's ToVideoStream. Audio chunks carried by the frames are
// re-encoded into the new audio track.
func (f *VideoFile) FromVideoStream(src FrameSource, frameRate float64) error {
	av, err := codec.Default().AV(mediatype.KindVideo)
	if err != nil {
		return err
	}
	defer src.Close()

	sampleRate, channels := 44100, 1
	if info, ok := src.(interface {
		SampleRate() int
		Channels() int
	}); ok {
		if info.SampleRate() > 0 {
			sampleRate = info.SampleRate()
		}
		if info.Channels() > 0 {
			channels = info.Channels()
		}
	}
	if frameRate <= 0 {
		if info, ok := src.(interface{ FrameRate() float64 }); ok {
			frameRate = info.FrameRate()
		}
	}
	if frameRate <= 0 {
		frameRate = 30
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
	var audio []int16
	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if fw == nil {
			bounds := frame.Image.Bounds()
			fw, err = av.NewFrameWriter(out, bounds.Dx(), bounds.Dy(), frameRate)
			if err != nil {
				return err
			}
		}
		if err := fw.Write(frame.Image); err != nil {
			return &mediatype.EncodeError{Kind: mediatype.KindVideo, Target: "mp4", Err: err}
		}
		audio = append(audio, frame.Audio...)
	}
	if fw == nil {
		return &mediatype.DecodeError{Kind: mediatype.KindVideo, Err: errEmptyFrameList}
	}
	if err := fw.Close(); err != nil {
		return &mediatype.EncodeError{Kind: mediatype.KindVideo, Target: "mp4", Err: err}
	}

	if len(audio) > 0 {
		audioData, err := av.EncodeSamples(audio, sampleRate, channels, "mp3")
		if err != nil {
			return &mediatype.EncodeError{Kind: mediatype.KindAudio, Target: "mp3", Err: err}
		}
		audioPath, cleanAudio, err := av.WriteTemp(audioData, "mp3")
		if err != nil {
			return err
		}
		defer cleanAudio()
		if err := f.muxFromPaths(av, out, audioPath); err != nil {
			return err
		}
		f.name = "video.mp4"
		return nil
	}

	data, err := ioutil.ReadFile(out)
	if err != nil {
		return err
	}
	if err := f.FromBytes(data); err != nil {
		return err
	}
	f.name = "video.mp4"
	return nil
}
