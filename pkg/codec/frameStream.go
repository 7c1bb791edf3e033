package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strconv"

	"github.com/goph/emperror"
)

// FrameReader streams decoded frames out of a running ffmpeg process
// as raw rgba. It is forward only; a fresh reader is needed to start
// over.
type FrameReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	width  int
	height int
	buf    []byte
	closed bool
}

// OpenFrameReader starts decoding a video file into an rgba frame
// sequence. width/height must match the probed stream dimensions.
func (f *FFMpeg) OpenFrameReader(path string, width, height int) (*FrameReader, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	cmd := exec.Command(f.ffmpeg,
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)
	fr := &FrameReader{
		cmd:    cmd,
		width:  width,
		height: height,
		buf:    make([]byte, width*height*4),
	}
	var err error
	fr.stdout, err = cmd.StdoutPipe()
	if err != nil {
		return nil, emperror.Wrap(err, "cannot open stdout pipe")
	}
	cmd.Stderr = &fr.stderr
	if err := cmd.Start(); err != nil {
		return nil, emperror.Wrap(err, "cannot start ffmpeg")
	}
	return fr, nil
}

// Next returns the next decoded frame or io.EOF after the last one.
func (fr *FrameReader) Next() (image.Image, error) {
	if fr.closed {
		return nil, io.EOF
	}
	if _, err := io.ReadFull(fr.stdout, fr.buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			fr.finish()
			return nil, io.EOF
		}
		return nil, emperror.Wrap(err, "cannot read frame")
	}
	img := image.NewRGBA(image.Rect(0, 0, fr.width, fr.height))
	copy(img.Pix, fr.buf)
	return img, nil
}

func (fr *FrameReader) finish() {
	if fr.closed {
		return
	}
	fr.closed = true
	fr.stdout.Close()
	fr.cmd.Wait()
}

// Close terminates the decode early and releases the process.
func (fr *FrameReader) Close() error {
	if fr.closed {
		return nil
	}
	fr.closed = true
	fr.stdout.Close()
	if fr.cmd.Process != nil {
		fr.cmd.Process.Kill()
	}
	fr.cmd.Wait()
	return nil
}

// FrameWriter feeds rgba frames into a running ffmpeg encode.
type FrameWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	width  int
	height int
	closed bool
}

// NewFrameWriter starts encoding a frame sequence into outPath. All
// frames must share the given dimensions.
func (f *FFMpeg) NewFrameWriter(outPath string, width, height int, frameRate float64) (*FrameWriter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if frameRate <= 0 {
		frameRate = 30
	}
	cmd := exec.Command(f.ffmpeg,
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.FormatFloat(frameRate, 'f', -1, 64),
		"-i", "pipe:0",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	fw := &FrameWriter{cmd: cmd, width: width, height: height}
	var err error
	fw.stdin, err = cmd.StdinPipe()
	if err != nil {
		return nil, emperror.Wrap(err, "cannot open stdin pipe")
	}
	cmd.Stderr = &fw.stderr
	if err := cmd.Start(); err != nil {
		return nil, emperror.Wrap(err, "cannot start ffmpeg")
	}
	return fw, nil
}

// Write appends one frame to the encode.
func (fw *FrameWriter) Write(img image.Image) error {
	if fw.closed {
		return fmt.Errorf("frame writer is closed")
	}
	bounds := img.Bounds()
	if bounds.Dx() != fw.width || bounds.Dy() != fw.height {
		return fmt.Errorf("frame size %dx%d does not match %dx%d",
			bounds.Dx(), bounds.Dy(), fw.width, fw.height)
	}
	rgba := toRGBA(img)
	if _, err := fw.stdin.Write(rgba.Pix); err != nil {
		return emperror.Wrapf(err, "cannot write frame: %s", tail(fw.stderr.String()))
	}
	return nil
}

// Close flushes the stream and waits for the encode to finish.
func (fw *FrameWriter) Close() error {
	if fw.closed {
		return nil
	}
	fw.closed = true
	fw.stdin.Close()
	if err := fw.cmd.Wait(); err != nil {
		return emperror.Wrapf(err, "ffmpeg failed: %s", tail(fw.stderr.String()))
	}
	return nil
}

func toRGBA(img image.Image) *image.RGBA {
	// the fast path needs Pix to be exactly one tightly packed frame;
	// a SubImage shares the parent's stride and backing array
	if rgba, ok := img.(*image.RGBA); ok {
		if rgba.Rect.Min == (image.Point{}) &&
			rgba.Stride == 4*rgba.Rect.Dx() &&
			len(rgba.Pix) == rgba.Stride*rgba.Rect.Dy() {
			return rgba
		}
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
