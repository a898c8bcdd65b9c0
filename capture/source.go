// Package capture provides the frame sources read by the detection loop.
//
// Every source yields 8-bit BGR frames in order and reports the end of the
// stream with io.EOF. A failed read is treated the same way as the end of the
// stream: there is no retry and no seeking.
package capture

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/redscan/util"
)

// ErrUnsupportedInput is returned when an input cannot be opened as a source.
var ErrUnsupportedInput = errors.New("unsupported input")

// VideoExtensions are the container formats accepted for video files.
var VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

// Source is an ordered stream of frames.
type Source interface {
	// Read decodes the next frame into dst. It returns io.EOF once the stream
	// is exhausted or a frame cannot be read.
	Read(dst *gocv.Mat) error
	// Close releases the underlying capture handle.
	Close() error
	// Name describes the source for logging.
	Name() string
}

// InputKind represents the type of input being processed.
type InputKind int

const (
	InputCamera InputKind = iota
	InputVideo
	InputImage
	InputFrames
)

func (k InputKind) String() string {
	switch k {
	case InputCamera:
		return "camera"
	case InputVideo:
		return "video"
	case InputImage:
		return "image"
	case InputFrames:
		return "frames"
	default:
		return fmt.Sprintf("InputKind(%d)", int(k))
	}
}

// Input selects what to open.
type Input struct {
	Kind     InputKind
	Path     string
	DeviceID int
}

// ResolveInput picks the input from the mutually exclusive path options.
//
// At most one of video, image and framesDir may be set. When none is set the
// camera device is used.
//
// Arguments:
//   - video: Path to a video file.
//   - image: Path to a single image file.
//   - framesDir: Directory of frame-N images.
//   - deviceID: Camera device used when no path is given.
//
// Returns:
//   - Input: The validated input.
//   - error: ErrUnsupportedInput if several paths are given, or the path does
//     not exist or has the wrong extension.
func ResolveInput(video, image, framesDir string, deviceID int) (Input, error) {
	set := 0
	for _, p := range []string{video, image, framesDir} {
		if p != "" {
			set++
		}
	}
	if set > 1 {
		return Input{}, errors.Wrap(ErrUnsupportedInput, "only one of video, image and frames directory may be given")
	}

	switch {
	case video != "":
		if err := validateFile(video, VideoExtensions); err != nil {
			return Input{}, errors.Wrap(err, "video")
		}
		return Input{Kind: InputVideo, Path: video}, nil
	case image != "":
		if err := validateFile(image, util.ImageExtensions); err != nil {
			return Input{}, errors.Wrap(err, "image")
		}
		return Input{Kind: InputImage, Path: image}, nil
	case framesDir != "":
		info, err := os.Stat(framesDir)
		if err != nil {
			return Input{}, errors.Wrapf(ErrUnsupportedInput, "frames directory: %v", err)
		}
		if !info.IsDir() {
			return Input{}, errors.Wrapf(ErrUnsupportedInput, "%s is not a directory", framesDir)
		}
		return Input{Kind: InputFrames, Path: framesDir}, nil
	default:
		if deviceID < 0 {
			return Input{}, errors.Wrapf(ErrUnsupportedInput, "device id %d", deviceID)
		}
		return Input{Kind: InputCamera, DeviceID: deviceID}, nil
	}
}

// validateFile checks that the file exists and has a supported extension.
func validateFile(path string, extensions []string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(ErrUnsupportedInput, "%v", err)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrUnsupportedInput, "%s is a directory", path)
	}
	if !util.HasExtension(path, extensions) {
		return errors.Wrapf(ErrUnsupportedInput, "%s: supported extensions are %v", path, extensions)
	}
	return nil
}

// Open opens the source for a resolved input.
func Open(in Input) (Source, error) {
	switch in.Kind {
	case InputCamera:
		return OpenDevice(in.DeviceID)
	case InputVideo:
		return OpenVideo(in.Path)
	case InputImage:
		return OpenImage(in.Path)
	case InputFrames:
		return OpenImageSequence(in.Path)
	default:
		return nil, errors.Wrapf(ErrUnsupportedInput, "kind %v", in.Kind)
	}
}
