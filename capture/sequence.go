package capture

import (
	"io"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/redscan/util"
)

// ImageSequence plays back still images in frame order. Files are read and
// decoded one at a time as frames are requested.
type ImageSequence struct {
	files []util.ImageFile
	next  int
	name  string
}

// OpenImageSequence lists the frame-N images of a directory.
//
// Arguments:
//   - dir: Directory holding the frames.
//
// Returns:
//   - *ImageSequence: The source, positioned on the lowest frame number.
//   - error: If the directory cannot be listed or holds no images.
func OpenImageSequence(dir string) (*ImageSequence, error) {
	files, err := util.ListDirectoryImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrUnsupportedInput, "no images in %s", dir)
	}
	return &ImageSequence{files: files, name: dir}, nil
}

// OpenImage returns a source that yields a single image and then ends.
func OpenImage(path string) (*ImageSequence, error) {
	if !util.HasExtension(path, util.ImageExtensions) {
		return nil, errors.Wrapf(ErrUnsupportedInput, "%s", path)
	}
	return &ImageSequence{files: []util.ImageFile{{Path: path}}, name: path}, nil
}

// Read decodes the next image as BGR. A file that cannot be read or decoded
// ends the sequence.
func (s *ImageSequence) Read(dst *gocv.Mat) error {
	if s.next >= len(s.files) {
		return io.EOF
	}
	file := s.files[s.next]
	s.next++

	if err := file.Load(); err != nil {
		return io.EOF
	}
	decoded, err := gocv.IMDecode(file.Data, gocv.IMReadColor)
	if err != nil {
		return io.EOF
	}
	if decoded.Empty() {
		decoded.Close()
		return io.EOF
	}
	defer decoded.Close()
	decoded.CopyTo(dst)
	return nil
}

// Close is a no-op; files are not held open between reads.
func (s *ImageSequence) Close() error {
	s.next = len(s.files)
	return nil
}

// Name returns the directory or image path.
func (s *ImageSequence) Name() string {
	return s.name
}

// Len returns the number of frames in the sequence.
func (s *ImageSequence) Len() int {
	return len(s.files)
}
