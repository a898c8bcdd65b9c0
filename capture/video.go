package capture

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// VideoSource reads frames from a gocv.VideoCapture, either a file or a
// camera device.
type VideoSource struct {
	capture *gocv.VideoCapture
	name    string
}

// OpenVideo opens a video file.
//
// Arguments:
//   - path: The video file path.
//
// Returns:
//   - *VideoSource: The opened source.
//   - error: If the file cannot be opened by any backend.
func OpenVideo(path string) (*VideoSource, error) {
	vc, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open video %s", path)
	}
	return &VideoSource{capture: vc, name: path}, nil
}

// OpenDevice opens a camera by device index.
func OpenDevice(id int) (*VideoSource, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, errors.Wrapf(err, "open video capture device %d", id)
	}
	return &VideoSource{capture: vc, name: fmt.Sprintf("device:%d", id)}, nil
}

// Read grabs and decodes the next frame.
func (v *VideoSource) Read(dst *gocv.Mat) error {
	if ok := v.capture.Read(dst); !ok || dst.Empty() {
		return io.EOF
	}
	return nil
}

// Close releases the capture handle.
func (v *VideoSource) Close() error {
	return v.capture.Close()
}

// Name returns the file path or device label.
func (v *VideoSource) Name() string {
	return v.name
}
