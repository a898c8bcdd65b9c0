package images

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Highlight is the outline color for detected regions. gocv maps RGBA onto
// BGR, so this is BGR (0, 255, 255): yellow.
var Highlight = color.RGBA{R: 255, G: 255, B: 0, A: 0}

// Annotator draws region outlines onto frames.
type Annotator struct {
	Color     color.RGBA
	Thickness int
}

// DefaultAnnotator returns a 1 pixel yellow outline.
func DefaultAnnotator() Annotator {
	return Annotator{Color: Highlight, Thickness: 1}
}

// Draw outlines each box on the frame in place.
//
// The outline runs from (x, y) to (x+w, y+h), i.e. OpenCV draws the Max corner
// too, one pixel outside the half-open box.
//
// Arguments:
//   - frame: The frame to draw on.
//   - boxes: Bounding rectangles in frame coordinates.
//
// Returns:
//   - error: If OpenCV fails to draw.
func (a Annotator) Draw(frame *gocv.Mat, boxes []image.Rectangle) error {
	for _, box := range boxes {
		if err := gocv.Rectangle(frame, box, a.Color, a.Thickness); err != nil {
			return errors.Wrapf(err, "draw %v", box)
		}
	}
	return nil
}
