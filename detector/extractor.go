// Package detector - This file contains the region extractor that turns a binary
// mask into bounding rectangles.
//
// Contours are retrieved with the full hierarchy (RetrievalTree), so holes
// inside a red region produce their own contours and are filtered by area like
// any other. Contour points use ChainApproxSimple, which keeps only the end
// points of horizontal, vertical and diagonal runs.
package detector

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/redscan/images"
)

const (
	// DefaultMinArea is the polygon area a contour must exceed to be kept.
	DefaultMinArea = 324
)

// ErrInvalidMask is returned when the mask is not a single channel 8-bit image.
var ErrInvalidMask = errors.New("mask must be 8-bit with 1 channel")

// Config represents the configuration for the region extractor.
type Config struct {
	// MinArea is the exclusive lower bound on contour area.
	MinArea float64 `json:"min_area" yaml:"min_area"`
}

// DefaultConfig returns the configuration used for red detection.
func DefaultConfig() Config {
	return Config{MinArea: DefaultMinArea}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MinArea < 0 {
		return errors.Errorf("min area %.1f must not be negative", c.MinArea)
	}
	return nil
}

// Region is a retained contour summarized by its bounding rectangle.
type Region struct {
	// Box is the bounding rectangle; Max is exclusive.
	Box image.Rectangle `json:"box"`
	// Area is the enclosed polygon area of the contour.
	Area float64 `json:"area"`
	// Points is the number of contour points after chain approximation.
	Points int `json:"points"`
}

// Extractor finds red regions in a cleaned mask.
type Extractor struct {
	Config Config
}

// New creates an extractor with the given configuration.
//
// Arguments:
//   - cfg: The extraction configuration.
//
// Returns:
//   - *Extractor: The extractor.
//   - error: If the configuration is invalid.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{Config: cfg}, nil
}

// Extract finds every contour in the mask and keeps those whose area is
// strictly greater than MinArea.
//
// Arguments:
//   - mask: A single channel binary mask. It is not modified.
//
// Returns:
//   - []Region: Retained regions in contour order.
//   - error: If the mask is not an 8-bit single channel image.
func (e *Extractor) Extract(mask gocv.Mat) ([]Region, error) {
	if mask.Empty() {
		return nil, nil
	}
	if mask.Type() != gocv.MatTypeCV8UC1 {
		return nil, errors.Wrapf(ErrInvalidMask, "got %v with %d channels", mask.Type(), mask.Channels())
	}

	contours := gocv.FindContours(mask, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	points := make([][]image.Point, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		points = append(points, contours.At(i).ToPoints())
	}

	return FilterContours(points, e.Config.MinArea), nil
}

// FilterContours computes the area and bounding rectangle of each contour and
// drops any whose area is at or below minArea.
//
// Arguments:
//   - contours: Contour point lists as produced by FindContours.
//   - minArea: Exclusive lower bound on the shoelace area.
//
// Returns:
//   - []Region: Regions for the retained contours, in input order.
//
// @example
// regions := FilterContours([][]image.Point{{{0, 0}, {0, 29}, {29, 29}, {29, 0}}}, 324)
// // regions[0].Box == image.Rect(0, 0, 30, 30), regions[0].Area == 841
func FilterContours(contours [][]image.Point, minArea float64) []Region {
	var regions []Region
	for _, c := range contours {
		area := images.PolygonArea(c)
		if area <= minArea {
			continue
		}
		regions = append(regions, Region{
			Box:    images.BoundingRect(c),
			Area:   area,
			Points: len(c),
		})
	}
	return regions
}

// Boxes returns the bounding rectangles of the regions.
func Boxes(regions []Region) []image.Rectangle {
	boxes := make([]image.Rectangle, len(regions))
	for i, r := range regions {
		boxes[i] = r.Box
	}
	return boxes
}
