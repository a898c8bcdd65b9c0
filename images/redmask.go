// Package images - This file contains the red mask builder using OpenCV (via gocv).
//
// The RedMaskBuilder struct encapsulates the color segmentation pipeline:
//  1. BGR to HSV conversion.
//  2. Thresholding of the two red hue ranges into binary masks.
//  3. Union of both masks.
//  4. Morphological opening (remove specks) and closing (fill holes).
//
// Pipeline Overview:
//
// ┌──────────────┐
// │ Input Frame  │  BGR, 8-bit, 3 channels
// └──────┬───────┘
// ┌────────────────────────────┐
// │ Color conversion (HSV)     │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ InRange low  │ InRange high│
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Bitwise OR                 │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Opening, then closing      │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Binary mask output         │
// └────────────────────────────┘
//
// Usage:
//
//	b, err := images.NewRedMaskBuilder(images.DefaultMaskConfig())
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	for {
//	    frame := getNextFrame()
//	    mask, err := b.Build(frame)
//	    ...
//	}
//
// Note: You must call Close() when finished to release native resources.
package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned when a frame has no pixels.
	ErrEmptyFrame = errors.New("empty frame")
	// ErrInvalidFrame is returned when a frame is not 8-bit BGR.
	ErrInvalidFrame = errors.New("frame must be 8-bit with 3 channels")
)

// RedMaskBuilder holds the reusable matrices of the red segmentation pipeline.
//
// The builder keeps no state between frames other than its buffers: the mask
// produced for a frame depends only on that frame and the configuration.
// Always call Close() when done to release native resources.
type RedMaskBuilder struct {
	Config   MaskConfig // Immutable thresholds and kernel size.
	HSV      gocv.Mat   // Frame converted to HSV.
	LowMask  gocv.Mat   // Pixels in the low hue range.
	HighMask gocv.Mat   // Pixels in the high hue range.
	Mask     gocv.Mat   // Union of both masks after morphology.
	Kernel   gocv.Mat   // Square structuring element.

	lowerLow, upperLow   gocv.Scalar
	lowerHigh, upperHigh gocv.Scalar
}

// NewRedMaskBuilder constructs a builder for the given configuration.
//
// Arguments:
//   - cfg: The threshold ranges and kernel size.
//
// Returns:
//   - *RedMaskBuilder: The builder with allocated matrices.
//   - error: If the configuration is invalid.
//
// @example
// b, err := NewRedMaskBuilder(DefaultMaskConfig())
// defer b.Close()
func NewRedMaskBuilder(cfg MaskConfig) (*RedMaskBuilder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &RedMaskBuilder{
		Config:    cfg,
		HSV:       gocv.NewMat(),
		LowMask:   gocv.NewMat(),
		HighMask:  gocv.NewMat(),
		Mask:      gocv.NewMat(),
		Kernel:    NewSquareKernel(cfg.KernelSize),
		lowerLow:  cfg.Low.Lower.Scalar(),
		upperLow:  cfg.Low.Upper.Scalar(),
		lowerHigh: cfg.High.Lower.Scalar(),
		upperHigh: cfg.High.Upper.Scalar(),
	}, nil
}

// NewSquareKernel returns a size x size rectangular structuring element.
// The caller owns the returned Mat.
func NewSquareKernel(size int) gocv.Mat {
	return gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size))
}

// ConvertHSV converts a BGR frame into the HSV buffer.
//
// Arguments:
//   - frame: An 8-bit, 3-channel BGR frame.
//
// Side Effect: Updates the HSV field.
func (b *RedMaskBuilder) ConvertHSV(frame gocv.Mat) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}
	if frame.Type() != gocv.MatTypeCV8UC3 {
		return errors.Wrapf(ErrInvalidFrame, "got %v with %d channels", frame.Type(), frame.Channels())
	}
	if err := gocv.CvtColor(frame, &b.HSV, gocv.ColorBGRToHSV); err != nil {
		return errors.Wrap(err, "convert to hsv")
	}
	return nil
}

// ApplyThresholds thresholds the HSV buffer against both ranges and stores
// their union in Mask.
//
// Side Effect: Updates LowMask, HighMask and Mask.
func (b *RedMaskBuilder) ApplyThresholds() error {
	if err := gocv.InRangeWithScalar(b.HSV, b.lowerLow, b.upperLow, &b.LowMask); err != nil {
		return errors.Wrap(err, "threshold low range")
	}
	if err := gocv.InRangeWithScalar(b.HSV, b.lowerHigh, b.upperHigh, &b.HighMask); err != nil {
		return errors.Wrap(err, "threshold high range")
	}
	if err := gocv.BitwiseOr(b.LowMask, b.HighMask, &b.Mask); err != nil {
		return errors.Wrap(err, "union masks")
	}
	return nil
}

// Clean runs the opening and then the closing on Mask.
func (b *RedMaskBuilder) Clean() error {
	if err := Open(&b.Mask, b.Kernel); err != nil {
		return err
	}
	return CloseGaps(&b.Mask, b.Kernel)
}

// Build runs the full pipeline on a frame:
//
//  1. HSV conversion
//  2. Dual range thresholding and union
//  3. Opening followed by closing
//
// Arguments:
//   - frame: The BGR frame to segment. It is not modified.
//
// Returns:
//   - gocv.Mat: The single channel mask. It is owned by the builder and is
//     overwritten by the next call, so callers must Clone it to keep it.
//   - error: If the frame is empty or not 8-bit BGR, or OpenCV fails.
func (b *RedMaskBuilder) Build(frame gocv.Mat) (gocv.Mat, error) {
	if err := b.ConvertHSV(frame); err != nil {
		return b.Mask, err
	}
	if err := b.ApplyThresholds(); err != nil {
		return b.Mask, err
	}
	if err := b.Clean(); err != nil {
		return b.Mask, err
	}
	return b.Mask, nil
}

// Close releases all OpenCV native resources used by the builder.
func (b *RedMaskBuilder) Close() {
	b.HSV.Close()
	b.LowMask.Close()
	b.HighMask.Close()
	b.Mask.Close()
	b.Kernel.Close()
}

// Open performs a morphological opening (erosion then dilation) in place.
// It removes foreground regions smaller than the kernel.
func Open(mask *gocv.Mat, kernel gocv.Mat) error {
	if err := gocv.Erode(*mask, mask, kernel); err != nil {
		return errors.Wrap(err, "opening: erode")
	}
	if err := gocv.Dilate(*mask, mask, kernel); err != nil {
		return errors.Wrap(err, "opening: dilate")
	}
	return nil
}

// CloseGaps performs a morphological closing (dilation then erosion) in place.
// It fills holes and gaps smaller than the kernel inside larger regions.
func CloseGaps(mask *gocv.Mat, kernel gocv.Mat) error {
	if err := gocv.Dilate(*mask, mask, kernel); err != nil {
		return errors.Wrap(err, "closing: dilate")
	}
	if err := gocv.Erode(*mask, mask, kernel); err != nil {
		return errors.Wrap(err, "closing: erode")
	}
	return nil
}
