// Package images - HSV color ranges used to threshold red.
//
// OpenCV stores 8-bit HSV with hue halved into [0, 180] while saturation and
// value span [0, 255]. Red sits on both ends of the hue axis, so it is
// described by two ranges whose masks are unioned:
//
//	hue   0 ────────────────────────────────────────── 180
//	      [ Low ]                              [ High ]
//	       0..10                                170..180
package images

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// MaxHue is the largest hue OpenCV produces for 8-bit HSV images.
	MaxHue = 180
	// DefaultKernelSize is the side of the square structuring element.
	DefaultKernelSize = 13
)

// ErrInvalidRange is returned when a range or kernel configuration cannot be used.
var ErrInvalidRange = errors.New("invalid hsv range")

// HSV is a single hue/saturation/value triple on OpenCV's 8-bit scale.
type HSV struct {
	H uint8 `json:"h" yaml:"h"`
	S uint8 `json:"s" yaml:"s"`
	V uint8 `json:"v" yaml:"v"`
}

// Scalar converts the triple into the gocv representation used by InRange.
func (c HSV) Scalar() gocv.Scalar {
	return gocv.NewScalar(float64(c.H), float64(c.S), float64(c.V), 0)
}

// String formats the triple as "h,s,v", the format accepted by ParseHSV.
func (c HSV) String() string {
	return fmt.Sprintf("%d,%d,%d", c.H, c.S, c.V)
}

// ParseHSV parses an "h,s,v" triple.
//
// Arguments:
//   - s: Comma separated hue, saturation and value, e.g. "170,64,16".
//
// Returns:
//   - HSV: The parsed triple.
//   - error: If the string is malformed or a channel does not fit in 8 bits.
func ParseHSV(s string) (HSV, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return HSV{}, errors.Wrapf(ErrInvalidRange, "expected h,s,v but got %q", s)
	}

	var out [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return HSV{}, errors.Wrapf(ErrInvalidRange, "channel %d of %q: %v", i, s, err)
		}
		out[i] = uint8(v)
	}

	return HSV{H: out[0], S: out[1], V: out[2]}, nil
}

// HSVRange bounds all three channels inclusively, like cv::inRange.
type HSVRange struct {
	Lower HSV `json:"lower" yaml:"lower"`
	Upper HSV `json:"upper" yaml:"upper"`
}

// Contains reports whether c lies within the range on every channel.
func (r HSVRange) Contains(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// Validate checks that the lower bound does not exceed the upper bound on any
// channel and that hue stays on OpenCV's scale.
func (r HSVRange) Validate() error {
	if r.Lower.H > r.Upper.H || r.Lower.S > r.Upper.S || r.Lower.V > r.Upper.V {
		return errors.Wrapf(ErrInvalidRange, "lower %s exceeds upper %s", r.Lower, r.Upper)
	}
	if r.Upper.H > MaxHue {
		return errors.Wrapf(ErrInvalidRange, "hue %d is above %d", r.Upper.H, MaxHue)
	}
	return nil
}

// MaskConfig is the immutable configuration of the red mask builder.
type MaskConfig struct {
	// Low is the range near hue 0.
	Low HSVRange `json:"low" yaml:"low"`
	// High is the range near hue 180.
	High HSVRange `json:"high" yaml:"high"`
	// KernelSize is the side of the square structuring element used for
	// opening and closing.
	KernelSize int `json:"kernel_size" yaml:"kernel_size"`
}

// DefaultMaskConfig returns the tuned red thresholds.
//
// The value floor of 16 and the 13x13 kernel were tuned by hand against sample
// footage.
func DefaultMaskConfig() MaskConfig {
	return MaskConfig{
		Low: HSVRange{
			Lower: HSV{H: 0, S: 64, V: 16},
			Upper: HSV{H: 10, S: 255, V: 255},
		},
		High: HSVRange{
			Lower: HSV{H: 170, S: 64, V: 16},
			Upper: HSV{H: 180, S: 255, V: 255},
		},
		KernelSize: DefaultKernelSize,
	}
}

// Validate checks both ranges and the kernel size.
func (c MaskConfig) Validate() error {
	if err := c.Low.Validate(); err != nil {
		return errors.Wrap(err, "low range")
	}
	if err := c.High.Validate(); err != nil {
		return errors.Wrap(err, "high range")
	}
	if c.KernelSize < 1 {
		return errors.Wrapf(ErrInvalidRange, "kernel size %d must be positive", c.KernelSize)
	}
	return nil
}

// IsRed reports whether a pixel falls in either range.
func (c MaskConfig) IsRed(px HSV) bool {
	return c.Low.Contains(px) || c.High.Contains(px)
}
