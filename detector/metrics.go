package detector

import (
	"image"
	"math"

	"github.com/nvr-ai/redscan/images"
)

// Metrics summarizes the regions found in one frame.
type Metrics struct {
	// Count is the number of regions.
	Count int `json:"count"`
	// TotalArea is the sum of the contour areas.
	TotalArea float64 `json:"total_area"`
	// LargestArea is the area of the biggest region.
	LargestArea float64 `json:"largest_area"`
	// AverageArea is the mean contour area.
	AverageArea float64 `json:"average_area"`
	// AreaVariance measures the spread in region sizes.
	AreaVariance float64 `json:"area_variance"`
	// Coverage is the fraction of the frame covered by the region boxes.
	Coverage float64 `json:"coverage"`
	// CenterOfMass is the mean of the box centers.
	CenterOfMass image.Point `json:"center_of_mass"`
	// BoundingRegion contains every box.
	BoundingRegion image.Rectangle `json:"bounding_region"`
	// OverlapRatio is the fraction of regions whose box intersects another
	// box. Holes reported inside a region count as overlapping.
	OverlapRatio float64 `json:"overlap_ratio"`
}

// Summarize computes the metrics of a frame's regions.
//
// Arguments:
//   - regions: The regions of one frame.
//   - frame: The frame size, used for Coverage.
//
// Returns:
//   - Metrics: Zero valued when there are no regions.
//
// @example
// m := detector.Summarize(regions, image.Pt(frame.Cols(), frame.Rows()))
func Summarize(regions []Region, frame image.Point) Metrics {
	m := Metrics{Count: len(regions)}
	if len(regions) == 0 {
		return m
	}

	var sumX, sumY int
	union := regions[0].Box
	for _, r := range regions {
		m.TotalArea += r.Area
		if r.Area > m.LargestArea {
			m.LargestArea = r.Area
		}
		c := center(r.Box)
		sumX += c.X
		sumY += c.Y
		union = union.Union(r.Box)
	}

	m.AverageArea = m.TotalArea / float64(len(regions))
	var sumSquaredDiff float64
	for _, r := range regions {
		diff := r.Area - m.AverageArea
		sumSquaredDiff += diff * diff
	}
	m.AreaVariance = sumSquaredDiff / float64(len(regions))

	m.CenterOfMass = image.Pt(sumX/len(regions), sumY/len(regions))
	m.BoundingRegion = union
	m.Coverage = coverage(regions, frame)
	m.OverlapRatio = overlapRatio(regions)

	return m
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// coverage counts each frame pixel once, however many boxes cover it.
func coverage(regions []Region, frame image.Point) float64 {
	bounds := image.Rectangle{Max: frame}
	if bounds.Empty() {
		return 0
	}

	covered := make([]bool, frame.X*frame.Y)
	count := 0
	for _, r := range regions {
		box := r.Box.Intersect(bounds)
		for y := box.Min.Y; y < box.Max.Y; y++ {
			row := y * frame.X
			for x := box.Min.X; x < box.Max.X; x++ {
				if !covered[row+x] {
					covered[row+x] = true
					count++
				}
			}
		}
	}
	return float64(count) / float64(len(covered))
}

func overlapRatio(regions []Region) float64 {
	if len(regions) < 2 {
		return 0
	}

	overlapping := make([]bool, len(regions))
	for i := 0; i < len(regions); i++ {
		a := images.RectFromImage(regions[i].Box)
		for j := i + 1; j < len(regions); j++ {
			if images.CalculateIoU(a, images.RectFromImage(regions[j].Box)) > 0 {
				overlapping[i] = true
				overlapping[j] = true
			}
		}
	}

	n := 0
	for _, o := range overlapping {
		if o {
			n++
		}
	}
	return math.Round(float64(n)/float64(len(regions))*1e6) / 1e6
}
