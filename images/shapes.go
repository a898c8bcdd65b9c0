// Package images - Geometry over contour points and rectangles.
package images

import "image"

// Rect is a lightweight bounding box.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// RectFromImage converts an image.Rectangle into a Rect.
func RectFromImage(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// CalculateIoU returns the intersection over union of two rectangles.
//
// IoU = Area of Intersection / Area of Union. A value of 1.0 means the
// rectangles are identical, 0.0 means they do not overlap at all. Touching
// edges do not count as overlap because X2/Y2 are exclusive.
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle to compare against.
//
// Returns:
//   - float32: A value between 0.0 and 1.0 representing the IoU score.
//
// Example Usage:
// ```go
//
//	rect1 := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	rect2 := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//	iouScore := CalculateIoU(rect1, rect2) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	// Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
	areaR := (r.X2 - r.X1) * (r.Y2 - r.Y1)
	areaO := (o.X2 - o.X1) * (o.Y2 - o.Y1)
	unionArea := areaR + areaO - interArea

	return float32(interArea) / float32(unionArea)
}

// PolygonArea computes the area enclosed by a closed polyline using the
// shoelace formula.
//
// This is the same quantity cv::contourArea reports: the area of the polygon
// through the boundary points, not the number of pixels inside it. A contour
// that traces a 30x30 pixel block therefore has an area of 29*29 = 841.
//
// Arguments:
//   - points: Boundary points in traversal order. The polygon is closed
//     implicitly from the last point back to the first.
//
// Returns:
//   - float64: The absolute enclosed area. Zero for fewer than three points.
func PolygonArea(points []image.Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}

	var twice int64
	for i := 0; i < n; i++ {
		p := points[i]
		q := points[(i+1)%n]
		twice += int64(p.X)*int64(q.Y) - int64(q.X)*int64(p.Y)
	}
	if twice < 0 {
		twice = -twice
	}

	return float64(twice) / 2
}

// BoundingRect returns the smallest axis-aligned rectangle containing every
// point.
//
// Like cv::boundingRect the rectangle is inclusive of the extreme points, so
// Dx() == maxX-minX+1 and Dy() == maxY-minY+1.
//
// Arguments:
//   - points: Contour points in any order.
//
// Returns:
//   - image.Rectangle: The bounding rectangle, or the zero rectangle when
//     points is empty.
func BoundingRect(points []image.Point) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}

	minP, maxP := points[0], points[0]
	for _, p := range points[1:] {
		minP.X = min(minP.X, p.X)
		minP.Y = min(minP.Y, p.Y)
		maxP.X = max(maxP.X, p.X)
		maxP.Y = max(maxP.Y, p.Y)
	}

	return image.Rect(minP.X, minP.Y, maxP.X+1, maxP.Y+1)
}
