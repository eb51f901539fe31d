package scan

import (
	"math"

	"github.com/gardar/docscan/pkg/vision"
)

// Quad is an unordered quadrilateral candidate found by the locator.
type Quad [4]vision.Point

// Corners is a quadrilateral with fixed roles.
type Corners struct {
	TopLeft     vision.Point `json:"topLeft"`
	TopRight    vision.Point `json:"topRight"`
	BottomRight vision.Point `json:"bottomRight"`
	BottomLeft  vision.Point `json:"bottomLeft"`
}

// Points returns the corners clockwise from the top-left.
func (c Corners) Points() [4]vision.Point {
	return [4]vision.Point{c.TopLeft, c.TopRight, c.BottomRight, c.BottomLeft}
}

// Scaled returns the corners multiplied by factor, e.g. to map corners found on
// a downscaled copy back onto the full-resolution image.
func (c Corners) Scaled(factor float64) Corners {
	s := func(p vision.Point) vision.Point { return vision.Pt(p.X*factor, p.Y*factor) }
	return Corners{s(c.TopLeft), s(c.TopRight), s(c.BottomRight), s(c.BottomLeft)}
}

// OrderCorners assigns roles to the points of q. The top-left corner has the
// smallest x+y and the bottom-right the largest; the top-right has the
// smallest y-x and the bottom-left the largest. Ties go to the point that
// comes first in q.
func OrderCorners(q Quad) Corners {
	sum := func(p vision.Point) float64 { return p.X + p.Y }
	diff := func(p vision.Point) float64 { return p.Y - p.X }

	tl, tr, br, bl := 0, 0, 0, 0
	for i := 1; i < len(q); i++ {
		if sum(q[i]) < sum(q[tl]) {
			tl = i
		}
		if sum(q[i]) > sum(q[br]) {
			br = i
		}
		if diff(q[i]) < diff(q[tr]) {
			tr = i
		}
		if diff(q[i]) > diff(q[bl]) {
			bl = i
		}
	}
	return Corners{TopLeft: q[tl], TopRight: q[tr], BottomRight: q[br], BottomLeft: q[bl]}
}

// TargetSize returns the width and height of the rectified page: the longer
// of each pair of opposing edges.
func TargetSize(c Corners) (w, h float64) {
	w = math.Max(c.BottomRight.Distance(c.BottomLeft), c.TopRight.Distance(c.TopLeft))
	h = math.Max(c.TopRight.Distance(c.BottomRight), c.TopLeft.Distance(c.BottomLeft))
	return w, h
}

// OutputSize rounds a target size to whole pixels, never below 1×1.
func OutputSize(w, h float64) (int, int) {
	return max(1, int(math.Round(w))), max(1, int(math.Round(h)))
}
