package vision

import (
	"image"
	"math"
)

// ArcLength returns the summed segment lengths of c, including the closing
// segment when closed is set.
func (n *Native) ArcLength(c Contour, closed bool) float64 {
	return arcLength(c, closed)
}

func arcLength(c Contour, closed bool) float64 {
	if len(c) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(c); i++ {
		total += pixelDistance(c[i-1], c[i])
	}
	if closed {
		total += pixelDistance(c[len(c)-1], c[0])
	}
	return total
}

// ContourArea returns the absolute shoelace area of the polygon c.
func (n *Native) ContourArea(c Contour) float64 {
	return contourArea(c)
}

func contourArea(c Contour) float64 {
	if len(c) < 3 {
		return 0
	}
	var sum float64
	for i := range c {
		p, q := c[i], c[(i+1)%len(c)]
		sum += float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
	}
	return math.Abs(sum) / 2
}

// ApproxPolygon simplifies c with the Douglas-Peucker algorithm. Closed
// contours are split at the point furthest from the first one and both halves
// are simplified independently.
func (n *Native) ApproxPolygon(c Contour, epsilon float64, closed bool) Contour {
	if len(c) < 3 {
		return append(Contour(nil), c...)
	}
	if !closed {
		return douglasPeucker(c, epsilon)
	}

	far, best := 0, -1.0
	for i, p := range c {
		if d := pixelDistance(c[0], p); d > best {
			far, best = i, d
		}
	}
	if far == 0 {
		return Contour{c[0]}
	}

	head := douglasPeucker(c[:far+1], epsilon)
	ring := make(Contour, 0, len(c)-far+1)
	ring = append(ring, c[far:]...)
	ring = append(ring, c[0])
	tail := douglasPeucker(ring, epsilon)

	out := make(Contour, 0, len(head)+len(tail))
	out = append(out, head[:len(head)-1]...)
	out = append(out, tail[:len(tail)-1]...)
	return out
}

// douglasPeucker simplifies an open polyline, always keeping both end points.
func douglasPeucker(pts Contour, epsilon float64) Contour {
	if len(pts) < 3 {
		return append(Contour(nil), pts...)
	}
	keep := make([]bool, len(pts))
	keep[0], keep[len(pts)-1] = true, true

	type span struct{ a, b int }
	stack := []span{{0, len(pts) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx, maxD := -1, -1.0
		for i := s.a + 1; i < s.b; i++ {
			if d := lineDistance(pts[i], pts[s.a], pts[s.b]); d > maxD {
				idx, maxD = i, d
			}
		}
		if idx >= 0 && maxD > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.a, idx}, span{idx, s.b})
		}
	}

	out := make(Contour, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// lineDistance is the distance from p to the line through a and b, or to a
// when a and b coincide.
func lineDistance(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	if dx == 0 && dy == 0 {
		return pixelDistance(p, a)
	}
	cross := dx*float64(p.Y-a.Y) - dy*float64(p.X-a.X)
	return math.Abs(cross) / math.Hypot(dx, dy)
}

func pixelDistance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
