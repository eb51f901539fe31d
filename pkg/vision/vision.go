// Package vision defines the image-processing primitives the document scanner
// consumes and provides a pure-Go implementation of them.
//
// The primitives mirror the classic edge/contour toolchain used to find a page
// in a photograph:
//
// - Resize: area-averaging downscale of a raster
// - Grayscale, GaussianBlur, Canny: produce a binary edge map
// - FindContours: trace every border of the edge map (list mode, simple chains)
// - ApproxPolygon, ArcLength, ContourArea: polygon simplification and measures
// - PerspectiveTransform, WarpPerspective: homography estimation and warping
//
// Callers depend on the Primitives interface so that an alternative backend
// can be injected. Backends may additionally implement Readier (explicit
// readiness signal) and Releaser (deterministic return of raster buffers).
package vision

import (
	"context"
	"image"
	"math"
)

// Point is a pixel coordinate in some image's coordinate space.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Contour is a closed or open chain of integer pixel positions.
type Contour []image.Point

// Points converts the contour to floating point coordinates.
func (c Contour) Points() []Point {
	pts := make([]Point, len(c))
	for i, p := range c {
		pts[i] = Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return pts
}

// Primitives is the set of vision operations the scanner is built on.
// Implementations must be deterministic for identical pixel input.
type Primitives interface {
	// Resize scales img to exactly size using area-averaging interpolation.
	Resize(img image.Image, size image.Point) (image.Image, error)
	// Grayscale converts img to 8-bit luminance.
	Grayscale(img image.Image) (*image.Gray, error)
	// GaussianBlur smooths src with a ksize×ksize Gaussian kernel.
	GaussianBlur(src *image.Gray, ksize int) (*image.Gray, error)
	// Canny returns a binary edge map (0 or 255) using hysteresis thresholds.
	Canny(src *image.Gray, low, high float64) (*image.Gray, error)
	// FindContours traces every border in a binary image.
	FindContours(edges *image.Gray) ([]Contour, error)
	// ApproxPolygon simplifies c so that no dropped point lies further than
	// epsilon from the resulting polygon.
	ApproxPolygon(c Contour, epsilon float64, closed bool) Contour
	// ArcLength returns the perimeter (closed) or length (open) of c.
	ArcLength(c Contour, closed bool) float64
	// ContourArea returns the absolute enclosed area of c.
	ContourArea(c Contour) float64
	// PerspectiveTransform returns the homography mapping src onto dst.
	PerspectiveTransform(src, dst [4]Point) (Matrix, error)
	// WarpPerspective applies m to img producing a size.X×size.Y raster,
	// bilinear sampled with an opaque black border.
	WarpPerspective(img image.Image, m Matrix, size image.Point) (image.Image, error)
}

// Readier is implemented by backends that need initialization before use.
// Ready blocks until the backend can serve calls or ctx is done.
type Readier interface {
	Ready(ctx context.Context) error
}

// Releaser is implemented by backends that recycle raster buffers. Release
// hands back an image previously returned by the backend; the caller must not
// touch it afterwards.
type Releaser interface {
	Release(img image.Image)
}
