package vision

import (
	"errors"
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ErrSingular is returned when a homography cannot be solved or inverted,
// typically because three or more of the reference points are collinear.
var ErrSingular = errors.New("vision: singular perspective system")

// Matrix is a row-major 3×3 homography.
type Matrix [9]float64

// Identity returns the identity homography.
func Identity() Matrix {
	return Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Apply maps p through m. ok is false when p maps to infinity.
func (m Matrix) Apply(p Point) (q Point, ok bool) {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w == 0 {
		return Point{}, false
	}
	return Point{
		X: (m[0]*p.X + m[1]*p.Y + m[2]) / w,
		Y: (m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}, true
}

// Invert returns the inverse homography.
func (m Matrix) Invert() (Matrix, error) {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	A := e*i - f*h
	B := -(d*i - f*g)
	C := d*h - e*g
	det := a*A + b*B + c*C
	if math.Abs(det) < 1e-12 {
		return Matrix{}, ErrSingular
	}
	inv := Matrix{
		A, -(b*i - c*h), b*f - c*e,
		B, a*i - c*g, -(a*f - c*d),
		C, -(a*h - b*g), a*e - b*d,
	}
	for k := range inv {
		inv[k] /= det
	}
	return inv, nil
}

// PerspectiveTransform solves for the homography that maps each src[i] onto
// dst[i].
func (n *Native) PerspectiveTransform(src, dst [4]Point) (Matrix, error) {
	var sys [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		sys[i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		sys[i+4] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(sys[r][col]) > math.Abs(sys[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(sys[pivot][col]) < 1e-10 {
			return Matrix{}, ErrSingular
		}
		sys[col], sys[pivot] = sys[pivot], sys[col]
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			factor := sys[r][col] / sys[col][col]
			if factor == 0 {
				continue
			}
			for k := col; k < 9; k++ {
				sys[r][k] -= factor * sys[col][k]
			}
		}
	}

	var m Matrix
	for k := 0; k < 8; k++ {
		m[k] = sys[k][8] / sys[k][k]
	}
	m[8] = 1
	return m, nil
}

// WarpPerspective renders img through m into a size.X×size.Y RGBA raster.
// Each destination pixel is inverse-mapped into img and sampled bilinearly;
// samples falling outside img read as opaque black.
func (n *Native) WarpPerspective(img image.Image, m Matrix, size image.Point) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("vision: warp of nil image")
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("vision: invalid warp target %dx%d", size.X, size.Y)
	}
	inv, err := m.Invert()
	if err != nil {
		return nil, fmt.Errorf("vision: invert warp matrix: %w", err)
	}

	src := toRGBA(img)
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))

	sample := func(x, y int, ch int) float64 {
		if x < 0 || y < 0 || x >= sw || y >= sh {
			if ch == 3 {
				return 255
			}
			return 0
		}
		return float64(src.Pix[y*src.Stride+x*4+ch])
	}

	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			o := y*dst.Stride + x*4
			p, ok := inv.Apply(Point{X: float64(x), Y: float64(y)})
			if !ok || p.X < -1 || p.Y < -1 || p.X > float64(sw) || p.Y > float64(sh) {
				dst.Pix[o+3] = 255
				continue
			}
			x0, y0 := math.Floor(p.X), math.Floor(p.Y)
			fx, fy := p.X-x0, p.Y-y0
			ix, iy := int(x0), int(y0)
			for ch := 0; ch < 4; ch++ {
				top := sample(ix, iy, ch)*(1-fx) + sample(ix+1, iy, ch)*fx
				bottom := sample(ix, iy+1, ch)*(1-fx) + sample(ix+1, iy+1, ch)*fx
				dst.Pix[o+ch] = clampByte(top*(1-fy) + bottom*fy)
			}
		}
	}
	return dst, nil
}

// toRGBA returns img as an origin-anchored *image.RGBA, converting if needed.
func toRGBA(img image.Image) *image.RGBA {
	if r, ok := img.(*image.RGBA); ok && r.Rect.Min == (image.Point{}) {
		return r
	}
	b := img.Bounds()
	r := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(r, r.Bounds(), img, b.Min, xdraw.Src)
	return r
}
