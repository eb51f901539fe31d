package vision

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Native implements Primitives in pure Go. The zero value is ready to use and
// safe for concurrent use; grayscale buffers handed back through Release are
// recycled for later calls.
type Native struct {
	pool sync.Pool
}

// NewNative returns a pure-Go primitives backend.
func NewNative() *Native {
	return &Native{}
}

// Ready reports whether the backend can serve calls. Native needs no
// initialization, so it only honours ctx cancellation.
func (n *Native) Ready(ctx context.Context) error {
	return ctx.Err()
}

// Release recycles a grayscale buffer previously returned by n.
func (n *Native) Release(img image.Image) {
	if g, ok := img.(*image.Gray); ok && g != nil {
		n.pool.Put(g)
	}
}

// newGray returns a zeroed w×h grayscale raster anchored at the origin.
func (n *Native) newGray(w, h int) *image.Gray {
	if v := n.pool.Get(); v != nil {
		g := v.(*image.Gray)
		if cap(g.Pix) >= w*h {
			g.Pix = g.Pix[:w*h]
			clear(g.Pix)
			g.Stride = w
			g.Rect = image.Rect(0, 0, w, h)
			return g
		}
	}
	return image.NewGray(image.Rect(0, 0, w, h))
}

// boxKernel averages the source pixels each destination pixel covers. Scaled
// kernels stretch their support by the shrink factor, so this is area
// interpolation when downscaling.
var boxKernel = &xdraw.Kernel{Support: 0.5, At: func(float64) float64 { return 1 }}

// Resize scales img to size with area averaging.
func (n *Native) Resize(img image.Image, size image.Point) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("vision: resize of nil image")
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("vision: invalid resize target %dx%d", size.X, size.Y)
	}
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	boxKernel.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// Grayscale converts img to an origin-anchored *image.Gray.
func (n *Native) Grayscale(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("vision: grayscale of nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("vision: grayscale of empty image")
	}
	g := n.newGray(b.Dx(), b.Dy())
	xdraw.Draw(g, g.Bounds(), img, b.Min, xdraw.Src)
	return g, nil
}

// GaussianBlur applies a separable Gaussian filter. The sigma is derived from
// the kernel size the same way OpenCV does when sigma is left at zero.
func (n *Native) GaussianBlur(src *image.Gray, ksize int) (*image.Gray, error) {
	if ksize <= 0 || ksize%2 == 0 {
		return nil, fmt.Errorf("vision: blur kernel size must be odd and positive, got %d", ksize)
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	kernel := gaussianKernel(ksize)
	r := ksize / 2

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, kv := range kernel {
				acc += kv * float64(grayAt(src, reflect101(x+k-r, w), y))
			}
			tmp[y*w+x] = acc
		}
	}

	dst := n.newGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, kv := range kernel {
				acc += kv * tmp[reflect101(y+k-r, h)*w+x]
			}
			dst.Pix[y*dst.Stride+x] = clampByte(acc)
		}
	}
	return dst, nil
}

func gaussianKernel(ksize int) []float64 {
	sigma := 0.3*(float64(ksize-1)*0.5-1) + 0.8
	kernel := make([]float64, ksize)
	center := ksize / 2
	var sum float64
	for i := range kernel {
		d := float64(i - center)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// Gradient direction buckets used by non-maximum suppression.
const (
	dirHorizontal = iota
	dirDiagonalDown
	dirVertical
	dirDiagonalUp
)

const (
	tan22_5 = 0.41421356237309503
	tan67_5 = 2.414213562373095
)

// Canny detects edges with Sobel gradients (L1 magnitude), non-maximum
// suppression and hysteresis between low and high.
func (n *Native) Canny(src *image.Gray, low, high float64) (*image.Gray, error) {
	if low < 0 || high < 0 {
		return nil, fmt.Errorf("vision: canny thresholds must be non-negative")
	}
	if low > high {
		low, high = high, low
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	mag := make([]float64, w*h)
	dir := make([]uint8, w*h)

	px := func(x, y int) float64 {
		return float64(grayAt(src, reflect101(x, w), reflect101(y, h)))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			ax, ay := math.Abs(gx), math.Abs(gy)
			i := y*w + x
			mag[i] = ax + ay
			switch {
			case ay <= ax*tan22_5:
				dir[i] = dirHorizontal
			case ay > ax*tan67_5:
				dir[i] = dirVertical
			case (gx > 0) == (gy > 0):
				dir[i] = dirDiagonalDown
			default:
				dir[i] = dirDiagonalUp
			}
		}
	}

	magAt := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none = iota
		weak
		edge
	)
	state := make([]uint8, w*h)
	dst := n.newGray(w, h)
	var stack []int

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			var a, b float64
			switch dir[i] {
			case dirHorizontal:
				a, b = magAt(x-1, y), magAt(x+1, y)
			case dirVertical:
				a, b = magAt(x, y-1), magAt(x, y+1)
			case dirDiagonalDown:
				a, b = magAt(x-1, y-1), magAt(x+1, y+1)
			default:
				a, b = magAt(x+1, y-1), magAt(x-1, y+1)
			}
			if m <= a || m < b {
				continue
			}
			if m > high {
				state[i] = edge
				dst.Pix[y*dst.Stride+x] = 255
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == weak {
					state[j] = edge
					dst.Pix[ny*dst.Stride+nx] = 255
					stack = append(stack, j)
				}
			}
		}
	}
	return dst, nil
}

// grayAt reads the pixel at (x, y) relative to g.Rect.Min.
func grayAt(g *image.Gray, x, y int) uint8 {
	return g.Pix[y*g.Stride+x]
}

// reflect101 mirrors out-of-range indices without repeating the edge pixel
// (…cba|abcd|dcb…).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
