package vision

import (
	"fmt"
	"image"
)

// Neighbour offsets in counterclockwise order on screen (y grows downwards),
// starting east.
var (
	neighbourDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	neighbourDY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}
)

const (
	dirEast = 0
	dirWest = 4
)

func neighbourIndex(dx, dy int) int {
	for d := 0; d < 8; d++ {
		if neighbourDX[d] == dx && neighbourDY[d] == dy {
			return d
		}
	}
	return -1
}

// FindContours traces every outer and hole border of the non-zero pixels in
// edges using Suzuki-Abe border following. Contours are returned flat (no
// hierarchy) in raster-scan order of their starting pixel, with runs of
// collinear steps compressed to their end points.
func (n *Native) FindContours(edges *image.Gray) ([]Contour, error) {
	if edges == nil {
		return nil, fmt.Errorf("vision: contours of nil image")
	}
	w, h := edges.Rect.Dx(), edges.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, nil
	}

	// Label grid with a one-pixel zero frame so neighbour lookups never leave it.
	W, H := w+2, h+2
	f := make([]int32, W*H)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if grayAt(edges, x, y) != 0 {
				f[(y+1)*W+x+1] = 1
			}
		}
	}

	var contours []Contour
	nbd := int32(1)
	for y := 1; y < H-1; y++ {
		for x := 1; x < W-1; x++ {
			i := y*W + x
			p := f[i]
			if p == 0 {
				continue
			}
			var from int
			switch {
			case p == 1 && f[i-1] == 0:
				from = dirWest
			case p >= 1 && f[i+1] == 0:
				from = dirEast
			default:
				continue
			}
			nbd++
			chain := traceBorder(f, W, x, y, from, nbd)
			contours = append(contours, compressChain(chain))
		}
	}
	return contours, nil
}

// traceBorder follows one border starting at (x0, y0), where from is the
// direction of the zero pixel that triggered the start. Points are returned in
// unpadded image coordinates.
func traceBorder(f []int32, W, x0, y0, from int, nbd int32) Contour {
	at := func(x, y int) int32 { return f[y*W+x] }

	first := -1
	for k := 0; k < 8; k++ {
		d := (from - k + 8) % 8
		if at(x0+neighbourDX[d], y0+neighbourDY[d]) != 0 {
			first = d
			break
		}
	}
	if first < 0 {
		f[y0*W+x0] = -nbd
		return Contour{{X: x0 - 1, Y: y0 - 1}}
	}

	x1, y1 := x0+neighbourDX[first], y0+neighbourDY[first]
	x2, y2 := x1, y1
	x3, y3 := x0, y0
	var chain Contour
	for {
		prev := neighbourIndex(x2-x3, y2-y3)
		eastZero := false
		next := prev
		for k := 1; k <= 8; k++ {
			d := (prev + k) % 8
			if at(x3+neighbourDX[d], y3+neighbourDY[d]) != 0 {
				next = d
				break
			}
			if d == dirEast {
				eastZero = true
			}
		}

		switch {
		case eastZero:
			f[y3*W+x3] = -nbd
		case f[y3*W+x3] == 1:
			f[y3*W+x3] = nbd
		}
		chain = append(chain, image.Point{X: x3 - 1, Y: y3 - 1})

		x4, y4 := x3+neighbourDX[next], y3+neighbourDY[next]
		if x4 == x0 && y4 == y0 && x3 == x1 && y3 == y1 {
			break
		}
		x2, y2 = x3, y3
		x3, y3 = x4, y4
	}
	return chain
}

// compressChain drops points that sit in the middle of a straight run of
// identical steps. The chain is treated as closed.
func compressChain(chain Contour) Contour {
	if len(chain) < 3 {
		return chain
	}
	out := make(Contour, 0, len(chain))
	m := len(chain)
	for i, p := range chain {
		prev := chain[(i-1+m)%m]
		next := chain[(i+1)%m]
		if p.Sub(prev) != next.Sub(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		// Degenerate chain that is a straight run both ways.
		return Contour{chain[0]}
	}
	return out
}
