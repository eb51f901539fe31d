package scan

import (
	"fmt"
	"image"
	"math"

	"github.com/gardar/docscan/pkg/vision"
)

// Downscale shrinks img so that neither side exceeds maxDim, keeping the
// aspect ratio. Images already small enough are returned unchanged with a
// scale of 1; images are never enlarged.
func Downscale(p vision.Primitives, img image.Image, maxDim int) (image.Image, float64, error) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	scale := math.Min(math.Min(float64(maxDim)/w, float64(maxDim)/h), 1)
	if scale >= 1 {
		return img, 1, nil
	}
	size := image.Pt(
		max(1, int(math.Round(w*scale))),
		max(1, int(math.Round(h*scale))),
	)
	small, err := p.Resize(img, size)
	if err != nil {
		return nil, 0, fmt.Errorf("scan: downscale to %dx%d: %w", size.X, size.Y, err)
	}
	return small, scale, nil
}

// LocateQuad searches img for the largest four-sided contour. It returns
// false when no contour simplifies to exactly four vertices with a positive
// area. Intermediate rasters are handed back to p when it implements
// vision.Releaser.
func LocateQuad(p vision.Primitives, img image.Image, cfg Config) (Quad, bool, error) {
	gray, err := p.Grayscale(img)
	if err != nil {
		return Quad{}, false, fmt.Errorf("scan: grayscale: %w", err)
	}
	defer release(p, gray)

	blurred, err := p.GaussianBlur(gray, cfg.BlurKernel)
	if err != nil {
		return Quad{}, false, fmt.Errorf("scan: blur: %w", err)
	}
	defer release(p, blurred)

	edges, err := p.Canny(blurred, cfg.CannyLow, cfg.CannyHigh)
	if err != nil {
		return Quad{}, false, fmt.Errorf("scan: canny: %w", err)
	}
	defer release(p, edges)

	contours, err := p.FindContours(edges)
	if err != nil {
		return Quad{}, false, fmt.Errorf("scan: find contours: %w", err)
	}

	var (
		best     Quad
		bestArea float64
		found    bool
	)
	for _, c := range contours {
		epsilon := cfg.EpsilonRatio * p.ArcLength(c, true)
		approx := p.ApproxPolygon(c, epsilon, true)
		if len(approx) != 4 {
			continue
		}
		area := p.ContourArea(approx)
		if area <= 0 {
			continue
		}
		if !found || area > bestArea {
			pts := approx.Points()
			best = Quad{pts[0], pts[1], pts[2], pts[3]}
			bestArea = area
			found = true
		}
	}
	return best, found, nil
}

func release(p vision.Primitives, img image.Image) {
	if r, ok := p.(vision.Releaser); ok && img != nil {
		r.Release(img)
	}
}
