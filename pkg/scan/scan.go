// Package scan finds a document page in a photograph and straightens it.
//
// The page boundary is located on a downscaled working copy by edge detection
// and contour simplification; the largest four-sided contour wins. Its corners
// are ordered and the region is warped into an upright rectangle sized after
// the longer of each pair of opposing edges.
//
// Key Features:
//
// - Locate the page quadrilateral without any user input
// - Rectify perspective distortion with a single homography
// - Degrade gracefully: any detection failure returns the original image
// - Manual crop fallback for images where no boundary is found
//
// Main Functions:
//
// - Scanner.Scan: Locate and rectify a page in one call
// - LocateQuad: Find the largest four-vertex contour
// - OrderCorners: Assign top-left/top-right/bottom-right/bottom-left roles
// - Rectify: Warp a cornered region into an upright raster
// - Crop: Copy a rectangular region of an image
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gardar/docscan/pkg/vision"
)

// ErrInvalidImage is returned for input that cannot be scanned at all: nil,
// zero-sized or undecodable images.
var ErrInvalidImage = errors.New("scan: invalid image")

// Config holds the tuning knobs of the page locator.
type Config struct {
	// MaxDimension bounds the longer side of the working copy.
	MaxDimension int `yaml:"max_dimension" json:"maxDimension"`
	// BlurKernel is the odd Gaussian kernel size applied before edge detection.
	BlurKernel int `yaml:"blur_kernel" json:"blurKernel"`
	// CannyLow and CannyHigh are the hysteresis thresholds.
	CannyLow  float64 `yaml:"canny_low" json:"cannyLow"`
	CannyHigh float64 `yaml:"canny_high" json:"cannyHigh"`
	// EpsilonRatio scales each contour's perimeter into the polygon
	// approximation tolerance.
	EpsilonRatio float64 `yaml:"epsilon_ratio" json:"epsilonRatio"`
}

// DefaultConfig returns the locator settings used for phone photographs.
func DefaultConfig() Config {
	return Config{
		MaxDimension: 1400,
		BlurKernel:   5,
		CannyLow:     75,
		CannyHigh:    200,
		EpsilonRatio: 0.02,
	}
}

// Result is the outcome of a scan. When Found is false, Image is the original
// input and the caller should offer manual correction.
type Result struct {
	Image   image.Image
	Found   bool
	Corners *Corners
	// Scale is the factor between the working copy the corners refer to and
	// the original image.
	Scale float64
}

// Scanner locates and rectifies a document page.
type Scanner struct {
	prims  vision.Primitives
	cfg    Config
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for recoverable scan failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig overrides the default locator settings.
func WithConfig(cfg Config) Option {
	return func(s *Scanner) { s.cfg = cfg }
}

// NewScanner returns a Scanner backed by p.
func NewScanner(p vision.Primitives, opts ...Option) *Scanner {
	s := &Scanner{prims: p, cfg: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan finds the page in img and returns it rectified. Failures of the
// underlying primitives, including panics, degrade to a NotFound result with
// the original image; ErrInvalidImage is the only error returned.
func (s *Scanner) Scan(ctx context.Context, img image.Image) (res Result, err error) {
	if img == nil || img.Bounds().Empty() {
		return Result{}, ErrInvalidImage
	}
	notFound := Result{Image: img, Found: false, Scale: 1}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("scan: primitives panicked, falling back to original image", "panic", fmt.Sprint(r))
			res, err = notFound, nil
		}
	}()

	if r, ok := s.prims.(vision.Readier); ok {
		if err := r.Ready(ctx); err != nil {
			s.logger.Warn("scan: primitives not ready", "error", err)
			return notFound, nil
		}
	}

	small, scale, err := Downscale(s.prims, img, s.cfg.MaxDimension)
	if err != nil {
		s.logger.Warn("scan: downscale failed", "error", err)
		return notFound, nil
	}
	if small != img {
		defer release(s.prims, small)
	}

	quad, ok, err := LocateQuad(s.prims, small, s.cfg)
	if err != nil {
		s.logger.Warn("scan: locate failed", "error", err)
		return notFound, nil
	}
	if !ok {
		s.logger.Debug("scan: no page boundary found")
		return notFound, nil
	}

	corners := OrderCorners(quad)
	out, err := Rectify(s.prims, small, corners)
	if err != nil {
		s.logger.Warn("scan: rectify failed", "error", err)
		return notFound, nil
	}
	s.logger.Debug("scan: page rectified",
		"width", out.Bounds().Dx(), "height", out.Bounds().Dy(), "scale", scale)
	return Result{Image: out, Found: true, Corners: &corners, Scale: scale}, nil
}

// Rectify warps the region bounded by c in img into an upright raster of
// TargetSize(c), rounded to whole pixels.
func Rectify(p vision.Primitives, img image.Image, c Corners) (image.Image, error) {
	w, h := TargetSize(c)
	ow, oh := OutputSize(w, h)
	dst := [4]vision.Point{
		vision.Pt(0, 0),
		vision.Pt(w-1, 0),
		vision.Pt(w-1, h-1),
		vision.Pt(0, h-1),
	}
	m, err := p.PerspectiveTransform(c.Points(), dst)
	if err != nil {
		return nil, fmt.Errorf("scan: perspective transform: %w", err)
	}
	out, err := p.WarpPerspective(img, m, image.Pt(ow, oh))
	if err != nil {
		return nil, fmt.Errorf("scan: warp: %w", err)
	}
	return out, nil
}
