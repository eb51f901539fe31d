package scan

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"strconv"
	"strings"

	// Decoders for the formats phones and scanners produce.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels caps the declared size of images Decode accepts.
const MaxPixels = 64 << 20

// Decode reads an encoded image. Undecodable or empty input, and images
// declaring more than MaxPixels pixels, yield ErrInvalidImage.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrInvalidImage)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %s image of %dx%d exceeds %d pixels", ErrInvalidImage, format, cfg.Width, cfg.Height, MaxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if img.Bounds().Empty() {
		return nil, "", fmt.Errorf("%w: zero-sized %s image", ErrInvalidImage, format)
	}
	return img, format, nil
}

// Crop copies the part of img inside r, clamped to the image bounds, into a
// new origin-anchored raster. It is the manual fallback when no page boundary
// is detected.
func Crop(img image.Image, r image.Rectangle) (image.Image, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}
	region := r.Canon().Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("%w: crop %v outside image bounds %v", ErrInvalidImage, r, img.Bounds())
	}
	out := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(out, out.Bounds(), img, region.Min, draw.Src)
	return out, nil
}

// ParseRect reads a crop rectangle written as "x,y,w,h".
func ParseRect(spec string) (image.Rectangle, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("scan: invalid rectangle %q: want x,y,w,h", spec)
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("scan: invalid rectangle %q: %w", spec, err)
		}
		n[i] = v
	}
	if n[2] <= 0 || n[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("scan: invalid rectangle %q: width and height must be positive", spec)
	}
	return image.Rect(n[0], n[1], n[0]+n[2], n[1]+n[3]), nil
}
