package scan

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/gardar/docscan/pkg/vision"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pagePhoto draws a light page on a dark background.
func pagePhoto(w, h int, page image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 30, G: 30, B: 30, A: 255}), image.Point{}, draw.Src)
	draw.Draw(img, page, image.NewUniform(color.RGBA{R: 230, G: 230, B: 225, A: 255}), image.Point{}, draw.Src)
	return img
}

type countingPrims struct {
	*vision.Native
	released int
}

func (c *countingPrims) Release(img image.Image) {
	c.released++
	c.Native.Release(img)
}

type panickingPrims struct {
	*vision.Native
}

func (panickingPrims) Grayscale(image.Image) (*image.Gray, error) {
	panic("boom")
}

type failingPrims struct {
	*vision.Native
}

func (failingPrims) Canny(*image.Gray, float64, float64) (*image.Gray, error) {
	return nil, errors.New("canny unavailable")
}

type notReady struct {
	*vision.Native
}

func (notReady) Ready(context.Context) error { return errors.New("still loading") }

// fixedContours reports a fixed contour list and leaves polygons unsimplified.
type fixedContours struct {
	*vision.Native
	contours []vision.Contour
}

func (f fixedContours) FindContours(*image.Gray) ([]vision.Contour, error) {
	return f.contours, nil
}

func (f fixedContours) ApproxPolygon(c vision.Contour, _ float64, _ bool) vision.Contour {
	return c
}

func TestLocateQuadSelection(t *testing.T) {
	var (
		tri     = vision.Contour{{0, 0}, {10, 0}, {5, 8}}
		flat    = vision.Contour{{0, 0}, {5, 0}, {10, 0}, {15, 0}}
		pent    = vision.Contour{{0, 0}, {40, 0}, {50, 20}, {20, 40}, {-10, 20}}
		squareA = vision.Contour{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
		squareB = vision.Contour{{20, 20}, {30, 20}, {30, 30}, {20, 30}}
		bigger  = vision.Contour{{40, 40}, {52, 40}, {52, 52}, {40, 52}}
	)
	img := image.NewGray(image.Rect(0, 0, 64, 64))

	tests := []struct {
		name      string
		contours  []vision.Contour
		wantFound bool
		want      vision.Contour
	}{
		{"no contours", nil, false, nil},
		{"triangle and collinear only", []vision.Contour{tri, flat}, false, nil},
		{"non quad ignored even when larger", []vision.Contour{pent, squareB}, true, squareB},
		{"first of equal areas wins", []vision.Contour{tri, flat, squareA, squareB}, true, squareA},
		{"equal areas reversed", []vision.Contour{squareB, squareA}, true, squareB},
		{"strictly larger replaces", []vision.Contour{squareA, bigger, squareB}, true, bigger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prims := fixedContours{Native: vision.NewNative(), contours: tt.contours}
			q, found, err := LocateQuad(prims, img, DefaultConfig())
			if err != nil {
				t.Fatalf("LocateQuad: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if !found {
				return
			}
			want := tt.want.Points()
			if q != (Quad{want[0], want[1], want[2], want[3]}) {
				t.Errorf("quad = %v, want %v", q, want)
			}
		})
	}
}

func TestOrderCornersScenario(t *testing.T) {
	want := Corners{
		TopLeft:     vision.Pt(10, 10),
		TopRight:    vision.Pt(110, 10),
		BottomRight: vision.Pt(110, 110),
		BottomLeft:  vision.Pt(10, 110),
	}
	orders := []Quad{
		{vision.Pt(10, 10), vision.Pt(110, 10), vision.Pt(110, 110), vision.Pt(10, 110)},
		{vision.Pt(110, 110), vision.Pt(10, 10), vision.Pt(10, 110), vision.Pt(110, 10)},
		{vision.Pt(10, 110), vision.Pt(110, 110), vision.Pt(110, 10), vision.Pt(10, 10)},
	}
	for i, q := range orders {
		if got := OrderCorners(q); got != want {
			t.Errorf("order %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestOrderCornersPermutationAndIdempotent(t *testing.T) {
	quads := []Quad{
		{vision.Pt(12, 40), vision.Pt(300, 22), vision.Pt(320, 410), vision.Pt(5, 390)},
		{vision.Pt(60, 0), vision.Pt(200, 30), vision.Pt(170, 180), vision.Pt(20, 150)},
		{vision.Pt(0, 0), vision.Pt(640, 10), vision.Pt(600, 480), vision.Pt(30, 470)},
	}
	for i, q := range quads {
		c := OrderCorners(q)
		pts := c.Points()

		seen := map[vision.Point]int{}
		for _, p := range pts {
			seen[p]++
		}
		for _, p := range q {
			if seen[p] != 1 {
				t.Errorf("quad %d: corners %+v are not a permutation of %v", i, c, q)
				break
			}
		}

		again := OrderCorners(Quad(pts))
		if again != c {
			t.Errorf("quad %d: not idempotent: %+v then %+v", i, c, again)
		}
	}
}

func TestTargetSizeSquare(t *testing.T) {
	c := OrderCorners(Quad{vision.Pt(10, 10), vision.Pt(110, 10), vision.Pt(110, 110), vision.Pt(10, 110)})
	w, h := TargetSize(c)
	if w != 100 || h != 100 {
		t.Fatalf("TargetSize = %vx%v, want 100x100", w, h)
	}
}

func TestOutputSizeClamps(t *testing.T) {
	tests := []struct {
		w, h         float64
		wantW, wantH int
	}{
		{100, 100, 100, 100},
		{99.6, 10.4, 100, 10},
		{0, 0.2, 1, 1},
	}
	for _, tt := range tests {
		gw, gh := OutputSize(tt.w, tt.h)
		if gw != tt.wantW || gh != tt.wantH {
			t.Errorf("OutputSize(%v,%v) = %d,%d want %d,%d", tt.w, tt.h, gw, gh, tt.wantW, tt.wantH)
		}
	}
}

func TestRectifySquareQuad(t *testing.T) {
	img := pagePhoto(200, 200, image.Rect(10, 10, 110, 110))
	c := OrderCorners(Quad{vision.Pt(110, 110), vision.Pt(10, 10), vision.Pt(10, 110), vision.Pt(110, 10)})

	out, err := Rectify(vision.NewNative(), img, c)
	if err != nil {
		t.Fatalf("Rectify: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("rectified size = %v, want 100x100", b)
	}
	// The page is light; its centre must stay light after warping.
	r, _, _, _ := out.At(50, 50).RGBA()
	if r>>8 < 200 {
		t.Errorf("centre pixel is %d, want page colour", r>>8)
	}
}

func TestScanFindsPage(t *testing.T) {
	img := pagePhoto(600, 400, image.Rect(100, 80, 500, 330))
	prims := &countingPrims{Native: vision.NewNative()}
	s := NewScanner(prims, WithLogger(quietLogger()))

	res, err := s.Scan(context.Background(), img)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !res.Found {
		t.Fatal("expected the page to be found")
	}
	if res.Corners == nil {
		t.Fatal("found result must carry corners")
	}
	b := res.Image.Bounds()
	if math.Abs(float64(b.Dx()-400)) > 6 || math.Abs(float64(b.Dy()-250)) > 6 {
		t.Errorf("rectified size = %dx%d, want about 400x250", b.Dx(), b.Dy())
	}
	w, h := TargetSize(*res.Corners)
	if gw, gh := OutputSize(w, h); gw != b.Dx() || gh != b.Dy() {
		t.Errorf("image size %v does not match computed size %dx%d", b, gw, gh)
	}
	if prims.released != 3 {
		t.Errorf("released %d buffers, want 3 (gray, blurred, edges)", prims.released)
	}
}

func TestScanReleasesDownscaledCopy(t *testing.T) {
	img := pagePhoto(1600, 800, image.Rect(200, 100, 1400, 700))
	prims := &countingPrims{Native: vision.NewNative()}
	s := NewScanner(prims, WithLogger(quietLogger()))

	res, err := s.Scan(context.Background(), img)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !res.Found {
		t.Fatal("expected the page to be found")
	}
	if res.Scale != 1400.0/1600.0 {
		t.Errorf("scale = %v, want %v", res.Scale, 1400.0/1600.0)
	}
	if prims.released != 4 {
		t.Errorf("released %d buffers, want 4", prims.released)
	}
}

func TestScanNotFound(t *testing.T) {
	blank := image.NewRGBA(image.Rect(0, 0, 120, 80))
	draw.Draw(blank, blank.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	tests := []struct {
		name  string
		prims vision.Primitives
	}{
		{"no edges", vision.NewNative()},
		{"primitive error", failingPrims{vision.NewNative()}},
		{"primitive panic", panickingPrims{vision.NewNative()}},
		{"not ready", notReady{vision.NewNative()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := pagePhoto(300, 200, image.Rect(50, 40, 250, 160))
			if tt.name == "no edges" {
				img = blank
			}
			res, err := NewScanner(tt.prims, WithLogger(quietLogger())).Scan(context.Background(), img)
			if err != nil {
				t.Fatalf("Scan returned error %v, want NotFound", err)
			}
			if res.Found {
				t.Fatal("expected NotFound")
			}
			if res.Image != image.Image(img) {
				t.Error("NotFound must return the original image")
			}
		})
	}
}

func TestScanInvalidImage(t *testing.T) {
	s := NewScanner(vision.NewNative(), WithLogger(quietLogger()))
	for _, img := range []image.Image{nil, image.NewRGBA(image.Rect(0, 0, 0, 10))} {
		if _, err := s.Scan(context.Background(), img); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("Scan(%v) error = %v, want ErrInvalidImage", img, err)
		}
	}
}

func TestDownscale(t *testing.T) {
	n := vision.NewNative()

	small := image.NewRGBA(image.Rect(0, 0, 800, 600))
	out, scale, err := Downscale(n, small, 1400)
	if err != nil || scale != 1 || out != image.Image(small) {
		t.Fatalf("small image should pass through untouched, got scale %v err %v", scale, err)
	}

	big := image.NewRGBA(image.Rect(0, 0, 2800, 1000))
	out, scale, err = Downscale(n, big, 1400)
	if err != nil {
		t.Fatalf("Downscale: %v", err)
	}
	if scale != 0.5 {
		t.Errorf("scale = %v, want 0.5", scale)
	}
	if b := out.Bounds(); b.Dx() != 1400 || b.Dy() != 500 {
		t.Errorf("downscaled to %v, want 1400x500", b)
	}
}

func TestCrop(t *testing.T) {
	img := pagePhoto(100, 80, image.Rect(10, 10, 90, 70))

	out, err := Crop(img, image.Rect(50, 40, 200, 200))
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if b := out.Bounds(); b != image.Rect(0, 0, 50, 40) {
		t.Errorf("crop bounds = %v, want clamped 50x40", b)
	}

	if _, err := Crop(img, image.Rect(200, 200, 300, 300)); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("crop outside bounds error = %v, want ErrInvalidImage", err)
	}
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, pagePhoto(20, 10, image.Rect(2, 2, 18, 8))); err != nil {
		t.Fatal(err)
	}
	img, format, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != "png" || img.Bounds().Dx() != 20 {
		t.Errorf("decoded %s %v", format, img.Bounds())
	}

	for _, data := range [][]byte{nil, []byte("not an image")} {
		if _, _, err := Decode(data); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("Decode(%q) error = %v, want ErrInvalidImage", data, err)
		}
	}
}

// pngWithSize returns a valid 1x1 PNG whose header declares w×h pixels.
func pngWithSize(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	// IHDR: length at 8, type at 12, width and height at 16, CRC at 29.
	binary.BigEndian.PutUint32(data[16:], w)
	binary.BigEndian.PutUint32(data[20:], h)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDecodeRejectsHugeDimensions(t *testing.T) {
	if _, _, err := Decode(pngWithSize(t, 100000, 100000)); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Decode error = %v, want ErrInvalidImage", err)
	}
	if _, _, err := Decode(pngWithSize(t, 1, 1)); err != nil {
		t.Errorf("Decode of rewritten 1x1 PNG: %v", err)
	}
}

func TestParseRect(t *testing.T) {
	tests := []struct {
		spec    string
		want    image.Rectangle
		wantErr bool
	}{
		{"10,20,100,50", image.Rect(10, 20, 110, 70), false},
		{" 0, 0, 5 ,5", image.Rect(0, 0, 5, 5), false},
		{"10,20,100", image.Rectangle{}, true},
		{"a,b,c,d", image.Rectangle{}, true},
		{"0,0,0,10", image.Rectangle{}, true},
	}
	for _, tt := range tests {
		got, err := ParseRect(tt.spec)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRect(%q) err = %v, wantErr %v", tt.spec, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRect(%q) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}
