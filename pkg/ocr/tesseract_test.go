//go:build ocr

package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func textImage(lines ...string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 400, 40+30*len(lines)))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: basicfont.Face7x13}
	for i, l := range lines {
		d.Dot = fixed.P(20, 30+30*i)
		d.DrawString(l)
	}
	return img
}

func TestTesseractRecognize(t *testing.T) {
	engine, err := NewTesseract("eng")
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}

	var last float64
	rec, err := engine.Recognize(context.Background(), textImage("TOTAL 42"), func(f float64) {
		if f < last {
			t.Errorf("progress went backwards: %v after %v", f, last)
		}
		last = f
	})
	if err != nil {
		t.Skipf("Tesseract failed (missing language data?): %v", err)
	}
	// The bitmap font is tiny; only check the plumbing, not accuracy.
	if strings.TrimSpace(rec.Text) != "" && len(rec.Words) == 0 {
		t.Errorf("text %q recognized without words", rec.Text)
	}
	if last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}
}
