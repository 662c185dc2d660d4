package preprocess

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func uniformRaster(t *testing.T, w, h, channels int, value uint8) *Raster {
	t.Helper()
	r, err := NewRaster(w, h, channels)
	if err != nil {
		t.Fatalf("NewRaster(%d, %d, %d) error = %v", w, h, channels, err)
	}
	for i := range r.Pix {
		r.Pix[i] = value
	}
	return r
}

func noiseRaster(t *testing.T, w, h, channels int, seed int64) *Raster {
	t.Helper()
	r, err := NewRaster(w, h, channels)
	if err != nil {
		t.Fatalf("NewRaster(%d, %d, %d) error = %v", w, h, channels, err)
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range r.Pix {
		r.Pix[i] = uint8(rng.Intn(256))
	}
	return r
}

// skewedBars draws dark 3px bars on white paper, each following
// y = y0 + tan(angle) * (x - centerX) in image coordinates.
func skewedBars(w, h int, degrees float64) *Raster {
	r := newRaster(w, h, 1)
	for i := range r.Pix {
		r.Pix[i] = 255
	}
	slope := math.Tan(degrees * math.Pi / 180)
	cx := float64(w) / 2
	margin := w / 8
	for y0 := h / 5; y0 < h-h/5; y0 += h / 8 {
		for x := margin; x < w-margin; x++ {
			y := int(math.Round(float64(y0) + slope*(float64(x)-cx)))
			for t := 0; t < 3; t++ {
				if y+t >= 0 && y+t < h {
					r.Pix[(y+t)*w+x] = 0
				}
			}
		}
	}
	return r
}

var receiptLines = []string{
	"CORNER MARKET #0042",
	"2024-03-18  14:22",
	"",
	"MILK 1L          1.29",
	"BREAD            2.49",
	"EGGS x12         3.99",
	"APPLES 1KG       2.10",
	"",
	"TOTAL            9.87",
}

// syntheticReceipt renders a flat, well lit, unskewed receipt as RGB. The
// 7x13 bitmap font is upscaled 3x so strokes survive a 3x3 median.
func syntheticReceipt(t *testing.T) *Raster {
	t.Helper()
	base := image.NewRGBA(image.Rect(0, 0, 200, 150))
	draw.Draw(base, base.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: base, Src: image.Black, Face: basicfont.Face7x13}
	for i, line := range receiptLines {
		d.Dot = fixed.P(10, 20+i*14)
		d.DrawString(line)
	}

	scaled := imaging.Resize(base, 600, 450, imaging.NearestNeighbor)
	return FromImage(scaled)
}
