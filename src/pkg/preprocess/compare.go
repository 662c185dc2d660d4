package preprocess

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

/*
Compare renders original and processed side by side for diagnostics.

Both are promoted to RGB, the shorter one is scaled up by the height ratio so
the rows line up, and the two are concatenated horizontally (original on the
left).
*/
func Compare(original, processed *Raster) *Raster {
	left := toRGB(original).Image()
	right := toRGB(processed).Image()

	switch {
	case original.Height > processed.Height:
		scale := float64(original.Height) / float64(processed.Height)
		right = imaging.Resize(right, int(float64(processed.Width)*scale+0.5), original.Height, imaging.Linear)
	case processed.Height > original.Height:
		scale := float64(processed.Height) / float64(original.Height)
		left = imaging.Resize(left, int(float64(original.Width)*scale+0.5), processed.Height, imaging.Linear)
	}

	lb, rb := left.Bounds(), right.Bounds()
	canvas := imaging.New(lb.Dx()+rb.Dx(), max(lb.Dy(), rb.Dy()), color.White)
	canvas = imaging.Paste(canvas, left, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, right, image.Pt(lb.Dx(), 0))
	return fromNRGBA(canvas, 3)
}

// Save writes r to path; the format follows the extension (png, jpg, ...).
func Save(r *Raster, path string) error {
	return imaging.Save(r.Image(), path)
}

// EncodePNG writes r as PNG.
func EncodePNG(w io.Writer, r *Raster) error {
	return imaging.Encode(w, r.Image(), imaging.PNG)
}
