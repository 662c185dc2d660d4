/*
Package preprocess turns a photographed receipt into a normalized binary image
for text recognition.

Every stage is a pure function over a Raster: it never mutates its input and
returns a new raster, so stages are safe to call concurrently on independent
images. Two fixed compositions are provided: PreprocessBasic (fast path) and
PreprocessAdvanced (resize, shadow removal, deskew, adaptive threshold).
*/
package preprocess

import (
	"image"
	"image/color"
	"image/draw"

	"receipt-digitizer/src/pkg/util"
)

// Raster is an 8-bit image with 1 (gray) or 3 (R, G, B) interleaved channels.
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

/*
NewRaster allocates a zeroed raster.

It returns an *InvalidParameterError when the dimensions are not positive or
the channel count is not 1 or 3.
*/
func NewRaster(width, height, channels int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, &InvalidParameterError{Stage: "raster", Param: "size", Value: [2]int{width, height}, Reason: "width and height must be positive"}
	}
	if channels != 1 && channels != 3 {
		return nil, &InvalidParameterError{Stage: "raster", Param: "channels", Value: channels, Reason: "must be 1 or 3"}
	}
	return newRaster(width, height, channels), nil
}

func newRaster(width, height, channels int) *Raster {
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	out := &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels, Pix: make([]uint8, len(r.Pix))}
	copy(out.Pix, r.Pix)
	return out
}

// At returns the sample of channel ch at (x, y).
func (r *Raster) At(x, y, ch int) uint8 {
	return r.Pix[(y*r.Width+x)*r.Channels+ch]
}

// IsBinary reports whether every sample is 0 or 255.
func (r *Raster) IsBinary() bool {
	for _, v := range r.Pix {
		if v != 0 && v != 255 {
			return false
		}
	}
	return true
}

// Equal reports whether both rasters have the same shape and samples.
func (r *Raster) Equal(other *Raster) bool {
	if r.Width != other.Width || r.Height != other.Height || r.Channels != other.Channels {
		return false
	}
	for i := range r.Pix {
		if r.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

/*
FromImage converts any image.Image into a raster.

*image.Gray becomes a 1-channel raster; everything else becomes RGB with
transparent pixels composited over white, which is what a receipt photo with
an alpha channel looks like on paper.
*/
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if gray, ok := img.(*image.Gray); ok {
		out := newRaster(w, h, 1)
		for y := 0; y < h; y++ {
			srcOff := (y+bounds.Min.Y-gray.Rect.Min.Y)*gray.Stride + (bounds.Min.X - gray.Rect.Min.X)
			copy(out.Pix[y*w:(y+1)*w], gray.Pix[srcOff:srcOff+w])
		}
		return out
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Over)

	out := newRaster(w, h, 3)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dst := out.Pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			dst[x*3] = row[x*4]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}
	return out
}

// Image returns an *image.Gray for 1-channel rasters and an opaque *image.NRGBA otherwise.
func (r *Raster) Image() image.Image {
	if r.Channels == 1 {
		gray := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
		copy(gray.Pix, r.Pix)
		return gray
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i, j := 0, 0; i < len(r.Pix); i, j = i+3, j+4 {
		nrgba.Pix[j] = r.Pix[i]
		nrgba.Pix[j+1] = r.Pix[i+1]
		nrgba.Pix[j+2] = r.Pix[i+2]
		nrgba.Pix[j+3] = 255
	}
	return nrgba
}

// fromNRGBA copies the first channels of an imaging result back into a raster.
func fromNRGBA(img *image.NRGBA, channels int) *Raster {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := newRaster(w, h, channels)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dst := out.Pix[y*w*channels : (y+1)*w*channels]
		for x := 0; x < w; x++ {
			for c := 0; c < channels; c++ {
				dst[x*channels+c] = row[x*4+c]
			}
		}
	}
	return out
}

// toRGB promotes a gray raster to three identical channels.
func toRGB(r *Raster) *Raster {
	if r.Channels == 3 {
		return r
	}
	out := newRaster(r.Width, r.Height, 3)
	for i, v := range r.Pix {
		out.Pix[i*3] = v
		out.Pix[i*3+1] = v
		out.Pix[i*3+2] = v
	}
	return out
}

func clampIndex(i, n int) int {
	return util.ClampIndex(i, n)
}
