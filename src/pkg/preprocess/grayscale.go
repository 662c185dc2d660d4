package preprocess

import "github.com/disintegration/imaging"

/*
Grayscale converts an RGB raster to a single channel using ITU-R BT.601 luma:

	Y = round(0.299*R + 0.587*G + 0.114*B)   (half rounds up)

A raster that already has one channel is returned as is.
*/
func Grayscale(r *Raster) *Raster {
	if r.Channels == 1 {
		return r
	}
	return fromNRGBA(imaging.Grayscale(r.Image()), 1)
}

// Luma is the per-pixel formula Grayscale applies.
func Luma(red, green, blue uint8) uint8 {
	return uint8(0.299*float64(red) + 0.587*float64(green) + 0.114*float64(blue) + 0.5)
}
