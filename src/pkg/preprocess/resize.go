package preprocess

import (
	"fmt"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// MaxTargetWidth is the widest raster ResizeForOCR produces.
	MaxTargetWidth  = 10000
	// MaxResizePixels caps width*height of a resize result.
	MaxResizePixels = 64_000_000
)

/*
ResizeForOCR scales r to targetWidth keeping the aspect ratio:

	height = round(originalHeight * targetWidth / originalWidth)   (at least 1)

Shrinking uses box (area-averaging) resampling, enlarging uses a Catmull-Rom
cubic. A raster that is already targetWidth wide is returned unchanged.

A target above MaxTargetWidth, or one whose result would exceed
MaxResizePixels, is rejected before anything is allocated.
*/
func ResizeForOCR(r *Raster, targetWidth int) (*Raster, error) {
	if targetWidth <= 0 {
		return nil, &InvalidParameterError{Stage: "resize_for_ocr", Param: "target_width", Value: targetWidth, Reason: "must be positive"}
	}
	if targetWidth > MaxTargetWidth {
		return nil, &InvalidParameterError{Stage: "resize_for_ocr", Param: "target_width", Value: targetWidth, Reason: fmt.Sprintf("must be at most %d", MaxTargetWidth)}
	}
	if r.Width == targetWidth {
		return r, nil
	}

	ratio := float64(targetWidth) / float64(r.Width)
	height := max(1, math.Round(float64(r.Height)*ratio))
	if float64(targetWidth)*height > MaxResizePixels {
		return nil, &InvalidParameterError{Stage: "resize_for_ocr", Param: "target_width", Value: targetWidth, Reason: fmt.Sprintf("result %dx%.0f exceeds %d pixels", targetWidth, height, MaxResizePixels)}
	}
	targetHeight := int(height)

	filter := imaging.CatmullRom
	if ratio < 1 {
		filter = imaging.Box
	}
	resized := imaging.Resize(r.Image(), targetWidth, targetHeight, filter)
	return fromNRGBA(resized, r.Channels), nil
}
