package preprocess

import (
	"math"
	"sort"
)

const (
	cannyLow       = 50
	cannyHigh      = 150
	houghThreshold = 200
	maxSkewDegrees = 45.0
)

/*
DetectSkew estimates how far the dominant lines of r deviate from horizontal,
in degrees, measured in image coordinates (y grows downwards, so a positive
angle means lines descend to the right).

Edges are found with Canny (50/150), lines with a Hough transform (1 px,
1 degree, 200 votes). Each line contributes theta-90; near-vertical candidates
outside (-45, 45) are dropped and the median of the rest is the estimate.
found is false when nothing survives, in which case angle is 0.
*/
func DetectSkew(r *Raster) (angle float64, found bool) {
	gray := Grayscale(r)
	edges, err := Canny(gray, cannyLow, cannyHigh)
	if err != nil {
		return 0, false
	}
	lines, err := HoughLines(edges, 1, math.Pi/180, houghThreshold)
	if err != nil || len(lines) == 0 {
		return 0, false
	}

	angles := make([]float64, 0, len(lines))
	for _, line := range lines {
		deviation := line.Theta*180/math.Pi - 90
		if deviation > -maxSkewDegrees && deviation < maxSkewDegrees {
			angles = append(angles, deviation)
		}
	}
	if len(angles) == 0 {
		return 0, false
	}
	return median(angles), true
}

/*
Deskew levels the text lines of r and returns the corrected raster together
with the detected skew angle in degrees.

The image is rotated about its center by the negative of the detected angle
using bicubic interpolation, with the border replicated so no black wedges
appear in the corners. When no usable line is found the input is returned
unchanged with an angle of exactly 0.
*/
func Deskew(r *Raster) (*Raster, float64) {
	angle, found := DetectSkew(r)
	if !found {
		return r, 0
	}
	return Rotate(r, angle), angle
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
