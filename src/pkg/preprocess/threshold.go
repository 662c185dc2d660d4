package preprocess

import (
	"math"

	"receipt-digitizer/src/pkg/util"
)

/*
OtsuThreshold returns the global threshold that maximizes the between-class
variance of the histogram of a grayscale raster (equivalently, minimizes the
intra-class variance). When several thresholds tie, the lowest one wins.
*/
func OtsuThreshold(g *Raster) (uint8, error) {
	err := requireGray("binarize_otsu", g)
	if err != nil {
		return 0, err
	}

	var hist [256]float64
	for _, v := range g.Pix {
		hist[v]++
	}
	total := float64(len(g.Pix))

	mu := 0.0
	for i, count := range hist {
		hist[i] = count / total
		mu += float64(i) * hist[i]
	}

	best, maxSigma := 0, 0.0
	q1, mu1 := 0.0, 0.0
	for t := 0; t < 256; t++ {
		p := hist[t]
		q1Next := q1 + p
		if q1Next > 0 {
			mu1 = (mu1*q1 + float64(t)*p) / q1Next
		}
		q1 = q1Next
		q2 := 1 - q1
		if q1 < 1e-7 || q2 < 1e-7 {
			continue
		}
		mu2 := (mu - q1*mu1) / q2
		sigma := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if sigma > maxSigma {
			maxSigma = sigma
			best = t
		}
	}
	return uint8(best), nil
}

// BinarizeOtsu thresholds at OtsuThreshold: values above it become 255, the rest 0.
func BinarizeOtsu(g *Raster) (*Raster, error) {
	t, err := OtsuThreshold(g)
	if err != nil {
		return nil, err
	}
	return Threshold(g, t), nil
}

// Threshold maps values above t to 255 and everything else to 0.
func Threshold(g *Raster, t uint8) *Raster {
	out := newRaster(g.Width, g.Height, g.Channels)
	for i, v := range g.Pix {
		if v > t {
			out.Pix[i] = 255
		}
	}
	return out
}

/*
AdaptiveThreshold binarizes with a per-pixel threshold: the Gaussian-weighted
mean of the blockSize x blockSize neighbourhood minus c. A pixel becomes 255
when its value exceeds that threshold, 0 otherwise.

The Gaussian uses sigma = 0.3*((blockSize-1)*0.5 - 1) + 0.8 (the fixed binomial
kernels for sizes 3, 5 and 7), the border is replicated and the local mean is
rounded to 8 bits before the comparison. blockSize must be odd and >= 3.
*/
func AdaptiveThreshold(g *Raster, blockSize int, c float64) (*Raster, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, &InvalidParameterError{Stage: "adaptive_threshold", Param: "block_size", Value: blockSize, Reason: "must be odd and >= 3"}
	}
	err := requireGray("adaptive_threshold", g)
	if err != nil {
		return nil, err
	}

	mean := gaussianBlurPlane(g.Pix, g.Width, g.Height, gaussianKernel(blockSize))
	out := newRaster(g.Width, g.Height, 1)
	for i, v := range g.Pix {
		if float64(v) > float64(mean[i])-c {
			out.Pix[i] = 255
		}
	}
	return out, nil
}

var binomialKernels = map[int][]float64{
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

func gaussianKernel(size int) []float64 {
	if k, ok := binomialKernels[size]; ok {
		return k
	}
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	kernel := make([]float64, size)
	center := float64(size / 2)
	sum := 0.0
	for i := range kernel {
		d := float64(i) - center
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlurPlane is a separable convolution with replicate border, rounded back to 8 bits.
func gaussianBlurPlane(src []uint8, w, h int, kernel []float64) []uint8 {
	radius := len(kernel) / 2
	tmp := make([]float64, len(src))
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			sum := 0.0
			for k, weight := range kernel {
				sum += weight * float64(row[clampIndex(x+k-radius, w)])
			}
			tmp[y*w+x] = sum
		}
	}

	out := make([]uint8, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for k, weight := range kernel {
				sum += weight * tmp[clampIndex(y+k-radius, h)*w+x]
			}
			out[y*w+x] = saturate(sum)
		}
	}
	return out
}

func saturate(v float64) uint8 {
	return util.SaturateUint8(v)
}
