package preprocess

/*
Denoise applies a kernelSize x kernelSize median filter to every channel.

Border policy is replicate: samples outside the image take the value of the
nearest edge sample, so the first and last rows and columns see a window made
of repeated edge values. kernelSize must be odd and positive, otherwise an
*InvalidParameterError is returned and nothing is computed.
*/
func Denoise(r *Raster, kernelSize int) (*Raster, error) {
	err := requireOddPositive("denoise", "kernel_size", kernelSize)
	if err != nil {
		return nil, err
	}
	if kernelSize == 1 {
		return r.Clone(), nil
	}
	return mapPlanes(r, func(plane []uint8) []uint8 {
		return medianPlane(plane, r.Width, r.Height, kernelSize)
	}), nil
}

// mapPlanes runs fn over each channel plane separately and re-interleaves the result.
func mapPlanes(r *Raster, fn func(plane []uint8) []uint8) *Raster {
	if r.Channels == 1 {
		return &Raster{Width: r.Width, Height: r.Height, Channels: 1, Pix: fn(r.Pix)}
	}
	out := newRaster(r.Width, r.Height, r.Channels)
	n := r.Width * r.Height
	plane := make([]uint8, n)
	for c := 0; c < r.Channels; c++ {
		for i := 0; i < n; i++ {
			plane[i] = r.Pix[i*r.Channels+c]
		}
		result := fn(plane)
		for i := 0; i < n; i++ {
			out.Pix[i*r.Channels+c] = result[i]
		}
	}
	return out
}

/*
medianPlane is a Huang sliding-histogram median.

For each row the window histogram is built once, then slid right one column at
a time while tracking the median and the count of samples below it, so the
cost per pixel is O(k) instead of O(k*k log k).
*/
func medianPlane(src []uint8, w, h, k int) []uint8 {
	out := make([]uint8, len(src))
	radius := k / 2
	half := (k * k) / 2

	cols := make([]int, w+2*radius)
	for i := range cols {
		cols[i] = clampIndex(i-radius, w)
	}
	rows := make([]int, k)

	var hist [256]int
	for y := 0; y < h; y++ {
		for i := range rows {
			rows[i] = clampIndex(y+i-radius, h) * w
		}

		hist = [256]int{}
		for _, rowOff := range rows {
			for dx := 0; dx < k; dx++ {
				hist[src[rowOff+cols[dx]]]++
			}
		}

		med, less := 0, 0
		for less+hist[med] <= half {
			less += hist[med]
			med++
		}
		out[y*w] = uint8(med)

		for x := 1; x < w; x++ {
			leaving := cols[x-1]
			entering := cols[x+k-1]
			for _, rowOff := range rows {
				v := int(src[rowOff+leaving])
				hist[v]--
				if v < med {
					less--
				}
				v = int(src[rowOff+entering])
				hist[v]++
				if v < med {
					less++
				}
			}
			for less > half {
				med--
				less -= hist[med]
			}
			for less+hist[med] <= half {
				less += hist[med]
				med++
			}
			out[y*w+x] = uint8(med)
		}
	}
	return out
}
