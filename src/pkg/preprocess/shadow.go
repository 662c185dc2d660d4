package preprocess

const (
	shadowDilateSize = 7
	shadowMedianSize = 21
)

/*
RemoveShadows flattens slowly varying illumination on a grayscale raster.

 1. Dilate with a 7x7 square so dark text strokes are filled with the
    surrounding paper brightness.
 2. Median-filter the dilated image with a 21x21 window to get a smooth
    background estimate.
 3. Take 255 - |original - background|: paper stays bright, strokes stay dark.
 4. Min-max stretch the result to 0..255. A flat result has no contrast to
    stretch and becomes uniform paper (255).
*/
func RemoveShadows(g *Raster) (*Raster, error) {
	err := requireGray("remove_shadows", g)
	if err != nil {
		return nil, err
	}

	dilated := dilatePlane(g.Pix, g.Width, g.Height, shadowDilateSize)
	background := medianPlane(dilated, g.Width, g.Height, shadowMedianSize)

	diff := make([]uint8, len(g.Pix))
	lo, hi := uint8(255), uint8(0)
	for i, v := range g.Pix {
		d := int(v) - int(background[i])
		if d < 0 {
			d = -d
		}
		diff[i] = uint8(255 - d)
		lo = min(lo, diff[i])
		hi = max(hi, diff[i])
	}

	out := newRaster(g.Width, g.Height, 1)
	if hi == lo {
		for i := range out.Pix {
			out.Pix[i] = 255
		}
		return out, nil
	}
	scale := 255 / float64(hi-lo)
	for i, v := range diff {
		out.Pix[i] = saturate(float64(v-lo) * scale)
	}
	return out, nil
}

// dilatePlane is a separable size x size maximum filter. Clamping the window to
// the image gives the same result as replicating the border for a max filter.
func dilatePlane(src []uint8, w, h, size int) []uint8 {
	radius := size / 2
	tmp := make([]uint8, len(src))
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			m := uint8(0)
			for dx := max(0, x-radius); dx <= min(w-1, x+radius); dx++ {
				m = max(m, row[dx])
			}
			tmp[y*w+x] = m
		}
	}
	out := make([]uint8, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := uint8(0)
			for dy := max(0, y-radius); dy <= min(h-1, y+radius); dy++ {
				m = max(m, tmp[dy*w+x])
			}
			out[y*w+x] = m
		}
	}
	return out
}
