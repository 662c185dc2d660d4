package preprocess

import "math"

const cubicA = -0.75

/*
Rotate turns the content of r about its center (width/2, height/2, integer
halves) so that a line at `degrees` from horizontal (image coordinates, y down)
ends up horizontal. The output keeps the input size and channel count.

Sampling is bicubic (a = -0.75) and samples that fall outside the source take
the nearest edge value.
*/
func Rotate(r *Raster, degrees float64) *Raster {
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(r.Width/2), float64(r.Height/2)

	out := newRaster(r.Width, r.Height, r.Channels)
	ch := r.Channels
	var wx, wy [4]float64
	for y := 0; y < r.Height; y++ {
		dy := float64(y) - cy
		for x := 0; x < r.Width; x++ {
			dx := float64(x) - cx
			sx := cx + cos*dx - sin*dy
			sy := cy + sin*dx + cos*dy

			x0 := int(math.Floor(sx))
			y0 := int(math.Floor(sy))
			cubicWeights(sx-float64(x0), &wx)
			cubicWeights(sy-float64(y0), &wy)

			var xs, ys [4]int
			for k := 0; k < 4; k++ {
				xs[k] = clampIndex(x0-1+k, r.Width)
				ys[k] = clampIndex(y0-1+k, r.Height)
			}

			dst := (y*r.Width + x) * ch
			for c := 0; c < ch; c++ {
				sum := 0.0
				for j := 0; j < 4; j++ {
					rowOff := ys[j] * r.Width
					rowSum := 0.0
					for i := 0; i < 4; i++ {
						rowSum += wx[i] * float64(r.Pix[(rowOff+xs[i])*ch+c])
					}
					sum += wy[j] * rowSum
				}
				out.Pix[dst+c] = saturate(sum)
			}
		}
	}
	return out
}

// cubicWeights fills the four Keys cubic-convolution weights for offset t in [0, 1).
func cubicWeights(t float64, w *[4]float64) {
	a := cubicA
	w[0] = ((a*(t+1)-5*a)*(t+1)+8*a)*(t+1) - 4*a
	w[1] = ((a+2)*t-(a+3))*t*t + 1
	w[2] = ((a+2)*(1-t)-(a+3))*(1-t)*(1-t) + 1
	w[3] = 1 - w[0] - w[1] - w[2]
}
