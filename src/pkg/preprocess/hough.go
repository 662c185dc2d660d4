package preprocess

import (
	"math"
	"sort"
)

// Line is a straight line in normal form: x*cos(Theta) + y*sin(Theta) = Rho.
type Line struct {
	Rho   float64
	Theta float64 // radians, [0, pi)
	Votes int
}

/*
HoughLines runs the standard Hough transform over a binary edge map.

The accumulator spans rhoStep-wide distance bins and thetaStep-wide angle bins
over [0, pi). A bin is reported when it has more than threshold votes and is a
local maximum against its four neighbours. Lines come back strongest first.
*/
func HoughLines(edges *Raster, rhoStep, thetaStep float64, threshold int) ([]Line, error) {
	err := requireGray("hough_lines", edges)
	if err != nil {
		return nil, err
	}
	if rhoStep <= 0 || thetaStep <= 0 {
		return nil, &InvalidParameterError{Stage: "hough_lines", Param: "step", Value: [2]float64{rhoStep, thetaStep}, Reason: "must be positive"}
	}

	w, h := edges.Width, edges.Height
	numAngle := int(math.RoundToEven(math.Pi / thetaStep))
	numRho := int(math.RoundToEven(float64((w+h)*2+1) / rhoStep))
	stride := numRho + 2

	cosTab := make([]float64, numAngle)
	sinTab := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		angle := float64(n) * thetaStep
		cosTab[n] = math.Cos(angle) / rhoStep
		sinTab[n] = math.Sin(angle) / rhoStep
	}

	// One bin of padding on every side keeps the neighbour checks branch-free.
	accum := make([]int, (numAngle+2)*stride)
	offset := (numRho - 1) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges.Pix[y*w+x] == 0 {
				continue
			}
			for n := 0; n < numAngle; n++ {
				r := int(math.RoundToEven(float64(x)*cosTab[n]+float64(y)*sinTab[n])) + offset
				accum[(n+1)*stride+r+1]++
			}
		}
	}

	var peaks []int
	for r := 0; r < numRho; r++ {
		for n := 0; n < numAngle; n++ {
			base := (n+1)*stride + r + 1
			v := accum[base]
			if v > threshold &&
				v > accum[base-1] && v >= accum[base+1] &&
				v > accum[base-stride] && v >= accum[base+stride] {
				peaks = append(peaks, base)
			}
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool {
		if accum[peaks[i]] != accum[peaks[j]] {
			return accum[peaks[i]] > accum[peaks[j]]
		}
		return peaks[i] < peaks[j]
	})

	lines := make([]Line, 0, len(peaks))
	for _, base := range peaks {
		n := base/stride - 1
		r := base - (n+1)*stride - 1
		lines = append(lines, Line{
			Rho:   (float64(r) - float64(numRho-1)*0.5) * rhoStep,
			Theta: float64(n) * thetaStep,
			Votes: accum[base],
		})
	}
	return lines, nil
}
