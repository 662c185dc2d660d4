package preprocess

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestGrayscaleIsIdempotent(t *testing.T) {
	color := noiseRaster(t, 64, 48, 3, 1)

	once := Grayscale(color)
	twice := Grayscale(once)

	if once.Channels != 1 {
		t.Fatalf("expected 1 channel, got %d", once.Channels)
	}
	if !once.Equal(twice) {
		t.Fatalf("grayscale(grayscale(x)) != grayscale(x)")
	}
}

func TestGrayscaleUsesBT601Luma(t *testing.T) {
	color := noiseRaster(t, 32, 32, 3, 2)
	gray := Grayscale(color)

	for y := 0; y < color.Height; y++ {
		for x := 0; x < color.Width; x++ {
			want := Luma(color.At(x, y, 0), color.At(x, y, 1), color.At(x, y, 2))
			got := gray.At(x, y, 0)
			if got != want {
				t.Fatalf("pixel (%d,%d): got %d, want %d", x, y, got, want)
			}
		}
	}
	if got := Luma(255, 255, 255); got != 255 {
		t.Fatalf("Luma(white) = %d, want 255", got)
	}
	if got := Luma(255, 0, 0); got != 76 {
		t.Fatalf("Luma(red) = %d, want 76", got)
	}
}

func TestDenoiseRemovesIsolatedSpikes(t *testing.T) {
	img := uniformRaster(t, 20, 10, 1, 100)
	img.Pix[5*20+7] = 255 // interior spike
	img.Pix[0] = 255      // corner spike, only survives without replicate border

	out, err := Denoise(img, 3)
	if err != nil {
		t.Fatalf("Denoise() error = %v", err)
	}
	for i, v := range out.Pix {
		if v != 100 {
			t.Fatalf("sample %d = %d, want 100", i, v)
		}
	}
	if img.Pix[0] != 255 {
		t.Fatalf("input was mutated")
	}
}

func TestDenoiseMatchesBruteForceMedian(t *testing.T) {
	img := noiseRaster(t, 23, 17, 1, 3)
	const k = 5

	out, err := Denoise(img, k)
	if err != nil {
		t.Fatalf("Denoise() error = %v", err)
	}

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			window := make([]float64, 0, k*k)
			for dy := -k / 2; dy <= k/2; dy++ {
				for dx := -k / 2; dx <= k/2; dx++ {
					sx := clampIndex(x+dx, img.Width)
					sy := clampIndex(y+dy, img.Height)
					window = append(window, float64(img.At(sx, sy, 0)))
				}
			}
			want := uint8(median(window))
			if got := out.At(x, y, 0); got != want {
				t.Fatalf("pixel (%d,%d): got %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestDenoiseColorKeepsChannels(t *testing.T) {
	img := noiseRaster(t, 16, 16, 3, 4)
	out, err := Denoise(img, 3)
	if err != nil {
		t.Fatalf("Denoise() error = %v", err)
	}
	if out.Channels != 3 || out.Width != 16 || out.Height != 16 {
		t.Fatalf("unexpected shape %dx%dx%d", out.Width, out.Height, out.Channels)
	}
}

func TestInvalidParametersAreRejectedWithoutMutation(t *testing.T) {
	gray := noiseRaster(t, 30, 30, 1, 5)
	before := gray.Clone()

	cases := []struct {
		name string
		run  func() error
	}{
		{"denoise even kernel", func() error { _, err := Denoise(gray, 4); return err }},
		{"denoise zero kernel", func() error { _, err := Denoise(gray, 0); return err }},
		{"denoise negative kernel", func() error { _, err := Denoise(gray, -3); return err }},
		{"adaptive even block", func() error { _, err := AdaptiveThreshold(gray, 10, 2); return err }},
		{"adaptive block 1", func() error { _, err := AdaptiveThreshold(gray, 1, 2); return err }},
		{"adaptive on color", func() error { _, err := AdaptiveThreshold(toRGB(gray), 11, 2); return err }},
		{"otsu on color", func() error { _, err := BinarizeOtsu(toRGB(gray)); return err }},
		{"resize zero width", func() error { _, err := ResizeForOCR(gray, 0); return err }},
		{"shadows on color", func() error { _, err := RemoveShadows(toRGB(gray)); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			var invalid *InvalidParameterError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected *InvalidParameterError, got %v", err)
			}
			if !gray.Equal(before) {
				t.Fatalf("input raster was modified")
			}
		})
	}
}

func TestOtsuOnBimodalImage(t *testing.T) {
	img := uniformRaster(t, 10, 10, 1, 50)
	for i := 50; i < 100; i++ {
		img.Pix[i] = 200
	}

	threshold, err := OtsuThreshold(img)
	if err != nil {
		t.Fatalf("OtsuThreshold() error = %v", err)
	}
	if threshold < 50 || threshold >= 200 {
		t.Fatalf("threshold %d does not separate 50 from 200", threshold)
	}

	binary, err := BinarizeOtsu(img)
	if err != nil {
		t.Fatalf("BinarizeOtsu() error = %v", err)
	}
	for i, v := range binary.Pix {
		want := uint8(0)
		if img.Pix[i] == 200 {
			want = 255
		}
		if v != want {
			t.Fatalf("sample %d = %d, want %d", i, v, want)
		}
	}

	again, _ := OtsuThreshold(img)
	if again != threshold {
		t.Fatalf("Otsu is not deterministic: %d then %d", threshold, again)
	}
}

func TestBinarizationOutputsAreTwoValued(t *testing.T) {
	gray := noiseRaster(t, 80, 60, 1, 6)

	otsu, err := BinarizeOtsu(gray)
	if err != nil {
		t.Fatalf("BinarizeOtsu() error = %v", err)
	}
	if !otsu.IsBinary() {
		t.Fatalf("Otsu output has values other than 0/255")
	}

	for _, block := range []int{3, 5, 7, 11, 31} {
		adaptive, err := AdaptiveThreshold(gray, block, 2)
		if err != nil {
			t.Fatalf("AdaptiveThreshold(block=%d) error = %v", block, err)
		}
		if !adaptive.IsBinary() {
			t.Fatalf("adaptive output (block=%d) has values other than 0/255", block)
		}
	}
}

func TestAdaptiveThresholdOnFlatPaperIsWhite(t *testing.T) {
	paper := uniformRaster(t, 40, 40, 1, 180)
	out, err := AdaptiveThreshold(paper, 11, 2)
	if err != nil {
		t.Fatalf("AdaptiveThreshold() error = %v", err)
	}
	if ink := InkRatio(out); ink != 0 {
		t.Fatalf("flat paper produced ink ratio %f", ink)
	}
}

func TestAdaptiveThresholdSurvivesIlluminationGradient(t *testing.T) {
	w, h := 120, 60
	img := uniformRaster(t, w, h, 1, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[y*w+x] = uint8(60 + x) // 60..179 left to right
		}
	}
	// A one pixel dark stroke 40 levels below its surroundings.
	for x := 0; x < w; x++ {
		img.Pix[30*w+x] -= 40
	}

	out, err := AdaptiveThreshold(img, 11, 2)
	if err != nil {
		t.Fatalf("AdaptiveThreshold() error = %v", err)
	}
	for x := 5; x < w-5; x++ {
		if out.At(x, 30, 0) != 0 {
			t.Fatalf("stroke pixel at x=%d was not detected", x)
		}
		if out.At(x, 10, 0) != 255 {
			t.Fatalf("paper pixel at x=%d became ink", x)
		}
	}
}

func TestResizeForOCR(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
		target        int
	}{
		{"enlarge", 300, 451, 2000},
		{"shrink", 3000, 1501, 2000},
		{"odd ratio", 997, 13, 640},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := noiseRaster(t, tc.width, tc.height, 3, 7)
			out, err := ResizeForOCR(src, tc.target)
			if err != nil {
				t.Fatalf("ResizeForOCR() error = %v", err)
			}
			if out.Width != tc.target {
				t.Fatalf("width = %d, want %d", out.Width, tc.target)
			}
			exact := float64(tc.height) * float64(tc.target) / float64(tc.width)
			if math.Abs(float64(out.Height)-exact) > 1 {
				t.Fatalf("height = %d, exact ratio %.2f", out.Height, exact)
			}
			if out.Channels != src.Channels {
				t.Fatalf("channels changed from %d to %d", src.Channels, out.Channels)
			}
		})
	}
}

func TestResizeForOCRNoOpAtTargetWidth(t *testing.T) {
	src := noiseRaster(t, 2000, 10, 1, 8)
	out, err := ResizeForOCR(src, 2000)
	if err != nil {
		t.Fatalf("ResizeForOCR() error = %v", err)
	}
	if !out.Equal(src) {
		t.Fatalf("resize at target width changed the image")
	}
}

func TestResizeForOCRRejectsOversizedTargets(t *testing.T) {
	tall := uniformRaster(t, 4, 4000, 1, 200)
	cases := []struct {
		name   string
		src    *Raster
		target int
	}{
		{"width above limit", tall, 400000},
		{"width one above limit", uniformRaster(t, 40, 10, 1, 200), MaxTargetWidth + 1},
		{"too many pixels", tall, 9000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResizeForOCR(tc.src, tc.target)
			var invalid *InvalidParameterError
			if !errors.As(err, &invalid) || invalid.Param != "target_width" {
				t.Fatalf("expected *InvalidParameterError for target_width, got %v", err)
			}
		})
	}

	out, err := ResizeForOCR(uniformRaster(t, 100, 50, 1, 200), MaxTargetWidth)
	if err != nil {
		t.Fatalf("ResizeForOCR(MaxTargetWidth) error = %v", err)
	}
	if out.Width != MaxTargetWidth || out.Height != MaxTargetWidth/2 {
		t.Fatalf("unexpected shape %dx%d", out.Width, out.Height)
	}
}

func TestRemoveShadowsFlattensGradient(t *testing.T) {
	w, h := 400, 300
	img := uniformRaster(t, w, h, 1, 0)
	text := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[y*w+x] = uint8(90 + 150*x/(w-1))
		}
	}
	for y0 := 40; y0 < h-40; y0 += 40 {
		for y := y0; y < y0+3; y++ {
			for x := 60; x < w-60; x++ {
				if (x/12)%2 == 0 {
					img.Pix[y*w+x] -= 80
					text[y*w+x] = true
				}
			}
		}
	}

	out, err := RemoveShadows(img)
	if err != nil {
		t.Fatalf("RemoveShadows() error = %v", err)
	}

	before := backgroundSamples(img, text, 12)
	after := backgroundSamples(out, text, 12)
	varBefore := stat.Variance(before, nil)
	varAfter := stat.Variance(after, nil)
	if varAfter*10 > varBefore {
		t.Fatalf("background variance %f -> %f, expected a large drop", varBefore, varAfter)
	}

	// Text must still be darker than paper.
	var ink, paper []float64
	for i, isText := range text {
		if isText {
			ink = append(ink, float64(out.Pix[i]))
		}
	}
	paper = after
	if stat.Mean(ink, nil)+50 > stat.Mean(paper, nil) {
		t.Fatalf("text contrast lost: ink mean %f, paper mean %f", stat.Mean(ink, nil), stat.Mean(paper, nil))
	}
}

func TestRemoveShadowsOnFlatImage(t *testing.T) {
	out, err := RemoveShadows(uniformRaster(t, 30, 30, 1, 77))
	if err != nil {
		t.Fatalf("RemoveShadows() error = %v", err)
	}
	for _, v := range out.Pix {
		if v != 255 {
			t.Fatalf("flat image should become white paper, got %d", v)
		}
	}
}

// backgroundSamples returns samples farther than margin pixels from any text pixel.
func backgroundSamples(r *Raster, text []bool, margin int) []float64 {
	var out []float64
	for y := margin; y < r.Height-margin; y++ {
		for x := margin; x < r.Width-margin; x++ {
			near := false
			for dy := -margin; dy <= margin && !near; dy += 2 {
				for dx := -margin; dx <= margin; dx += 2 {
					if text[(y+dy)*r.Width+x+dx] {
						near = true
						break
					}
				}
			}
			if !near {
				out = append(out, float64(r.Pix[y*r.Width+x]))
			}
		}
	}
	return out
}
