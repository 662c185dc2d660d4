package preprocess

import (
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"gonum.org/v1/gonum/stat"
)

// StageRecord is one entry of the ordered stage log in a Report.
type StageRecord struct {
	Name     string        `json:"name"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Channels int           `json:"channels"`
	Duration time.Duration `json:"duration_ns"`
}

// Report describes one PreprocessAdvanced run. It is built fresh per call.
type Report struct {
	Stages        []StageRecord `json:"stages"`
	ShadowRemoval bool          `json:"shadow_removal"`
	DeskewApplied bool          `json:"deskew_applied"`
	DeskewAngle   float64       `json:"deskew_angle"`
	GrayMean      float64       `json:"gray_mean"`
	GrayStdDev    float64       `json:"gray_std_dev"`
	InkRatio      float64       `json:"ink_ratio"`
}

func (rep *Report) record(name string, r *Raster, started time.Time) {
	elapsed := time.Since(started)
	rep.Stages = append(rep.Stages, StageRecord{
		Name:     name,
		Width:    r.Width,
		Height:   r.Height,
		Channels: r.Channels,
		Duration: elapsed,
	})
	tl.Log(tl.Debug, palette.CyanDim, "Stage '%s' produced %dx%dx%d in %s", name, r.Width, r.Height, r.Channels, elapsed)
}

/*
PreprocessBasic is the fast path for well lit, straight receipts:
grayscale -> denoise(3) -> Otsu binarization.
*/
func PreprocessBasic(r *Raster) (*Raster, error) {
	gray := Grayscale(r)
	denoised, err := Denoise(gray, 3)
	if err != nil {
		return nil, err
	}
	return BinarizeOtsu(denoised)
}

/*
PreprocessAdvanced is the quality path:

	resize_for_ocr -> grayscale -> [remove_shadows] -> [deskew] -> denoise -> adaptive_threshold

Shadow removal runs before deskew so the Hough transform sees corrected
illumination instead of shadow boundaries. Denoise runs after deskew to clean
the interpolation artifacts of the rotation. Thresholding is always last.

The Report records which optional stages ran and the measured skew angle.
Stage errors are returned as is.
*/
func PreprocessAdvanced(r *Raster, cfg Config) (binary *Raster, report Report, err error) {
	err = cfg.Validate()
	if err != nil {
		return nil, report, err
	}

	started := time.Now()
	img, err := ResizeForOCR(r, cfg.TargetWidth)
	if err != nil {
		return nil, report, err
	}
	report.record("resize_for_ocr", img, started)

	started = time.Now()
	img = Grayscale(img)
	report.record("grayscale", img, started)

	if cfg.ApplyShadowRemoval {
		started = time.Now()
		img, err = RemoveShadows(img)
		if err != nil {
			return nil, report, err
		}
		report.ShadowRemoval = true
		report.record("remove_shadows", img, started)
	}

	if cfg.ApplyDeskew {
		started = time.Now()
		img, report.DeskewAngle = Deskew(img)
		report.DeskewApplied = true
		report.record("deskew", img, started)
	}

	started = time.Now()
	img, err = Denoise(img, cfg.DenoiseKernel)
	if err != nil {
		return nil, report, err
	}
	report.record("denoise", img, started)
	report.GrayMean, report.GrayStdDev = grayStats(img)

	started = time.Now()
	binary, err = AdaptiveThreshold(img, cfg.BlockSize, cfg.C)
	if err != nil {
		return nil, report, err
	}
	report.record("adaptive_threshold", binary, started)
	report.InkRatio = InkRatio(binary)

	return binary, report, nil
}

// grayStats computes mean and standard deviation from the histogram, weighting
// each of the 256 levels by its pixel count.
func grayStats(g *Raster) (mean, stdDev float64) {
	levels := make([]float64, 256)
	weights := make([]float64, 256)
	for i := range levels {
		levels[i] = float64(i)
	}
	for _, v := range g.Pix {
		weights[v]++
	}
	return stat.MeanStdDev(levels, weights)
}

// InkRatio is the fraction of samples that are 0 (ink) in a binary raster.
func InkRatio(binary *Raster) float64 {
	if len(binary.Pix) == 0 {
		return 0
	}
	dark := 0
	for _, v := range binary.Pix {
		if v == 0 {
			dark++
		}
	}
	return float64(dark) / float64(len(binary.Pix))
}

// Mode selects one of the two fixed compositions.
type Mode string

const (
	ModeBasic    Mode = "basic"
	ModeAdvanced Mode = "advanced"
)

// ParseMode accepts "basic" or "advanced" (case-insensitive). Empty means advanced.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBasic:
		return ModeBasic, nil
	case ModeAdvanced, "":
		return ModeAdvanced, nil
	}
	return "", &InvalidParameterError{Stage: "pipeline", Param: "mode", Value: s, Reason: "must be basic or advanced"}
}

/*
Run dispatches to PreprocessBasic or PreprocessAdvanced.

The basic path ignores cfg; its Report carries a single "basic" stage entry
and the ink ratio.
*/
func Run(r *Raster, mode Mode, cfg Config) (*Raster, Report, error) {
	if mode != ModeBasic {
		return PreprocessAdvanced(r, cfg)
	}

	var report Report
	started := time.Now()
	binary, err := PreprocessBasic(r)
	if err != nil {
		return nil, report, err
	}
	report.record("basic", binary, started)
	report.InkRatio = InkRatio(binary)
	return binary, report, nil
}
