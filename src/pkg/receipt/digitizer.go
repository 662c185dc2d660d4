/*
Package receipt ties the stages together: preprocess and recognize (ocr),
structure (llm), then save receipt.json and receipt.csv next to the OCR
artifacts.
*/
package receipt

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
	"golang.org/x/time/rate"

	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/llm"
	"receipt-digitizer/src/pkg/ocr"
)

// Stages reported in a Failure.
const (
	StageOCR        = "ocr"
	StageThrottle   = "throttle"
	StageStructure  = "structure"
	StageSave       = "save"
	StageNotStarted = "not_started"
)

// TotalTolerance is how far the item sum may drift from the printed total.
const TotalTolerance = 0.01

type Digitizer struct {
	OCR        ocr.Options
	Structurer llm.Structurer // nil stops after OCR
	Limiter    *rate.Limiter  // throttles Structurer calls, nil means unlimited
	Export     export.Config
}

// Outcome is one digitized image.
type Outcome struct {
	ImagePath    string       `json:"image_path"`
	RunDir       string       `json:"run_dir"`
	OCR          ocr.Result   `json:"-"`
	Receipt      *llm.Receipt `json:"receipt,omitempty"`
	TotalMatches bool         `json:"total_matches"`
}

// Failure records why one image of a batch was skipped.
type Failure struct {
	ImagePath string      `json:"image_path"`
	Stage     string      `json:"stage"`
	Message   string      `json:"message"`
	Err       *xerr.Error `json:"-"`
}

// NewLimiter allows requestsPerMinute calls with a burst of one. Zero or less disables throttling.
func NewLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

/*
Digitize runs one image through the whole pipeline.

Artifacts land in a fresh run directory under outDir (see ocr.ProcessImage);
receipt.json and receipt.csv are added when a Structurer is set. A total that
does not match the item sum is logged, not treated as a failure.
*/
func (d *Digitizer) Digitize(ctx context.Context, imagePath string, outDir string) (outcome Outcome, e *xerr.Error) {
	outcome, _, e = d.digitize(ctx, imagePath, outDir)
	return outcome, e
}

func (d *Digitizer) digitize(ctx context.Context, imagePath string, outDir string) (outcome Outcome, stage string, e *xerr.Error) {
	outcome.ImagePath = imagePath

	result, e := ocr.ProcessImage(ctx, imagePath, outDir, d.OCR)
	if e != nil {
		return outcome, StageOCR, e
	}
	outcome.OCR = result
	outcome.RunDir = result.RunDir

	if d.Structurer == nil {
		tl.Log(tl.Info, palette.Purple, "%s is %s, stopping after OCR for '%s'", "Structurer", "not configured", imagePath)
		return outcome, "", nil
	}

	if d.Limiter != nil {
		err := d.Limiter.Wait(ctx)
		if err != nil {
			return outcome, StageThrottle, xerr.NewError(err, "wait for LLM rate limiter", imagePath)
		}
	}

	structured, e := d.Structurer.Structure(ctx, llm.Input{
		OCRText:          result.Text,
		AmountCandidates: result.AmountCandidates,
		ImagePath:        imagePath,
	})
	if e != nil {
		return outcome, StageStructure, e
	}
	outcome.Receipt = &structured

	outcome.TotalMatches = structured.TotalMatches(TotalTolerance)
	if !outcome.TotalMatches {
		sum, _ := structured.ItemsSum()
		tl.Log(
			tl.Warning, palette.PurpleBold, "Receipt total does not match sum of items for '%s' (items %.2f, total %s)",
			imagePath, sum, formatTotal(structured.Total),
		)
	}

	e = ocr.SaveJSONToFile(filepath.Join(result.RunDir, "receipt.json"), structured)
	if e != nil {
		return outcome, StageSave, e
	}
	e = export.SaveCSV(filepath.Join(result.RunDir, "receipt.csv"), []llm.Receipt{structured}, d.Export)
	if e != nil {
		return outcome, StageSave, e
	}

	tl.Log(tl.Notice1, palette.GreenBold, "%s. Results stored in '%s'", "Receipt digitized", result.RunDir)
	return outcome, "", nil
}

func formatTotal(total *float64) string {
	if total == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.2f", *total)
}
