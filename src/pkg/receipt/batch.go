package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/llm"
	"receipt-digitizer/src/pkg/ocr"
)

// BatchResult keeps outcomes and failures in input order.
type BatchResult struct {
	Outcomes []Outcome `json:"outcomes"`
	Failures []Failure `json:"failures"`
	CSVPath  string    `json:"csv_path,omitempty"`
}

/*
DigitizeBatch runs images through Digitize with up to workers goroutines.

A failing image is recorded in Failures and never stops the others. When at
least one receipt was structured, all of them are merged into
<outDir>/receipts.csv and batch.json summarizes the run.
*/
func (d *Digitizer) DigitizeBatch(ctx context.Context, imagePaths []string, outDir string, workers int) (batch BatchResult, e *xerr.Error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(imagePaths) {
		workers = len(imagePaths)
	}
	tl.Log(tl.Notice, palette.BlueBold, "%s %d images with %d workers", "Digitizing", len(imagePaths), workers)

	type slot struct {
		outcome Outcome
		failure *Failure
	}
	slots := make([]slot, len(imagePaths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				imagePath := imagePaths[index]
				outcome, stage, e := d.digitize(ctx, imagePath, outDir)
				if e != nil {
					tl.Log(tl.Error, palette.RedBold, "Failed processing '%s' at %s stage: '%v'", imagePath, stage, e)
					slots[index].failure = &Failure{ImagePath: imagePath, Stage: stage, Message: fmt.Sprintf("%v", e), Err: e}
					continue
				}
				slots[index].outcome = outcome
			}
		}()
	}

	for index := range imagePaths {
		if ctx.Err() != nil {
			break
		}
		jobs <- index
	}
	close(jobs)
	wg.Wait()

	var receipts []llm.Receipt
	for index, s := range slots {
		switch {
		case s.failure != nil:
			batch.Failures = append(batch.Failures, *s.failure)
		case s.outcome.ImagePath == "":
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			batch.Failures = append(batch.Failures, Failure{ImagePath: imagePaths[index], Stage: StageNotStarted, Message: "not started: " + err.Error()})
		default:
			batch.Outcomes = append(batch.Outcomes, s.outcome)
			if s.outcome.Receipt != nil {
				receipts = append(receipts, *s.outcome.Receipt)
			}
		}
	}

	if len(receipts) > 0 {
		batch.CSVPath = filepath.Join(outDir, "receipts.csv")
		e = export.SaveCSV(batch.CSVPath, receipts, d.Export)
		if e != nil {
			return batch, e
		}
	}
	if len(imagePaths) > 0 {
		err := os.MkdirAll(outDir, 0o755)
		if err != nil {
			return batch, xerr.NewError(err, "create batch output directory", outDir)
		}
		e = ocr.SaveJSONToFile(filepath.Join(outDir, "batch.json"), batch)
		if e != nil {
			return batch, e
		}
	}

	tl.Log(
		tl.Notice, palette.GreenBold, "Done. Processed: '%d', skipped: '%d'",
		len(batch.Outcomes), len(batch.Failures),
	)
	return batch, nil
}
