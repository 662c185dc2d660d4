package ocr

import (
	"path/filepath"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/preprocess"
)

/*
createProcessedImage runs the selected preprocessing pipeline on original and
writes three artifacts into runDirPath:

  - clean.png    the binary image handed to the recognizer
  - compare.png  original and clean side by side
  - report.json  the stage report (sizes, timings, skew angle, ink ratio)

If preprocessing or any write fails, it returns a *xerr.Error.
*/
func createProcessedImage(original *preprocess.Raster, options Options, runDirPath string) (clean *preprocess.Raster, report preprocess.Report, e *xerr.Error) {
	tl.Log(tl.Info1, palette.Blue, "Creating '%s' processed image in '%s'", options.Mode, runDirPath)

	clean, report, err := preprocess.Run(original, options.Mode, options.Preprocess)
	if err != nil {
		return nil, report, xerr.NewError(err, "preprocess image", options.Mode)
	}

	cleanPath := filepath.Join(runDirPath, "clean.png")
	err = preprocess.Save(clean, cleanPath)
	if err != nil {
		return nil, report, xerr.NewError(err, "save processed image", cleanPath)
	}

	comparePath := filepath.Join(runDirPath, "compare.png")
	err = preprocess.Save(preprocess.Compare(original, clean), comparePath)
	if err != nil {
		return nil, report, xerr.NewError(err, "save comparison image", comparePath)
	}

	e = SaveJSONToFile(filepath.Join(runDirPath, "report.json"), report)
	if e != nil {
		return nil, report, e
	}

	if report.DeskewApplied {
		tl.Log(tl.Info1, palette.Cyan, "Deskewed by '%.2f' degrees", report.DeskewAngle)
	}
	tl.Log(
		tl.Info1, palette.Green, "Saved processed image '%s' (%dx%d, ink ratio %.3f)",
		cleanPath, clean.Width, clean.Height, report.InkRatio,
	)
	return clean, report, nil
}
