package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/config"
	"receipt-digitizer/src/pkg/ocr"
	"receipt-digitizer/src/pkg/receipt"
	"receipt-digitizer/src/pkg/util"
)

/*
main runs the full receipt pipeline.

-image can be:
  - a single image file
  - a directory containing images (not recursive)

For each image, concurrently up to -workers:
 1. preprocess and OCR into a run directory
 2. structure the OCR text with the LLM
 3. save receipt.json and receipt.csv into the same run directory

Failed images are logged and skipped. All receipts of the run are merged
into receipts.csv in the month directory.
*/
func main() {
	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	imagePath := flag.String("image", "", "Path to a receipt image OR a directory with images.")
	outputDirPath := flag.String("out", "./out", "Directory where processed images and results will be stored.")
	workers := flag.Int("workers", 0, "Images processed concurrently (default from config).")
	ocrOnly := flag.Bool("ocr-only", false, "Stop after OCR, no LLM call.")

	flag.Parse()
	util.RequiredFlag(imagePath, "image")
	util.EnsureFlags()
	if !*ocrOnly {
		config.CheckIfEnvVarsPresent("OPENAI_API_KEY")
	}
	config.InitializeConfig(*configPath)
	if *workers <= 0 {
		*workers = config.Cfg.Workers
	}

	// Build year-month suffix like "september-2006".
	currentTime := time.Now()
	yearMonthDirName := fmt.Sprintf("%s-%04d", strings.ToLower(currentTime.Month().String()), currentTime.Year())
	finalOutputDirPath := filepath.Join(*outputDirPath, yearMonthDirName)

	tl.Log(
		tl.Notice, palette.BlueBold, "%s entrypoint. Config path: '%s'",
		"Running full receipt pipeline", *configPath,
	)
	tl.Log(tl.Info1, palette.Cyan, "%s '%s'", "Using output directory", finalOutputDirPath)

	imagesToProcess, e := ocr.ListImages(*imagePath)
	e.QuitIf(xerr.ErrorTypeError)
	if len(imagesToProcess) == 0 {
		tl.Log(tl.Warning, palette.PurpleBold, "No images found at: '%s'", *imagePath)
		os.Exit(0)
	}

	digitizer, e := receipt.NewDigitizerFromConfig(!*ocrOnly)
	e.QuitIf(xerr.ErrorTypeError)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	batch, e := digitizer.DigitizeBatch(ctx, imagesToProcess, finalOutputDirPath, *workers)
	e.QuitIf(xerr.ErrorTypeError)

	for _, failure := range batch.Failures {
		tl.Log(tl.Warning, palette.PurpleBold, "Skipped '%s' (%s stage)", failure.ImagePath, failure.Stage)
	}
	for _, outcome := range batch.Outcomes {
		if outcome.Receipt != nil && !outcome.TotalMatches {
			tl.Log(tl.Warning1, palette.PurpleBold, "Total mismatch for '%s', try taking a photo again", outcome.ImagePath)
		}
	}
	if batch.CSVPath != "" {
		tl.Log(tl.Notice1, palette.GreenBold, "%s '%s'", "Merged receipts saved to", batch.CSVPath)
	}
}
