package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/config"
	"receipt-digitizer/src/pkg/ocr"
	"receipt-digitizer/src/pkg/preprocess"
	"receipt-digitizer/src/pkg/util"
)

/*
main preprocesses one image or every image of a directory and writes, per
image, <name>.png (binarized), <name>-compare.png and <name>-report.json into
-out. An image that fails to load or process is logged and skipped.

Flags override the preprocess section of the config file only when given:

	go run ./src/cmd/preprocess -image ./receipts -mode basic
	go run ./src/cmd/preprocess -image ./receipts/IMG_0042.jpg -skip-deskew -block-size 15
*/
func main() {
	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	imagePath := flag.String("image", "", "Path to a receipt image OR a directory with images.")
	outputDirPath := flag.String("out", "./out/preprocessed", "Directory for processed images and reports.")
	mode := flag.String("mode", "", "basic or advanced (default from config)")
	skipDeskew := flag.Bool("skip-deskew", false, "Do not straighten the image.")
	skipShadowRemoval := flag.Bool("skip-shadow-removal", false, "Do not flatten uneven illumination.")
	targetWidth := flag.Int("target-width", 0, "Resize width before binarization (advanced mode).")
	blockSize := flag.Int("block-size", 0, "Adaptive threshold neighbourhood, odd and >= 3.")
	constant := flag.Float64("c", 0, "Adaptive threshold constant subtracted from the local mean.")
	denoiseKernel := flag.Int("denoise-kernel", 0, "Median filter size, odd.")
	noCompare := flag.Bool("no-compare", false, "Skip the side by side comparison image.")

	flag.Parse()
	util.RequiredFlag(imagePath, "image")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)

	settings := *config.Cfg.Preprocess
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			settings.Mode = *mode
		case "skip-deskew":
			settings.SkipDeskew = *skipDeskew
		case "skip-shadow-removal":
			settings.SkipShadowRemoval = *skipShadowRemoval
		case "target-width":
			settings.TargetWidth = *targetWidth
		case "block-size":
			settings.BlockSize = *blockSize
		case "c":
			settings.C = *constant
		case "denoise-kernel":
			settings.DenoiseKernel = *denoiseKernel
		}
	})
	pipelineMode, err := settings.PipelineMode()
	xerr.QuitIfError(err, "parse -mode")
	pipelineConfig := settings.PipelineConfig()
	if pipelineMode == preprocess.ModeAdvanced {
		xerr.QuitIfError(pipelineConfig.Validate(), "validate preprocess settings")
	}

	images, e := ocr.ListImages(*imagePath)
	e.QuitIf(xerr.ErrorTypeError)
	if len(images) == 0 {
		tl.Log(tl.Warning, palette.PurpleBold, "No images found at: '%s'", *imagePath)
		os.Exit(0)
	}

	err = os.MkdirAll(*outputDirPath, 0o755)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to create output directory '%s'", *outputDirPath))

	tl.Log(
		tl.Notice, palette.BlueBold, "%s %d images in %s mode into '%s'",
		"Preprocessing", len(images), pipelineMode, *outputDirPath,
	)

	processedCount, skippedCount := 0, 0
	for _, path := range images {
		e := processOne(path, *outputDirPath, pipelineMode, pipelineConfig, !*noCompare)
		if e != nil {
			skippedCount++
			tl.Log(tl.Error, palette.RedBold, "Failed processing '%s': '%v'", path, e)
			continue
		}
		processedCount++
	}

	tl.Log(
		tl.Notice, palette.GreenBold, "Done. Processed: '%d', skipped: '%d'",
		processedCount, skippedCount,
	)
}

func processOne(imagePath, outputDirPath string, mode preprocess.Mode, cfg preprocess.Config, compare bool) (e *xerr.Error) {
	original, err := preprocess.Load(imagePath)
	if err != nil {
		return xerr.NewError(err, "load image", imagePath)
	}

	binary, report, err := preprocess.Run(original, mode, cfg)
	if err != nil {
		return xerr.NewError(err, "preprocess image", imagePath)
	}

	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	cleanPath := filepath.Join(outputDirPath, base+".png")
	err = preprocess.Save(binary, cleanPath)
	if err != nil {
		return xerr.NewError(err, "save processed image", cleanPath)
	}
	if compare {
		comparePath := filepath.Join(outputDirPath, base+"-compare.png")
		err = preprocess.Save(preprocess.Compare(original, binary), comparePath)
		if err != nil {
			return xerr.NewError(err, "save comparison image", comparePath)
		}
	}
	e = ocr.SaveJSONToFile(filepath.Join(outputDirPath, base+"-report.json"), report)
	if e != nil {
		return e
	}

	tl.Log(
		tl.Info1, palette.Green, "'%s': deskew %.2f, shadow removal %t, ink ratio %.3f",
		filepath.Base(imagePath), report.DeskewAngle, report.ShadowRemoval, report.InkRatio,
	)
	return nil
}
