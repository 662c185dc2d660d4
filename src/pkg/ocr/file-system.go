package ocr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

/*
ensureOutputDirectory creates the target directory (and parents) if needed.

It uses os.MkdirAll and returns a *xerr.Error if creation fails.
*/
func ensureOutputDirectory(outputDirPath string) (e *xerr.Error) {
	err := os.MkdirAll(outputDirPath, 0o755)
	if err != nil {
		e = xerr.NewError(err, "create output directory", outputDirPath)
		return e
	}

	tl.Log(tl.Verbose, palette.Blue, "Ensured output directory '%s'", outputDirPath)
	return e
}

/*
createRunDirectory makes a fresh per-image directory under root named
<timestamp>_<image base name>, e.g. 2025-11-26_16-35-31_IMG_0042.

Images processed in the same second by different workers get a numeric suffix
instead of sharing a directory.
*/
func createRunDirectory(root string, imagePath string, now time.Time) (runDirPath string, e *xerr.Error) {
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "-"), "-")
	name := now.Format("2006-01-02_15-04-05")
	if base != "" {
		name += "_" + base
	}

	for attempt := 1; ; attempt++ {
		runDirPath = filepath.Join(root, name)
		if attempt > 1 {
			runDirPath = filepath.Join(root, fmt.Sprintf("%s-%d", name, attempt))
		}
		err := os.Mkdir(runDirPath, 0o755)
		if err == nil {
			return runDirPath, nil
		}
		if !errors.Is(err, os.ErrExist) || attempt >= 1000 {
			return "", xerr.NewError(err, "create run directory", runDirPath)
		}
	}
}

/*
copyOriginalImage copies the input image file into the target path.

It preserves the file contents exactly, only changing the location and name.
If any file operation fails, a *xerr.Error is returned.
*/
func copyOriginalImage(sourcePath string, destinationPath string) (e *xerr.Error) {
	sourceFile, openErr := os.Open(sourcePath)
	if openErr != nil {
		e = xerr.NewError(openErr, "open source image for copy", sourcePath)
		return e
	}
	defer func() {
		_ = sourceFile.Close()
	}()

	destinationFile, createErr := os.Create(destinationPath)
	if createErr != nil {
		e = xerr.NewError(createErr, "create destination image file", destinationPath)
		return e
	}
	defer func() {
		_ = destinationFile.Close()
	}()

	_, copyErr := io.Copy(destinationFile, sourceFile)
	if copyErr != nil {
		e = xerr.NewError(copyErr, "copy image file", fmt.Sprintf("from '%s' to '%s'", sourcePath, destinationPath))
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Copied original image to '%s'", destinationPath)
	return e
}

/*
SaveTextToFile writes text into the file at destinationPath, overwriting it.
*/
func SaveTextToFile(destinationPath string, text string) (e *xerr.Error) {
	writeErr := os.WriteFile(destinationPath, []byte(text), 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "write text file", destinationPath)
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Saved text to '%s'", destinationPath)
	return e
}

/*
SaveJSONToFile marshals the given value to pretty-printed JSON and writes it
to destinationPath.

It accepts slices, structs, maps, or any JSON-marshalable value and overwrites
any existing file. If marshalling or writing fails, it returns a *xerr.Error.
*/
func SaveJSONToFile(destinationPath string, value any) (e *xerr.Error) {
	jsonBytes, marshalErr := json.MarshalIndent(value, "", "  ")
	if marshalErr != nil {
		e = xerr.NewError(marshalErr, "marshal value to JSON", destinationPath)
		return e
	}

	writeErr := os.WriteFile(destinationPath, jsonBytes, 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "write JSON file", destinationPath)
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Saved JSON data to '%s'", destinationPath)
	return e
}
