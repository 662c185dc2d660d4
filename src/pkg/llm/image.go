package llm

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/tuumbleweed/xerr"
)

/*
buildImageDataURL reads an image from disk and returns a data URL for the
image_url field of an input_image content part.
*/
func buildImageDataURL(imagePath string) (dataURL string, e *xerr.Error) {
	data, readErr := os.ReadFile(imagePath)
	if readErr != nil {
		return "", xerr.NewError(readErr, "read image for LLM", imagePath)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(imagePath)))
	if mimeType == "" {
		mimeType = "image/png"
	}

	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}
