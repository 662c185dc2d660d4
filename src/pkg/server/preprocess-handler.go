package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-digitizer/src/pkg/preprocess"
)

/*
preprocessImage answers the binarized image as PNG. view=compare returns the
side by side diagnostic image instead.

Response headers: X-Preprocess-Mode, X-Deskew-Angle, X-Shadow-Removal,
X-Ink-Ratio. Undecodable uploads answer 422, invalid parameters 400.
*/
func (s *Server) preprocessImage(c echo.Context) error {
	mode, cfg, err := preprocessParams(c, s.options.Mode, s.options.Preprocess, s.options.Server.MaxTargetWidth)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	data, status, err := readUpload(c)
	if err != nil {
		return errorJSON(c, status, err.Error())
	}

	original, err := preprocess.LoadBytes(data)
	if err != nil {
		return preprocessError(c, err)
	}

	binary, report, err := preprocess.Run(original, mode, cfg)
	if err != nil {
		return preprocessError(c, err)
	}

	output := binary
	if c.QueryParam("view") == "compare" {
		output = preprocess.Compare(original, binary)
	}

	var buf bytes.Buffer
	err = preprocess.EncodePNG(&buf, output)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "encode PNG")
	}

	header := c.Response().Header()
	header.Set("X-Preprocess-Mode", string(mode))
	header.Set("X-Deskew-Angle", strconv.FormatFloat(report.DeskewAngle, 'f', 2, 64))
	header.Set("X-Shadow-Removal", strconv.FormatBool(report.ShadowRemoval))
	header.Set("X-Ink-Ratio", strconv.FormatFloat(report.InkRatio, 'f', 4, 64))

	tl.Log(
		tl.Info1, palette.Green, "%s %dx%d in %s mode (deskew %.2f, ink %.3f)",
		"Preprocessed upload", binary.Width, binary.Height, mode, report.DeskewAngle, report.InkRatio,
	)
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// readUpload returns the bytes of the "image" form file.
func readUpload(c echo.Context) (data []byte, status int, err error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("multipart field 'image' is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	return data, http.StatusOK, nil
}

func preprocessError(c echo.Context, err error) error {
	var decodeErr *preprocess.ImageDecodeError
	var invalid *preprocess.InvalidParameterError
	switch {
	case errors.As(err, &decodeErr):
		return errorJSON(c, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &invalid):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	tl.Log(tl.Error, palette.RedBold, "Preprocessing failed: '%s'", err)
	return errorJSON(c, http.StatusInternalServerError, "preprocessing failed")
}
