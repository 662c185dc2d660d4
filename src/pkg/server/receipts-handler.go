package server

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/llm"
	"receipt-digitizer/src/pkg/ocr"
	"receipt-digitizer/src/pkg/preprocess"
)

/*
digitizeReceipt runs the full pipeline on the upload and answers the receipt
as JSON (default) or CSV (format=csv). Without a structurer the OCR text and
amount candidates are returned instead.
*/
func (s *Server) digitizeReceipt(c echo.Context) error {
	if s.options.Digitizer == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "receipt digitizing is not configured")
	}

	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("unknown format '%s', expected json or csv", format))
	}

	data, status, err := readUpload(c)
	if err != nil {
		return errorJSON(c, status, err.Error())
	}
	// Reject undecodable uploads before anything touches the disk.
	_, err = preprocess.LoadBytes(data)
	if err != nil {
		return preprocessError(c, err)
	}

	uploadPath, err := saveUpload(c, data)
	if err != nil {
		tl.Log(tl.Error, palette.RedBold, "Saving upload failed: '%s'", err)
		return errorJSON(c, http.StatusInternalServerError, "save upload")
	}
	defer os.RemoveAll(filepath.Dir(uploadPath))

	outcome, e := s.options.Digitizer.Digitize(c.Request().Context(), uploadPath, s.options.OutDir)
	if e != nil {
		tl.Log(tl.Error, palette.RedBold, "Digitizing upload failed: '%v'", e)
		return errorJSON(c, http.StatusBadGateway, "digitizing the receipt failed")
	}

	if outcome.Receipt == nil {
		return c.JSON(http.StatusOK, ocrOnlyResponse(outcome.OCR))
	}
	if format == "json" {
		return c.JSON(http.StatusOK, outcome.Receipt)
	}

	var buf bytes.Buffer
	e = export.WriteCSV(&buf, []llm.Receipt{*outcome.Receipt}, s.options.Export)
	if e != nil {
		return errorJSON(c, http.StatusInternalServerError, "write CSV")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="receipt.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// saveUpload writes data into a fresh temp dir, keeping the uploaded extension.
func saveUpload(c echo.Context, data []byte) (string, error) {
	name := "upload.png"
	if fileHeader, err := c.FormFile("image"); err == nil {
		if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ocr.IsImagePath("x" + ext) {
			name = "upload" + ext
		}
	}

	dir, err := os.MkdirTemp("", "receipt-upload-")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return "", err
	}
	return path, nil
}

func ocrOnlyResponse(result ocr.Result) map[string]any {
	return map[string]any{
		"text":              result.Text,
		"amount_candidates": result.AmountCandidates,
		"run_dir":           result.RunDir,
	}
}
