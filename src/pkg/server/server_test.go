package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tuumbleweed/xerr"

	echomw "receipt-digitizer/src/pkg/echo-middleware"
	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/llm"
	"receipt-digitizer/src/pkg/ocr"
	"receipt-digitizer/src/pkg/preprocess"
	"receipt-digitizer/src/pkg/receipt"
	"receipt-digitizer/src/pkg/util"
)

const token = "test-token"

type staticRecognizer struct{}

func (staticRecognizer) Recognize(ctx context.Context, r *preprocess.Raster) ([]ocr.TextSpan, *xerr.Error) {
	return []ocr.TextSpan{{Text: "MILK 1L 1.29", Confidence: 90}, {Text: "TOTAL 1.29", Confidence: 90}}, nil
}

type staticStructurer struct{}

func (staticStructurer) Structure(ctx context.Context, input llm.Input) (llm.Receipt, *xerr.Error) {
	return llm.Receipt{
		StoreName: util.Ptr("Corner Market"),
		Items:     []llm.Item{{Name: util.Ptr("MILK 1L"), Price: util.Ptr(1.29)}},
		Total:     util.Ptr(1.29),
	}, nil
}

func newTestServer(t *testing.T, digitizer *receipt.Digitizer) *Server {
	t.Helper()
	serverConfig := echomw.DefaultValueConfig()
	serverConfig.MiddlewareRateLimit = 100
	serverConfig.MiddlewareBurst = 100

	cfg := preprocess.DefaultConfig()
	cfg.TargetWidth = 320
	return New(Options{
		Server:      serverConfig,
		BearerToken: token,
		Mode:        preprocess.ModeAdvanced,
		Preprocess:  cfg,
		Digitizer:   digitizer,
		OutDir:      t.TempDir(),
		Export:      export.DefaultValueConfig(),
	})
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 120))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	for y := 50; y < 54; y++ {
		for x := 30; x < 170; x++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, s *Server, target string, data []byte, withToken bool) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if data != nil {
		part, err := writer.CreateFormFile("image", "receipt.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(data)
	} else {
		writer.WriteField("note", "no image")
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if withToken {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthzNeedsNoToken(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestPreprocessRequiresToken(t *testing.T) {
	s := newTestServer(t, nil)
	if rec := upload(t, s, "/api/preprocess", pngBytes(t), false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPreprocessReturnsPNG(t *testing.T) {
	s := newTestServer(t, nil)
	rec := upload(t, s, "/api/preprocess?skip_deskew=true", pngBytes(t), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if rec.Header().Get("X-Shadow-Removal") != "true" || rec.Header().Get("X-Deskew-Angle") != "0.00" {
		t.Fatalf("headers = %v", rec.Header())
	}
	if rec.Header().Get("X-Ink-Ratio") == "" || rec.Header().Get("X-Preprocess-Mode") != "advanced" {
		t.Fatalf("headers = %v", rec.Header())
	}

	out, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Bounds().Dx() != 320 {
		t.Fatalf("width = %d, want 320", out.Bounds().Dx())
	}
}

func TestPreprocessBasicMode(t *testing.T) {
	s := newTestServer(t, nil)
	rec := upload(t, s, "/api/preprocess?mode=basic", pngBytes(t), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Shadow-Removal") != "false" || rec.Header().Get("X-Preprocess-Mode") != "basic" {
		t.Fatalf("headers = %v", rec.Header())
	}
}

func TestPreprocessErrors(t *testing.T) {
	s := newTestServer(t, nil)
	cases := []struct {
		name   string
		target string
		data   []byte
		want   int
	}{
		{"undecodable upload", "/api/preprocess", []byte("definitely not an image"), http.StatusUnprocessableEntity},
		{"even block size", "/api/preprocess?block_size=10", pngBytes(t), http.StatusBadRequest},
		{"even denoise kernel", "/api/preprocess?denoise_kernel=4", pngBytes(t), http.StatusBadRequest},
		{"malformed width", "/api/preprocess?target_width=wide", pngBytes(t), http.StatusBadRequest},
		{"huge width", "/api/preprocess?target_width=400000", pngBytes(t), http.StatusBadRequest},
		{"width above server limit", "/api/preprocess?target_width=10001", pngBytes(t), http.StatusBadRequest},
		{"huge width in basic mode", "/api/preprocess?mode=basic&target_width=400000", pngBytes(t), http.StatusBadRequest},
		{"malformed toggle", "/api/preprocess?skip_deskew=maybe", pngBytes(t), http.StatusBadRequest},
		{"unknown mode", "/api/preprocess?mode=fancy", pngBytes(t), http.StatusBadRequest},
		{"missing image field", "/api/preprocess", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := upload(t, s, tc.target, tc.data, true)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("error body missing: %s", rec.Body.String())
			}
		})
	}
}

func TestReceiptsEndpoint(t *testing.T) {
	cfg := preprocess.DefaultConfig()
	cfg.TargetWidth = 320
	digitizer := &receipt.Digitizer{
		OCR:        ocr.Options{Mode: preprocess.ModeAdvanced, Preprocess: cfg, Recognizer: staticRecognizer{}},
		Structurer: staticStructurer{},
		Export:     export.DefaultValueConfig(),
	}
	s := newTestServer(t, digitizer)

	rec := upload(t, s, "/api/receipts", pngBytes(t), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var got llm.Receipt
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if got.StoreName == nil || *got.StoreName != "Corner Market" || len(got.Items) != 1 {
		t.Fatalf("receipt = %+v", got)
	}

	rec = upload(t, s, "/api/receipts?format=csv", pngBytes(t), true)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("csv status = %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "store_name,date,name,quantity,price,total") || !strings.Contains(rec.Body.String(), "Corner Market,,MILK 1L,,1.29,1.29") {
		t.Fatalf("csv body = %q", rec.Body.String())
	}

	if rec := upload(t, s, "/api/receipts?format=xml", pngBytes(t), true); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown format status = %d", rec.Code)
	}
	if rec := upload(t, s, "/api/receipts", []byte("garbage"), true); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("garbage upload status = %d", rec.Code)
	}
}

func TestReceiptsWithoutDigitizer(t *testing.T) {
	s := newTestServer(t, nil)
	if rec := upload(t, s, "/api/receipts", pngBytes(t), true); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
