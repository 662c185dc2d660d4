package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDeskewRecoversKnownAngles(t *testing.T) {
	for _, angle := range []float64{5, -7, 3} {
		img := skewedBars(800, 600, angle)

		detected, found := DetectSkew(img)
		if !found {
			t.Fatalf("angle %.1f: no skew detected", angle)
		}
		if math.Abs(detected-angle) > 2 {
			t.Fatalf("angle %.1f: detected %.2f", angle, detected)
		}

		straightened, applied := Deskew(img)
		if applied != detected {
			t.Fatalf("angle %.1f: Deskew reported %.2f, DetectSkew %.2f", angle, applied, detected)
		}
		residual, found := DetectSkew(straightened)
		if found && math.Abs(residual) > 2 {
			t.Fatalf("angle %.1f: residual skew %.2f after deskew", angle, residual)
		}
	}
}

func TestDeskewWithoutLinesIsNoOp(t *testing.T) {
	cases := map[string]*Raster{
		"blank paper": uniformRaster(t, 300, 200, 1, 255),
		"small noise": noiseRaster(t, 100, 100, 1, 9),
	}
	for name, img := range cases {
		t.Run(name, func(t *testing.T) {
			out, angle := Deskew(img)
			if angle != 0 {
				t.Fatalf("angle = %f, want exactly 0", angle)
			}
			if !out.Equal(img) {
				t.Fatalf("image changed although no line was found")
			}
		})
	}
}

func TestRotateByZeroIsIdentity(t *testing.T) {
	img := noiseRaster(t, 41, 29, 3, 10)
	if out := Rotate(img, 0); !out.Equal(img) {
		t.Fatalf("Rotate(img, 0) changed pixels")
	}
}

func TestRotateKeepsBorderFilled(t *testing.T) {
	img := uniformRaster(t, 60, 40, 1, 230)
	out := Rotate(img, 10)
	for i, v := range out.Pix {
		if v != 230 {
			t.Fatalf("sample %d = %d; replicate border should keep uniform images uniform", i, v)
		}
	}
}

func TestHoughLinesRejectsBadSteps(t *testing.T) {
	edges := uniformRaster(t, 10, 10, 1, 0)
	_, err := HoughLines(edges, 0, math.Pi/180, 10)
	var invalid *InvalidParameterError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidParameterError, got %v", err)
	}
}

func TestPreprocessBasicOnSyntheticReceipt(t *testing.T) {
	receipt := syntheticReceipt(t)

	binary, err := PreprocessBasic(receipt)
	if err != nil {
		t.Fatalf("PreprocessBasic() error = %v", err)
	}
	if binary.Channels != 1 || binary.Width != receipt.Width || binary.Height != receipt.Height {
		t.Fatalf("unexpected output shape %dx%dx%d", binary.Width, binary.Height, binary.Channels)
	}
	if !binary.IsBinary() {
		t.Fatalf("output is not binary")
	}
	if ink := InkRatio(binary); ink <= 0 || ink >= 0.3 {
		t.Fatalf("ink ratio %f outside (0, 0.3)", ink)
	}
}

func TestPreprocessAdvancedOnSyntheticReceipt(t *testing.T) {
	receipt := syntheticReceipt(t)
	cfg := DefaultConfig()
	cfg.TargetWidth = 900

	binary, report, err := PreprocessAdvanced(receipt, cfg)
	if err != nil {
		t.Fatalf("PreprocessAdvanced() error = %v", err)
	}
	if binary.Width != 900 || binary.Channels != 1 {
		t.Fatalf("unexpected output shape %dx%dx%d", binary.Width, binary.Height, binary.Channels)
	}
	if !binary.IsBinary() {
		t.Fatalf("output is not binary")
	}
	if report.InkRatio <= 0 || report.InkRatio >= 0.3 {
		t.Fatalf("ink ratio %f outside (0, 0.3)", report.InkRatio)
	}
	if report.InkRatio != InkRatio(binary) {
		t.Fatalf("report ink ratio %f does not match output %f", report.InkRatio, InkRatio(binary))
	}
	if report.GrayMean <= 0 || report.GrayStdDev <= 0 {
		t.Fatalf("gray statistics not filled: mean %f std %f", report.GrayMean, report.GrayStdDev)
	}
}

func TestPreprocessAdvancedStageOrder(t *testing.T) {
	receipt := syntheticReceipt(t)

	cases := []struct {
		name    string
		deskew  bool
		shadows bool
		want    []string
	}{
		{"all stages", true, true, []string{"resize_for_ocr", "grayscale", "remove_shadows", "deskew", "denoise", "adaptive_threshold"}},
		{"no shadow removal", true, false, []string{"resize_for_ocr", "grayscale", "deskew", "denoise", "adaptive_threshold"}},
		{"no deskew", false, true, []string{"resize_for_ocr", "grayscale", "remove_shadows", "denoise", "adaptive_threshold"}},
		{"minimal", false, false, []string{"resize_for_ocr", "grayscale", "denoise", "adaptive_threshold"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TargetWidth = 600
			cfg.ApplyDeskew = tc.deskew
			cfg.ApplyShadowRemoval = tc.shadows

			_, report, err := PreprocessAdvanced(receipt, cfg)
			if err != nil {
				t.Fatalf("PreprocessAdvanced() error = %v", err)
			}
			if len(report.Stages) != len(tc.want) {
				t.Fatalf("stages = %v, want %v", stageNames(report), tc.want)
			}
			for i, name := range tc.want {
				if report.Stages[i].Name != name {
					t.Fatalf("stages = %v, want %v", stageNames(report), tc.want)
				}
			}
			if report.ShadowRemoval != tc.shadows || report.DeskewApplied != tc.deskew {
				t.Fatalf("report flags shadow=%v deskew=%v", report.ShadowRemoval, report.DeskewApplied)
			}
			if !tc.deskew && report.DeskewAngle != 0 {
				t.Fatalf("deskew angle %f reported although deskew is off", report.DeskewAngle)
			}
		})
	}
}

func TestPreprocessAdvancedRejectsInvalidConfig(t *testing.T) {
	receipt := syntheticReceipt(t)
	before := receipt.Clone()

	bad := []func(*Config){
		func(c *Config) { c.BlockSize = 10 },
		func(c *Config) { c.DenoiseKernel = 4 },
		func(c *Config) { c.TargetWidth = 0 },
		func(c *Config) { c.TargetWidth = 400000 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		_, _, err := PreprocessAdvanced(receipt, cfg)
		var invalid *InvalidParameterError
		if !errors.As(err, &invalid) {
			t.Fatalf("case %d: expected *InvalidParameterError, got %v", i, err)
		}
	}
	if !receipt.Equal(before) {
		t.Fatalf("input raster was modified")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(corrupt, []byte("definitely not a jpeg"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.png"), corrupt} {
		_, err := Load(path)
		var decodeErr *ImageDecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("Load(%q): expected *ImageDecodeError, got %v", path, err)
		}
	}

	_, err := LoadBytes(nil)
	var decodeErr *ImageDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("LoadBytes(nil): expected *ImageDecodeError, got %v", err)
	}
}

func TestLoadNonASCIIPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "квитанции")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "чек_2024.png")

	src := image.NewGray(image.Rect(0, 0, 12, 7))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 3)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if img.Width != 12 || img.Height != 7 || img.Channels != 3 {
		t.Fatalf("unexpected shape %dx%dx%d", img.Width, img.Height, img.Channels)
	}
	if img.At(5, 2, 0) != src.Pix[2*12+5] || img.At(5, 2, 2) != src.Pix[2*12+5] {
		t.Fatalf("pixel values changed during load")
	}
}

func TestCompareAndEncode(t *testing.T) {
	original := noiseRaster(t, 100, 50, 3, 11)
	processed := uniformRaster(t, 200, 100, 1, 255)

	side := Compare(original, processed)
	if side.Width != 400 || side.Height != 100 || side.Channels != 3 {
		t.Fatalf("comparison is %dx%dx%d, want 400x100x3", side.Width, side.Height, side.Channels)
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, processed); err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	back, err := LoadBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	if back.Width != 200 || back.Height != 100 {
		t.Fatalf("round trip changed size to %dx%d", back.Width, back.Height)
	}
}

func stageNames(r Report) []string {
	names := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		names[i] = s.Name
	}
	return names
}

func TestParseModeAndRun(t *testing.T) {
	for in, want := range map[string]Mode{"basic": ModeBasic, "ADVANCED": ModeAdvanced, "": ModeAdvanced} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("fancy"); err == nil {
		t.Fatalf("ParseMode(fancy) should fail")
	}

	receipt := syntheticReceipt(t)
	binary, report, err := Run(receipt, ModeBasic, Config{})
	if err != nil {
		t.Fatalf("Run(basic) error = %v", err)
	}
	if len(report.Stages) != 1 || report.Stages[0].Name != "basic" {
		t.Fatalf("basic report stages = %v", stageNames(report))
	}
	if report.InkRatio != InkRatio(binary) {
		t.Fatalf("basic report ink ratio not filled")
	}
}
