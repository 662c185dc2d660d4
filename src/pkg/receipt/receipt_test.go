package receipt

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/tuumbleweed/xerr"
	"golang.org/x/time/rate"

	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/llm"
	"receipt-digitizer/src/pkg/ocr"
	"receipt-digitizer/src/pkg/preprocess"
	"receipt-digitizer/src/pkg/util"
)

type staticRecognizer struct{}

func (staticRecognizer) Recognize(ctx context.Context, r *preprocess.Raster) ([]ocr.TextSpan, *xerr.Error) {
	return []ocr.TextSpan{
		{Text: "CORNER MARKET", Confidence: 91},
		{Text: "MILK 1L 1.29", Confidence: 88},
		{Text: "TOTAL ¥1,290", Confidence: 90},
	}, nil
}

type fakeStructurer struct {
	mu     sync.Mutex
	inputs []llm.Input
	failOn string
}

func (f *fakeStructurer) Structure(ctx context.Context, input llm.Input) (llm.Receipt, *xerr.Error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()

	if f.failOn != "" && strings.Contains(input.ImagePath, f.failOn) {
		return llm.Receipt{}, xerr.NewError(fmt.Errorf("model unavailable"), "structure receipt", input.ImagePath)
	}
	return llm.Receipt{
		StoreName:   util.Ptr("Corner Market"),
		Items:       []llm.Item{{Name: util.Ptr("MILK 1L"), Price: util.Ptr(1.29)}},
		Total:       util.Ptr(1.29),
		SourceImage: input.ImagePath,
	}, nil
}

func writeFixture(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 90))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	for x := 20; x < 140; x++ {
		img.Set(x, 45, color.Black)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return path
}

func newDigitizer(structurer llm.Structurer) *Digitizer {
	cfg := preprocess.DefaultConfig()
	cfg.TargetWidth = 320
	return &Digitizer{
		OCR:        ocr.Options{Mode: preprocess.ModeAdvanced, Preprocess: cfg, Recognizer: staticRecognizer{}},
		Structurer: structurer,
		Export:     export.DefaultValueConfig(),
	}
}

func TestDigitizeWritesReceiptArtifacts(t *testing.T) {
	dir := t.TempDir()
	imagePath := writeFixture(t, dir, "receipt.png")
	structurer := &fakeStructurer{}

	outcome, e := newDigitizer(structurer).Digitize(context.Background(), imagePath, filepath.Join(dir, "out"))
	if e != nil {
		t.Fatalf("Digitize() returned an error")
	}
	if outcome.Receipt == nil || !outcome.TotalMatches {
		t.Fatalf("expected a structured receipt whose total matches")
	}
	for _, name := range []string{"receipt.json", "receipt.csv", "clean.png", "ocr.txt"} {
		if _, err := os.Stat(filepath.Join(outcome.RunDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	if len(structurer.inputs) != 1 {
		t.Fatalf("structurer called %d times", len(structurer.inputs))
	}
	input := structurer.inputs[0]
	if !strings.Contains(input.OCRText, "MILK 1L 1.29") || input.ImagePath != imagePath {
		t.Fatalf("structurer input = %+v", input)
	}
}

func TestDigitizeWithoutStructurerStopsAfterOCR(t *testing.T) {
	dir := t.TempDir()
	imagePath := writeFixture(t, dir, "receipt.png")

	outcome, e := newDigitizer(nil).Digitize(context.Background(), imagePath, filepath.Join(dir, "out"))
	if e != nil {
		t.Fatalf("Digitize() returned an error")
	}
	if outcome.Receipt != nil {
		t.Fatalf("no receipt expected without a structurer")
	}
	if _, err := os.Stat(filepath.Join(outcome.RunDir, "receipt.json")); !os.IsNotExist(err) {
		t.Fatalf("receipt.json should not exist, stat err = %v", err)
	}
}

func TestDigitizeBatchRecordsFailuresAndContinues(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "a-good.png")
	corrupt := filepath.Join(dir, "b-corrupt.png")
	if err := os.WriteFile(corrupt, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	unlucky := writeFixture(t, dir, "c-unlucky.png")
	alsoGood := writeFixture(t, dir, "d-good.png")
	outDir := filepath.Join(dir, "out")

	digitizer := newDigitizer(&fakeStructurer{failOn: "unlucky"})
	batch, e := digitizer.DigitizeBatch(context.Background(), []string{good, corrupt, unlucky, alsoGood}, outDir, 3)
	if e != nil {
		t.Fatalf("DigitizeBatch() returned an error")
	}

	if len(batch.Outcomes) != 2 || batch.Outcomes[0].ImagePath != good || batch.Outcomes[1].ImagePath != alsoGood {
		t.Fatalf("outcomes = %+v", batch.Outcomes)
	}
	if len(batch.Failures) != 2 {
		t.Fatalf("failures = %+v", batch.Failures)
	}
	if batch.Failures[0].ImagePath != corrupt || batch.Failures[0].Stage != StageOCR {
		t.Fatalf("first failure = %+v", batch.Failures[0])
	}
	if batch.Failures[1].ImagePath != unlucky || batch.Failures[1].Stage != StageStructure {
		t.Fatalf("second failure = %+v", batch.Failures[1])
	}

	data, err := os.ReadFile(batch.CSVPath)
	if err != nil {
		t.Fatalf("read merged CSV: %v", err)
	}
	if rows := strings.Count(string(data), "Corner Market"); rows != 2 {
		t.Fatalf("merged CSV has %d receipt rows, want 2", rows)
	}
	if _, err := os.Stat(filepath.Join(outDir, "batch.json")); err != nil {
		t.Fatalf("batch.json missing: %v", err)
	}
}

func TestDigitizeBatchCancelled(t *testing.T) {
	dir := t.TempDir()
	images := []string{writeFixture(t, dir, "one.png"), writeFixture(t, dir, "two.png")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, e := newDigitizer(&fakeStructurer{}).DigitizeBatch(ctx, images, filepath.Join(dir, "out"), 2)
	if e != nil {
		t.Fatalf("DigitizeBatch() returned an error")
	}
	if len(batch.Outcomes) != 0 || len(batch.Failures) != 2 {
		t.Fatalf("cancelled batch should skip every image, got %d outcomes %d failures", len(batch.Outcomes), len(batch.Failures))
	}
	for _, failure := range batch.Failures {
		if failure.Stage != StageNotStarted {
			t.Fatalf("skipped image %q reported at stage %q, want %q", failure.ImagePath, failure.Stage, StageNotStarted)
		}
	}
}

func TestNewLimiter(t *testing.T) {
	if NewLimiter(0) != nil {
		t.Fatalf("zero requests per minute should disable throttling")
	}
	limiter := NewLimiter(60)
	if limiter.Limit() != rate.Limit(1) || limiter.Burst() != 1 {
		t.Fatalf("limit = %v burst = %d", limiter.Limit(), limiter.Burst())
	}
}
