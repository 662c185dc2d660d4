package util

import (
	"context"
	"testing"
	"time"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		val, lo, hi, want float64
	}{
		{-3, 0, 255, 0},
		{300, 0, 255, 255},
		{127.5, 0, 255, 127.5},
	}
	for _, tc := range cases {
		if got := Clamp(tc.val, tc.lo, tc.hi); got != tc.want {
			t.Fatalf("Clamp(%v, %v, %v) = %v, want %v", tc.val, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestPtrAndDeref(t *testing.T) {
	p := Ptr(1.5)
	if *p != 1.5 {
		t.Fatalf("Ptr(1.5) points to %v", *p)
	}
	if got := Deref(p, 0); got != 1.5 {
		t.Fatalf("Deref = %v, want 1.5", got)
	}
	var missing *string
	if got := Deref(missing, "n/a"); got != "n/a" {
		t.Fatalf("Deref(nil) = %q, want fallback", got)
	}
}

func TestGetPackageName(t *testing.T) {
	if got := GetPackageName(); got != "util" {
		t.Fatalf("GetPackageName() = %q, want util", got)
	}
	cases := map[string]string{
		"receipt-digitizer/src/pkg/ocr.ProcessImage":        "ocr",
		"receipt-digitizer/src/pkg/echomw.(*Limiter).Allow": "echomw",
		"main.main.func1": "main",
	}
	for in, want := range cases {
		if got := packageFromFuncName(in); got != want {
			t.Fatalf("packageFromFuncName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWaitForSecondsCtxHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := time.Now()
	if err := WaitForSecondsCtx(ctx, 10); err == nil {
		t.Fatalf("expected context error")
	}
	if time.Since(started) > time.Second {
		t.Fatalf("cancelled wait took too long")
	}
	if err := WaitForSecondsCtx(context.Background(), 0.01); err != nil {
		t.Fatalf("uncancelled wait returned %v", err)
	}
}

func TestNormalizeFlagName(t *testing.T) {
	cases := map[string]string{
		"image":    "--image",
		"-image":   "--image",
		"--image":  "--image",
		" sender ": "--sender",
	}
	for in, want := range cases {
		if got := normalizeFlagName(in); got != want {
			t.Fatalf("normalizeFlagName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMissingFlags(t *testing.T) {
	defer func() { RequiredFlags = map[*string]string{} }()

	image, output, empty := "receipt.jpg", "", "   "
	RequiredFlag(&image, "image")
	RequiredFlag(&output, "-output")
	RequiredFlag(&empty, "--sender")

	got := MissingFlags()
	want := []string{"--output", "--sender"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("MissingFlags() = %v, want %v", got, want)
	}
}

func TestClampIndexAndSaturate(t *testing.T) {
	for _, tc := range []struct{ i, n, want int }{{-2, 5, 0}, {0, 5, 0}, {4, 5, 4}, {9, 5, 4}} {
		if got := ClampIndex(tc.i, tc.n); got != tc.want {
			t.Fatalf("ClampIndex(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
	for _, tc := range []struct {
		v    float64
		want uint8
	}{{-12.3, 0}, {0.4, 0}, {127.5, 128}, {254.6, 255}, {1e6, 255}} {
		if got := SaturateUint8(tc.v); got != tc.want {
			t.Fatalf("SaturateUint8(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}
