package echomw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func serve(handler echo.HandlerFunc, header http.Header) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/preprocess", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = handler(c)
	return rec
}

func TestBearerAuth(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		header   string
		want     int
	}{
		{"valid token", "s3cret", "Bearer s3cret", http.StatusOK},
		{"scheme is case-insensitive", "s3cret", "bearer   s3cret ", http.StatusOK},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"basic scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"empty bearer", "s3cret", "Bearer ", http.StatusUnauthorized},
		{"unconfigured fails closed", "", "Bearer anything", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.header != "" {
				header.Set("Authorization", tc.header)
			}
			rec := serve(BearerAuth(tc.expected)(okHandler), header)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Fatalf("missing WWW-Authenticate header")
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	handler := limiter.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(handler, nil).Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests were rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request got %d, want 429", codes[2])
	}

	other := http.Header{}
	other.Set("X-Real-IP", "10.0.0.9")
	if code := serve(handler, other).Code; code != http.StatusOK {
		t.Fatalf("another client was throttled: %d", code)
	}
}

func TestInitializeConfigFillsDefaults(t *testing.T) {
	defer func() { Cfg = DefaultValueConfig() }()

	InitializeConfig(&Config{Port: 9000})
	if Cfg.Port != 9000 {
		t.Fatalf("port = %d, want 9000", Cfg.Port)
	}
	if Cfg.Address != "127.0.0.1" || Cfg.MiddlewareBurst != 20 || Cfg.MaxTargetWidth != 10000 {
		t.Fatalf("defaults not applied: %+v", Cfg)
	}
	if got := Cfg.ListenAddress(); got != "127.0.0.1:9000" {
		t.Fatalf("ListenAddress() = %q", got)
	}
}
