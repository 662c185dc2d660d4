/*
Package openai is a small REST client for the OpenAI Responses API:

  - POST /v1/responses       create a (background) response
  - GET  /v1/responses/{id}  poll status, output and usage
*/
package openai

import (
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"

	CreateResponseTimeout = 300 * time.Second // model may take a while
	GetResponseTimeout    = 30 * time.Second  // status fetch should be fast
)

type Client struct {
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// NewClient uses apiKey, or OPENAI_API_KEY when apiKey is empty.
func NewClient(apiKey string, baseURL string) *Client {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		APIKey:       apiKey,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTPClient:   &http.Client{},
		PollInterval: 2 * time.Second,
		PollTimeout:  5 * time.Minute,
	}
}
