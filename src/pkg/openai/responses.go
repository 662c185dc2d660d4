package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/util"
)

/*
createResponse performs POST /responses and returns the parsed response object.
It may return a "completed" response immediately, or a "queued"/"in_progress"
one when the request ran in background mode.
*/
func (c *Client) createResponse(ctx context.Context, payload requestPayload) (response responseObject, e *xerr.Error) {
	url := c.BaseURL + "/responses"
	tl.Log(tl.Info, palette.Blue, "%s %s to '%s'", "Creating", "response", url)

	encoded, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return responseObject{}, xerr.NewError(marshalErr, "Failed to marshal request payload", payload.Model)
	}

	ctx, cancel := context.WithTimeout(ctx, CreateResponseTimeout)
	defer cancel()
	req, newReqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if newReqErr != nil {
		return responseObject{}, xerr.NewError(newReqErr, "Failed to create HTTP request", nil)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "POST /responses")
}

/*
getResponseByID performs GET /responses/{id} and returns the parsed response object.
*/
func (c *Client) getResponseByID(ctx context.Context, responseID string) (response responseObject, e *xerr.Error) {
	url := fmt.Sprintf("%s/responses/%s", c.BaseURL, responseID)

	ctx, cancel := context.WithTimeout(ctx, GetResponseTimeout)
	defer cancel()
	req, newReqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if newReqErr != nil {
		return responseObject{}, xerr.NewError(newReqErr, "Failed to create HTTP request", map[string]any{"response_id": responseID})
	}

	return c.do(req, "GET /responses/{id}")
}

// do sends an authorized request and decodes a responseObject from a 200 reply.
func (c *Client) do(req *http.Request, endpoint string) (response responseObject, e *xerr.Error) {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept-Encoding", "br, gzip, deflate")

	resp, httpErr := c.HTTPClient.Do(req)
	if httpErr != nil {
		return responseObject{}, xerr.NewError(httpErr, "HTTP error during "+endpoint, map[string]any{"url": req.URL.String()})
	}
	defer resp.Body.Close()

	respBody, e := GetBody(resp, req.URL.String())
	if e != nil {
		return responseObject{}, e
	}
	if resp.StatusCode != http.StatusOK {
		return responseObject{}, xerr.NewError(fmt.Errorf("status is '%s'", resp.Status), "API error from "+endpoint, string(respBody))
	}
	tl.Log(tl.Debug, palette.CyanDim, "openai response body: %s", string(respBody))

	decodeErr := json.Unmarshal(respBody, &response)
	if decodeErr != nil {
		return responseObject{}, xerr.NewError(decodeErr, "Failed to decode response body", endpoint)
	}
	return response, nil
}

/*
extractOutputText collects all "output_text" fragments of message items into a
single string.
*/
func extractOutputText(resp *responseObject) string {
	var builder strings.Builder
	for _, out := range resp.Output {
		if out.Type != "message" {
			continue
		}
		for _, c := range out.Content {
			if c.Type == "output_text" && c.Text != "" {
				builder.WriteString(c.Text)
			}
		}
	}
	return builder.String()
}

/*
waitForResponseCompletion polls GET /responses/{id} every PollInterval until a
terminal state, PollTimeout (if > 0) or ctx cancellation. On failure, cancel,
expiry or timeout it returns a *xerr.Error with the API's error payload as
context where available.
*/
func (c *Client) waitForResponseCompletion(ctx context.Context, responseID string) (final responseObject, e *xerr.Error) {
	previousStatus := ""
	poll := 0

	var deadline time.Time
	if c.PollTimeout > 0 {
		deadline = time.Now().Add(c.PollTimeout)
	}

	var lastResp responseObject
	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			msg := fmt.Sprintf("Response polling timed out after %s", c.PollTimeout)
			tl.Log(tl.Info1, palette.Purple, "%s; last known id='%s'", msg, responseID)
			lastResp.Status = "timeout"
			return lastResp, xerr.NewError(fmt.Errorf("timeout"), msg, responseID)
		}

		poll++
		resp, getErr := c.getResponseByID(ctx, responseID)
		if getErr != nil {
			return lastResp, getErr
		}
		lastResp = resp

		if resp.Status != previousStatus {
			tl.Log(tl.Verbose, palette.Cyan, "Response status changed: '%s'", resp.Status)
			previousStatus = resp.Status
		}
		tl.Log(tl.Verbose, palette.Cyan, "Poll #%v: status is '%s'", poll, resp.Status)

		switch resp.Status {
		case "completed", "incomplete", "":
			return resp, nil
		case "failed", "cancelled", "expired":
			msg := fmt.Sprintf("Response ended with status '%s'", resp.Status)
			tl.Log(tl.Info1, palette.Purple, "%s id is '%s'", msg, responseID)
			return resp, xerr.NewError(fmt.Errorf("%s", resp.Status), msg, resp.Error)
		}

		err := util.WaitForSecondsCtx(ctx, c.PollInterval.Seconds())
		if err != nil {
			return lastResp, xerr.NewError(err, "wait for response completion", responseID)
		}
	}
}
