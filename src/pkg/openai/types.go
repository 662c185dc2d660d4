package openai

// InputParameters are the caller-controlled parts of a Responses API request.
// Store and Background are always set by SendPrompt.
type InputParameters struct {
	Model              string       `json:"model"`
	Instructions       string       `json:"instructions"`
	MaxOutputTokens    *int         `json:"max_output_tokens,omitempty"`
	Input              []InputItem  `json:"input"`
	PreviousResponseID string       `json:"previous_response_id,omitempty"`
	Reasoning          *Reasoning   `json:"reasoning,omitempty"`
	Temperature        *float64     `json:"temperature,omitempty"` // GPT-5 family only accepts 1.0
	Text               *TextOptions `json:"text,omitempty"`
}

// InputItem is one message, e.g. {"role":"user","content":"..."}. Content is a
// string or a list of content parts (input_text, input_image).
type InputItem struct {
	Role    InputRole `json:"role"`
	Content any       `json:"content"`
}

// InputText and InputImage are the content parts of a multimodal user message.
func InputText(text string) map[string]any {
	return map[string]any{"type": "input_text", "text": text}
}

func InputImage(dataURL string) map[string]any {
	return map[string]any{"type": "input_image", "image_url": dataURL}
}

type requestPayload struct {
	Model              string       `json:"model"`
	Instructions       string       `json:"instructions"`
	MaxOutputTokens    *int         `json:"max_output_tokens,omitempty"`
	Input              []InputItem  `json:"input"`
	PreviousResponseID string       `json:"previous_response_id,omitempty"`
	Reasoning          *Reasoning   `json:"reasoning,omitempty"`
	Store              bool         `json:"store,omitempty"`
	Temperature        *float64     `json:"temperature,omitempty"`
	Background         bool         `json:"background,omitempty"`
	Text               *TextOptions `json:"text,omitempty"`
}

// responseObject is the subset of the Responses API object we read.
type responseObject struct {
	ID                 string       `json:"id"`
	Object             string       `json:"object"`
	CreatedAt          int64        `json:"created_at,omitempty"`
	Background         bool         `json:"background,omitempty"`
	Model              string       `json:"model"`
	Status             string       `json:"status"` // "completed", "in_progress", "failed", ...
	Output             []outputItem `json:"output"`
	Usage              *usageBlock  `json:"usage,omitempty"`
	PreviousResponseID string       `json:"previous_response_id,omitempty"`
	Error              any          `json:"error,omitempty"`

	Temperature float64    `json:"temperature,omitempty"`
	Reasoning   *Reasoning `json:"reasoning,omitempty"`
}

type outputItem struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"` // "message", "reasoning", tool events
	Role    string        `json:"role,omitempty"`
	Content []contentItem `json:"content,omitempty"`
}

type contentItem struct {
	Type string `json:"type"` // "output_text", "refusal"
	Text string `json:"text,omitempty"`
}

type usageBlock struct {
	InputTokens         int                  `json:"input_tokens"`
	InputTokensDetails  *inputTokensDetails  `json:"input_tokens_details"`
	OutputTokens        int                  `json:"output_tokens"`
	TotalTokens         int                  `json:"total_tokens"`
	OutputTokensDetails *outputTokensDetails `json:"output_tokens_details,omitempty"`
}

type inputTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

type outputTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

type Reasoning struct {
	Effort *Effort `json:"effort,omitempty"`
}

// RunMetadata captures how a response was generated. It is stored next to the
// structured receipt for auditing and cost tracking.
type RunMetadata struct {
	ResponseID      string `json:"response_id"`
	ResponseLogsUrl string `json:"response_logs_url"` // https://platform.openai.com/logs/<ResponseID>
	Model           string `json:"model"`             // e.g. "gpt-5-mini"
	ModelSnapshot   string `json:"model_snapshot"`    // e.g. "2025-08-07" when present
	Status          string `json:"status"`
	ReasoningEffort Effort `json:"reasoning_effort"`

	Temperature float64 `json:"temperature"`

	TokensIn        int `json:"tokens_in"`
	TokensCached    int `json:"tokens_cached"`
	TokensOut       int `json:"tokens_out"`
	TokensReasoning int `json:"tokens_reasoning"`
	TokensTotal     int `json:"tokens_total"`

	StartedAt  int64 `json:"started_at"`  // unix ms
	FinishedAt int64 `json:"finished_at"` // unix ms
	Elapsed    int64 `json:"elapsed"`     // ms
}
