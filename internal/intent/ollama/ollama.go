// Package ollama implements intent.Classifier on top of a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"flight_bot/internal/intent"
)

// ErrMalformed is returned when the model output does not fit the schema.
var ErrMalformed = errors.New("malformed classifier output")

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Classifier asks an Ollama model to label chat messages.
type Classifier struct {
	client  HTTPClient
	baseURL string
	model   string
}

// New creates a Classifier for the server at baseURL using model.
func New(client HTTPClient, baseURL, model string) *Classifier {
	return &Classifier{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

// responseSchema constrains the model to the intent shape.
var responseSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "intent": {"type": "string", "enum": ["flight_status", "departures", "arrivals", "greeting", "unknown"]},
    "flightCode": {"type": "string"}
  },
  "required": ["intent"]
}`)

const promptTemplate = `Classify this airport chat message:

%q

Reply with JSON only, for example:
{"intent":"flight_status","flightCode":"EK509"}
{"intent":"departures"}
{"intent":"greeting"}

intents: flight_status, departures, arrivals, greeting, unknown`

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  json.RawMessage `json:"format,omitempty"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Classify sends text to the model and returns its raw label.
func (c *Classifier) Classify(ctx context.Context, text string) (intent.Classification, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  fmt.Sprintf(promptTemplate, text),
		Stream:  false,
		Format:  responseSchema,
		Options: generateOptions{Temperature: 0.1},
	})
	if err != nil {
		return intent.Classification{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return intent.Classification{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return intent.Classification{}, fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return intent.Classification{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return intent.Classification{}, fmt.Errorf("read body: %w", err)
	}

	var gen generateResponse
	if err := json.Unmarshal(raw, &gen); err != nil {
		return intent.Classification{}, fmt.Errorf("decode envelope: %w", err)
	}
	if gen.Error != "" {
		return intent.Classification{}, fmt.Errorf("ollama: %s", gen.Error)
	}

	return ParseOutput(gen.Response)
}

// ParseOutput extracts the intent object from free-form model output.
// The outermost {...} is decoded; code fences and surrounding prose are
// ignored. Fields of the wrong type yield ErrMalformed.
func ParseOutput(s string) (intent.Classification, error) {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return intent.Classification{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformed, s)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s[start:end+1]), &fields); err != nil {
		return intent.Classification{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var out intent.Classification
	rawIntent, ok := fields["intent"]
	if !ok {
		return intent.Classification{}, fmt.Errorf("%w: missing intent", ErrMalformed)
	}
	if err := json.Unmarshal(rawIntent, &out.Intent); err != nil {
		return intent.Classification{}, fmt.Errorf("%w: intent is not a string", ErrMalformed)
	}
	if rawCode, ok := fields["flightCode"]; ok && string(rawCode) != "null" {
		if err := json.Unmarshal(rawCode, &out.FlightCode); err != nil {
			return intent.Classification{}, fmt.Errorf("%w: flightCode is not a string", ErrMalformed)
		}
	}
	return out, nil
}
