package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rulebook/internal/config"
	"rulebook/internal/extract"
	"rulebook/internal/port"
)

const (
	apiURL       = "https://api.openai.com/v1/chat/completions"
	providerName = "openai"
)

// Extractor implements port.StructuredExtractor using the OpenAI Chat
// Completions API with JSON response format.
type Extractor struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewExtractor creates an OpenAI-based structured extractor from a provider
// config.
func NewExtractor(cfg *config.ExtractorProviderConfig) *Extractor {
	return newExtractor(cfg, apiURL)
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom API
// endpoint (for testing).
func NewExtractorWithEndpoint(cfg *config.ExtractorProviderConfig, endpoint string) *Extractor {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.ExtractorProviderConfig, endpoint string) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = "gpt-4o"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Extractor{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	prompt := extract.BuildPrompt(input)

	reqBody := map[string]interface{}{
		"model":                 e.model,
		"max_completion_tokens": 16384,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, extract.ClassifyTransportError(providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, extract.ClassifyHTTPError(providerName, resp.StatusCode, resp.Header.Get("Retry-After"), respBody)
	}

	return parseResponse(respBody, e.model, input)
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte, model string, input port.ExtractInput) (*port.ExtractOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &extract.InvalidResponseError{
			Err: fmt.Errorf("unmarshaling response: %w", err), Provider: providerName,
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &extract.InvalidResponseError{
			Err: fmt.Errorf("empty response from API: no choices"), Provider: providerName,
		}
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" || choice.FinishReason == "content_filter" {
		return nil, &extract.ContentPolicyError{
			Err: fmt.Errorf("request refused: %s", choice.Message.Refusal), Provider: providerName,
		}
	}
	if choice.FinishReason == "length" {
		return nil, &extract.InvalidResponseError{
			Err: fmt.Errorf("output truncated (finish_reason: length)"), Provider: providerName,
		}
	}

	doc := json.RawMessage(choice.Message.Content)
	if err := extract.Validate(input.Schema, doc, input.Strict); err != nil {
		return nil, &extract.InvalidResponseError{
			Err: fmt.Errorf("validating against %s schema: %w", input.Schema.Name, err), Provider: providerName,
		}
	}

	return &port.ExtractOutput{
		Document:  doc,
		ModelUsed: model,
	}, nil
}
