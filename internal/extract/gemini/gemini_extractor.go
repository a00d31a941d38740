package gemini

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
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	providerName = "gemini"
)

// Extractor implements port.StructuredExtractor using Google's Gemini API.
type Extractor struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewExtractor creates a Gemini-based structured extractor.
func NewExtractor(cfg *config.ExtractorProviderConfig) *Extractor {
	return newExtractor(cfg, "")
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom API
// endpoint (for testing).
func NewExtractorWithEndpoint(cfg *config.ExtractorProviderConfig, endpoint string) *Extractor {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.ExtractorProviderConfig, endpoint string) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
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
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"text": prompt,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  16384,
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
	req.Header.Set("x-goog-api-key", e.apiKey)

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

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func parseResponse(body []byte, model string, input port.ExtractInput) (*port.ExtractOutput, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &extract.InvalidResponseError{
			Err: fmt.Errorf("unmarshaling response: %w", err), Provider: providerName,
		}
	}

	if resp.PromptFeedback.BlockReason != "" {
		return nil, &extract.ContentPolicyError{
			Err: fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason), Provider: providerName,
		}
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &extract.InvalidResponseError{
			Err: fmt.Errorf("empty response from API"), Provider: providerName,
		}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return nil, &extract.ContentPolicyError{
			Err: fmt.Errorf("response blocked (finishReason: SAFETY)"), Provider: providerName,
		}
	}
	if candidate.FinishReason == "MAX_TOKENS" {
		return nil, &extract.InvalidResponseError{
			Err: fmt.Errorf("output truncated (finishReason: MAX_TOKENS)"), Provider: providerName,
		}
	}

	doc := json.RawMessage(candidate.Content.Parts[0].Text)
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
