package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"book-rag-be/pkg/embedding"
	"book-rag-be/pkg/rag"
)

// CohereProvider calls the Cohere embed API. The role maps directly to
// Cohere's input_type, so query and document vectors stay in one space.
type CohereProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ embedding.EmbeddingProvider = (*CohereProvider)(nil)

func NewCohereProvider(apiKey, baseURL, model string) *CohereProvider {
	if baseURL == "" {
		baseURL = "https://api.cohere.ai"
	}
	if model == "" {
		model = "embed-english-v3.0"
	}
	return &CohereProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/") + "/v1/embed",
		model:   model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type embedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Message    string      `json:"message,omitempty"`
}

func (p *CohereProvider) Generate(ctx context.Context, text string, role string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &rag.InvalidInputError{Reason: "embedding text is empty"}
	}

	reqBody := embedRequest{
		Model:     p.model,
		Texts:     []string{text},
		InputType: role,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		// A spent deadline is a timeout, not a provider outage; it must not
		// re-enter the retry loop.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &rag.TimeoutError{Stage: "embedding", Err: err}
		}
		return nil, &rag.ProviderUnavailableError{Provider: "cohere", Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &rag.ProviderRateLimitedError{
			Provider:   "cohere",
			RetryAfter: retryAfterHeader(resp),
			Err:        fmt.Errorf("cohere api error (status %d): %s", resp.StatusCode, string(bodyBytes)),
		}
	case resp.StatusCode >= 500:
		return nil, &rag.ProviderUnavailableError{
			Provider: "cohere",
			Err:      fmt.Errorf("cohere api error (status %d): %s", resp.StatusCode, string(bodyBytes)),
		}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("cohere api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var cohereResp embedResponse
	if err := json.Unmarshal(bodyBytes, &cohereResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(cohereResp.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embeddings from cohere api")
	}

	return cohereResp.Embeddings[0], nil
}

func retryAfterHeader(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
