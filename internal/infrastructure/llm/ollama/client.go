package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// generateJSON asks the model for a JSON answer. Images are sent base64
// encoded, as /api/generate expects.
func (c *Client) generateJSON(ctx context.Context, prompt string, images []string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	if len(images) > 0 {
		reqBody["images"] = images
	}

	raw, err := resilience.Do(ctx, c.executor, "ollama.generate", func(ctx context.Context) (string, error) {
		var response struct {
			Response string `json:"response"`
		}
		if err := resilience.PostJSON(ctx, c.httpClient, "ollama", "generate", c.baseURL+"/api/generate", reqBody, &response); err != nil {
			return "", err
		}
		return strings.TrimSpace(response.Response), nil
	}, resilience.ClassifyHTTP)
	if err != nil {
		return "", resilience.WrapTemporaryIfNeeded("ollama generate", err)
	}
	return raw, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
