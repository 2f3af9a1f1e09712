package vision

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/resilience"
)

const maxLabels = 20

// Client calls an image labelling service that answers with scored labels.
// It carries no portion estimate, so every item is portioned locally.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Source() domain.DetectionSource {
	return domain.SourceVision
}

type labelRequest struct {
	ImageB64   string `json:"image_b64"`
	MimeType   string `json:"mime,omitempty"`
	MaxResults int    `json:"max_results"`
}

type labelResponse struct {
	Labels []struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	} `json:"labels"`
}

func (c *Client) Detect(ctx context.Context, in domain.DetectionInput) ([]domain.RawDetection, error) {
	if len(in.Image) == 0 {
		return []domain.RawDetection{}, nil
	}
	reqBody := labelRequest{
		ImageB64:   base64.StdEncoding.EncodeToString(in.Image),
		MimeType:   in.MimeType,
		MaxResults: maxLabels,
	}

	resp, err := resilience.Do(ctx, c.executor, "vision.labels", func(ctx context.Context) (labelResponse, error) {
		var out labelResponse
		if err := resilience.PostJSON(ctx, c.httpClient, "vision", "labels", c.baseURL+"/v1/labels", reqBody, &out); err != nil {
			return labelResponse{}, err
		}
		return out, nil
	}, resilience.ClassifyHTTP)
	if err != nil {
		return nil, resilience.WrapTemporaryIfNeeded("vision labels", err)
	}

	items := make([]domain.RawDetection, 0, len(resp.Labels))
	for _, label := range resp.Labels {
		name := strings.TrimSpace(label.Name)
		if name == "" {
			continue
		}
		items = append(items, domain.RawDetection{Name: name, Confidence: label.Score})
	}
	return items, nil
}
