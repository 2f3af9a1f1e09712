package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

// Detector asks a multimodal model which foods are in a photo or a meal
// description.
type Detector struct {
	client *Client
}

func NewDetector(client *Client) *Detector {
	return &Detector{client: client}
}

func (d *Detector) Source() domain.DetectionSource {
	return domain.SourceGPT
}

func (d *Detector) Detect(ctx context.Context, in domain.DetectionInput) ([]domain.RawDetection, error) {
	var images []string
	if len(in.Image) > 0 {
		images = []string{base64.StdEncoding.EncodeToString(in.Image)}
	}

	raw, err := d.client.generateJSON(ctx, buildDetectionPrompt(strings.TrimSpace(in.Text), len(images) > 0), images)
	if err != nil {
		return nil, err
	}

	var result struct {
		Items []domain.RawDetection `json:"items"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &result); err != nil {
		return nil, fmt.Errorf("parse detection json: %w", err)
	}
	return result.Items, nil
}
