package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/disease"
	"github.com/yanqian/krishi-vaani/internal/domain/recommendation"
	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

const defaultBaseURL = "http://localhost:8000"

// Client talks to the crop and disease prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a prediction client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RecommendCrop implements recommendation.Predictor.
func (c *Client) RecommendCrop(ctx context.Context, features recommendation.Features) (crop string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveUpstream("crop_predictor", started, err) }()

	payload, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("encode crop request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict_crop", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build crop request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		RecommendedCrop string `json:"recommended_crop"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("crop prediction: %w", err)
	}
	if strings.TrimSpace(out.RecommendedCrop) == "" {
		return "", errors.New("crop prediction: response has no recommended_crop")
	}
	return out.RecommendedCrop, nil
}

// Classify implements disease.Classifier. The image is sent as the "file"
// part of a multipart form.
func (c *Client) Classify(ctx context.Context, img disease.Image) (result disease.Classification, err error) {
	started := time.Now()
	defer func() { metrics.ObserveUpstream("disease_classifier", started, err) }()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	filename := img.Filename
	if filename == "" {
		filename = "image.jpg"
	}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return disease.Classification{}, fmt.Errorf("build classify form: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return disease.Classification{}, fmt.Errorf("build classify form: %w", err)
	}
	if err := form.Close(); err != nil {
		return disease.Classification{}, fmt.Errorf("build classify form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict/", &buf)
	if err != nil {
		return disease.Classification{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	if err := c.do(req, &result); err != nil {
		return disease.Classification{}, fmt.Errorf("image classification: %w", err)
	}
	return result, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(payload))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
