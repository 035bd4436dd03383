package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultGenerateURL = "https://api.stability.ai/v1/generation/stable-diffusion-v1-5/text-to-image"

// ImageGenerator renders prompt text into mood board imagery.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, samples int) ([]string, error)
}

// AIClient talks to a Stability-compatible text-to-image API.
type AIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAIClient(baseURL, apiKey string) *AIClient {
	if baseURL == "" {
		baseURL = defaultGenerateURL
	}
	return &AIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Generate renders the prompt and returns one data URI per sample.
func (c *AIClient) Generate(ctx context.Context, prompt string, samples int) ([]string, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("no ai image api key configured")
	}
	if samples <= 0 {
		samples = 1
	}

	payload := struct {
		TextPrompts []textPrompt `json:"text_prompts"`
		CfgScale    int          `json:"cfg_scale"`
		Samples     int          `json:"samples"`
	}{
		TextPrompts: []textPrompt{{Text: prompt}},
		CfgScale:    7,
		Samples:     samples,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("image generation: status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Artifacts []struct {
			Base64 string `json:"base64"`
		} `json:"artifacts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode generation results: %w", err)
	}

	var images []string
	for _, a := range result.Artifacts {
		if a.Base64 != "" {
			images = append(images, "data:image/png;base64,"+a.Base64)
		}
	}
	return images, nil
}

type textPrompt struct {
	Text string `json:"text"`
}
