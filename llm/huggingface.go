package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultHFBaseURL = "https://router.huggingface.co/hf-inference"

// huggingFaceClient calls the hosted text-generation task of a pretrained
// model. The service returns the prompt followed by the continuation.
type huggingFaceClient struct {
	baseURL string
	token   string
	model   string
	client  *http.Client
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

func NewHuggingFaceClient(opts Options) Client {
	baseURL := strings.TrimRight(opts.HFBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}

	return &huggingFaceClient{
		baseURL: baseURL,
		token:   opts.HFToken,
		model:   opts.Model,
		client:  &http.Client{},
	}
}

func (c *huggingFaceClient) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   params.MaxNewTokens,
			Temperature:    params.Temperature,
			ReturnFullText: true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal huggingface request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create huggingface request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call huggingface inference API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read huggingface response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr hfError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("huggingface inference API error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("huggingface inference API returned status %s", resp.Status)
	}

	var generations []hfGeneration
	if err := json.Unmarshal(data, &generations); err != nil {
		return "", fmt.Errorf("decode huggingface response: %w", err)
	}

	if len(generations) == 0 {
		return "", fmt.Errorf("huggingface inference API returned no generations")
	}

	return generations[0].GeneratedText, nil
}
