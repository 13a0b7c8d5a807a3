package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
)

// Ensure OllamaGeneration implements GenerationService
var _ driven.GenerationService = (*OllamaGeneration)(nil)

// OllamaGeneration implements GenerationService against a local or
// remote Ollama server.
type OllamaGeneration struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaGeneration creates a new Ollama generation service
func NewOllamaGeneration(baseURL, model string) (driven.GenerationService, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}

	return &OllamaGeneration{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}, nil
}

// generateRequest is the request body for the Ollama generate API
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict    int     `json:"num_predict,omitempty"`
	Temperature   float32 `json:"temperature"`
	RepeatPenalty float32 `json:"repeat_penalty,omitempty"`
}

// generateResponse is the response from the Ollama generate API
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate produces a completion for the prompt
func (g *OllamaGeneration) Generate(ctx context.Context, prompt string, params driven.DecodingParams) (string, error) {
	reqBody := generateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			NumPredict:    params.MaxNewTokens,
			Temperature:   params.Temperature,
			RepeatPenalty: params.RepetitionPenalty,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("Ollama API error: %s", genResp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama API returned status %d", resp.StatusCode)
	}

	return genResp.Response, nil
}

// Model returns the model name being used
func (g *OllamaGeneration) Model() string {
	return g.model
}

// Ping verifies the Ollama server is reachable
func (g *OllamaGeneration) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama server returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources held by the generation service
func (g *OllamaGeneration) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
