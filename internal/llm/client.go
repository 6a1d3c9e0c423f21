// Package llm provides the Claude Haiku API client backing the online
// dialogue mode. The engine treats it as a pluggable response provider and
// never depends on it being reachable.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	messagesURL = "https://api.anthropic.com/v1/messages"
	apiVersion  = "2023-06-01"
	model       = "claude-haiku-4-5-20251001"

	callTimeout   = 30 * time.Second
	budgetPerMin  = 20
	budgetRefresh = time.Minute
)

// Client wraps the Anthropic Messages API for Haiku calls.
type Client struct {
	apiKey string
	http   *http.Client
	budget callBudget
}

// callBudget is a per-minute call allowance so a chatty session cannot run
// up the provider bill.
type callBudget struct {
	mu      sync.Mutex
	used    int
	resetAt time.Time
}

func (b *callBudget) take() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.After(b.resetAt) {
		b.used = 0
		b.resetAt = now.Add(budgetRefresh)
	}
	if b.used >= budgetPerMin {
		return fmt.Errorf("provider budget exhausted (%d calls/min)", budgetPerMin)
	}
	b.used++
	return nil
}

// NewClient creates a Haiku API client.
// Returns nil if apiKey is empty (online dialogue disabled).
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey: apiKey,
		http:   &http.Client{Timeout: callTimeout},
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends one user prompt to Haiku and returns the first text block.
func (c *Client) Complete(system, userPrompt string, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("haiku client not configured")
	}
	if err := c.budget.take(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(chatRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []chatMessage{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, messagesURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("messages call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("messages call status %d: %s", resp.StatusCode, body)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Content) == 0 {
		return "", fmt.Errorf("empty completion")
	}

	slog.Debug("haiku call",
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens,
	)
	return out.Content[0].Text, nil
}
