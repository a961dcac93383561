package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/p57/feedback-hub/config"
)

// Sentiment labels stored on tickets
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

const maxAITags = 8

// TicketAnalysisInput is the text the analyzer sees
type TicketAnalysisInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ClientMood  string         `json:"client_mood,omitempty"`
	Category    string         `json:"category,omitempty"`
	FormData    map[string]any `json:"form_data,omitempty"`
}

// TicketAnalysis is the analyzer verdict
type TicketAnalysis struct {
	Tags      []string `json:"tags"`
	Sentiment string   `json:"sentiment"`
}

// TicketAnalyzer derives tags and sentiment from ticket text
type TicketAnalyzer interface {
	Analyze(ctx context.Context, in TicketAnalysisInput) (*TicketAnalysis, error)
}

// HTTPTicketAnalyzer calls an external analysis endpoint
type HTTPTicketAnalyzer struct {
	config *config.AIConfig
	client *http.Client
}

type analyzeRequest struct {
	Model string              `json:"model,omitempty"`
	Input TicketAnalysisInput `json:"input"`
}

// NewHTTPTicketAnalyzer creates an analyzer client
func NewHTTPTicketAnalyzer(cfg *config.AIConfig) TicketAnalyzer {
	return &HTTPTicketAnalyzer{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Analyze posts the ticket text and normalizes the response
func (a *HTTPTicketAnalyzer) Analyze(ctx context.Context, in TicketAnalysisInput) (*TicketAnalysis, error) {
	body, err := json.Marshal(analyzeRequest{Model: a.config.Model, Input: in})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	url := strings.TrimRight(a.config.BaseURL, "/") + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call analyzer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("analyzer returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out TicketAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return NormalizeAnalysis(out), nil
}

// NormalizeAnalysis lowercases and dedups tags, caps their number and maps
// unknown sentiment labels to neutral
func NormalizeAnalysis(in TicketAnalysis) *TicketAnalysis {
	seen := make(map[string]struct{}, len(in.Tags))
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
		if len(tags) == maxAITags {
			break
		}
	}

	sentiment := strings.ToLower(strings.TrimSpace(in.Sentiment))
	switch sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
	default:
		sentiment = SentimentNeutral
	}
	return &TicketAnalysis{Tags: tags, Sentiment: sentiment}
}

// NoopTicketAnalyzer returns no analysis
type NoopTicketAnalyzer struct{}

func NewNoopTicketAnalyzer() TicketAnalyzer { return NoopTicketAnalyzer{} }

func (NoopTicketAnalyzer) Analyze(context.Context, TicketAnalysisInput) (*TicketAnalysis, error) {
	return nil, nil
}
