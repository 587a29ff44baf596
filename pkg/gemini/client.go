// Package gemini asks a Gemini model for a narrative assessment of a group's
// inferred working region.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/rwTZ/pkg/analysis"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Assessment is the model's structured answer.
type Assessment struct {
	LikelyRegion    string `json:"likely_region"`
	ConfidenceLevel string `json:"confidence_level"` // "high", "medium", or "low"
	Reasoning       string `json:"reasoning"`
}

// Client represents a Gemini API client.
type Client struct {
	cache      Cache
	logger     Logger
	apiKey     string
	model      string
	gcpProject string
}

// NewClient creates a new Gemini API client. cache may be nil.
func NewClient(apiKey, model, gcpProject string, cache Cache, logger Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      strings.TrimPrefix(model, "models/"),
		gcpProject: gcpProject,
		cache:      cache,
		logger:     logger,
	}
}

// Assess returns the model's assessment of r.
func (c *Client) Assess(ctx context.Context, r *analysis.Result) (*Assessment, error) {
	prompt := Prompt(r)
	if cached := c.checkCache(prompt); cached != nil {
		return cached, nil
	}

	client, err := c.createClient(ctx)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}
	temperature := float32(0.1)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  1024,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	var resp *genai.GenerateContentResponse
	err = retry.Do(
		func() error {
			var callErr error
			resp, callErr = client.Models.GenerateContent(ctx, c.model, contents, config)
			if callErr != nil && !isTransientError(callErr) {
				return retry.Unrecoverable(callErr)
			}
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying gemini call", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("raw gemini response", "response_text", text)

	a, err := parseAssessment(text)
	if err != nil {
		c.logger.Warn("failed to parse gemini response", "error", err, "response_text", text)
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(a); err == nil {
			c.cache.Set(c.cacheKey(prompt), data, "")
		}
	}
	return a, nil
}

func (c *Client) cacheKey(prompt string) string {
	return "genai:" + c.model + ":" + prompt
}

func (c *Client) checkCache(prompt string) *Assessment {
	if c.cache == nil {
		return nil
	}
	data, _, found := c.cache.Get(c.cacheKey(prompt))
	if !found {
		return nil
	}
	var a Assessment
	if err := json.Unmarshal(data, &a); err != nil || a.LikelyRegion == "" {
		c.logger.Debug("ignoring unusable cached gemini response", "error", err)
		return nil
	}
	c.logger.Debug("gemini cache hit", "region", a.LikelyRegion)
	return &a
}

func (c *Client) createClient(ctx context.Context) (*genai.Client, error) {
	var config *genai.ClientConfig
	if c.apiKey != "" {
		config = &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  c.apiKey,
		}
		c.logger.Debug("using Gemini API with API key")
	} else {
		project := c.projectID()
		if project == "" {
			return nil, errors.New("gemini: no API key or GCP project configured")
		}
		config = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  project,
			Location: "us-central1",
		}
		c.logger.Debug("using Vertex AI with Application Default Credentials", "project", project)
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

func (c *Client) projectID() string {
	if c.gcpProject != "" {
		return c.gcpProject
	}
	if p := os.Getenv("GCP_PROJECT"); p != "" {
		return p
	}
	return os.Getenv("GOOGLE_CLOUD_PROJECT")
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"likely_region": {
				Type:        genai.TypeString,
				Description: "The most likely country or region the operators work from (e.g., 'Russia', 'Eastern Europe', 'Iran')",
			},
			"confidence_level": {
				Type:        genai.TypeString,
				Enum:        []string{"high", "medium", "low"},
				Description: "Confidence in the assessment: high (strong evidence), medium (reasonable evidence), low (weak evidence)",
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "One or two sentences citing the evidence behind the assessment",
			},
		},
		PropertyOrdering: []string{"likely_region", "confidence_level", "reasoning"},
		Required:         []string{"likely_region", "confidence_level", "reasoning"},
	}
}

func isTransientError(err error) bool {
	s := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"rate limit", "quota", "timeout", "deadline", "unavailable",
		"internal server error", "502", "503", "504",
	} {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from Gemini API")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in Gemini response")
	}
	text := candidate.Content.Parts[0].Text
	if text == "" {
		return "", errors.New("empty text in Gemini response")
	}
	return text, nil
}

// parseAssessment decodes text, falling back to the first JSON object found
// inside code fences or prose.
func parseAssessment(text string) (*Assessment, error) {
	var a Assessment
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		jsonText, extractErr := extractJSON(text)
		if extractErr != nil {
			return nil, fmt.Errorf("failed to parse Gemini JSON response: %w", err)
		}
		if err := json.Unmarshal([]byte(jsonText), &a); err != nil {
			return nil, fmt.Errorf("failed to parse extracted JSON: %w", err)
		}
	}

	a.LikelyRegion = clean(a.LikelyRegion)
	a.ConfidenceLevel = strings.ToLower(clean(a.ConfidenceLevel))
	a.Reasoning = clean(a.Reasoning)
	if a.LikelyRegion == "" {
		return nil, errors.New("gemini response missing likely_region")
	}
	switch a.ConfidenceLevel {
	case "high", "medium", "low":
	default:
		a.ConfidenceLevel = "low"
	}
	return &a, nil
}

func extractJSON(text string) (string, error) {
	if isValidJSON(text) {
		return text, nil
	}
	for _, fence := range []string{"```json", "```"} {
		if start := strings.Index(text, fence); start != -1 {
			start += len(fence)
			if end := strings.Index(text[start:], "```"); end != -1 {
				jsonText := strings.TrimSpace(text[start : start+end])
				if isValidJSON(jsonText) {
					return jsonText, nil
				}
			}
		}
	}
	if start := strings.Index(text, "{"); start != -1 {
		if end := strings.LastIndex(text, "}"); end > start {
			jsonText := strings.TrimSpace(text[start : end+1])
			if isValidJSON(jsonText) {
				return jsonText, nil
			}
		}
	}
	return "", errors.New("no valid JSON found in response")
}

func isValidJSON(s string) bool {
	var js map[string]any
	return json.Unmarshal([]byte(s), &js) == nil
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
