package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

const promptTemplate = `You review job postings for inclusive language toward neurodivergent
and disabled candidates. Assess the posting below and respond with ONLY a JSON
object of the form {"score": <0-100 integer>, "issues": [<strings>]}.
Higher scores mean more inclusive. List each concrete problem as one issue.

Posting:
{{POSTING_JSON}}

JSON Response:`

// GeminiClassifier scores postings with the Gemini API.
type GeminiClassifier struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiClassifier, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &GeminiClassifier{client: client, modelName: model, logger: logger}, nil
}

func (g *GeminiClassifier) Classify(ctx context.Context, p Posting) (Verdict, error) {
	payload, err := json.MarshalIndent(map[string]any{
		"title":          p.Title,
		"description":    p.Description,
		"accommodations": p.Accommodations,
	}, "", "  ")
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal posting payload: %w", err)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{POSTING_JSON}}", string(payload))

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), nil)
	if err != nil {
		return Verdict{}, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	g.logger.Debug("gemini classifier response", zap.String("title", p.Title), zap.Int("response_length", len(raw)))

	v, err := parseVerdict(raw)
	if err != nil {
		return Verdict{}, err
	}
	return v, nil
}

func parseVerdict(raw string) (Verdict, error) {
	cleaned := extractJSON(strings.TrimSpace(raw))

	var data struct {
		Score  float64  `json:"score"`
		Issues []string `json:"issues"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return Verdict{}, fmt.Errorf("parse gemini response: %w", err)
	}

	score := int(data.Score)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return Verdict{Score: score, Issues: data.Issues}, nil
}

// extractJSON strips markdown code fences the model sometimes wraps around
// its response and returns the first top-level JSON object.
func extractJSON(raw string) string {
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
