package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Extraction is one extracted payload with per-field confidence scores.
type Extraction struct {
	Data        map[string]any
	Confidences map[string]float64
}

// Extractor produces structured brand intelligence from crawled content.
type Extractor interface {
	ExtractBrandIdentity(ctx context.Context, crawl *CrawlResult) (*Extraction, error)
	IdentifyCompetitors(ctx context.Context, crawl *CrawlResult) (*Extraction, error)
	CategorizeProducts(ctx context.Context, crawl *CrawlResult) (*Extraction, error)
}

// maxContentChars caps how much crawled content goes into a prompt.
const maxContentChars = 12000

// LLMExtractor extracts brand intelligence with a language model.
type LLMExtractor struct {
	model llms.Model
}

// NewLLMExtractor wraps a model as an extractor.
func NewLLMExtractor(model llms.Model) *LLMExtractor {
	return &LLMExtractor{model: model}
}

// ExtractBrandIdentity extracts mission, vision, values and positioning.
func (e *LLMExtractor) ExtractBrandIdentity(ctx context.Context, crawl *CrawlResult) (*Extraction, error) {
	return e.extract(ctx, identityPromptTemplate, crawl)
}

// IdentifyCompetitors suggests likely competitors for the brand.
func (e *LLMExtractor) IdentifyCompetitors(ctx context.Context, crawl *CrawlResult) (*Extraction, error) {
	return e.extract(ctx, competitorsPromptTemplate, crawl)
}

// CategorizeProducts groups the brand's offering into categories.
func (e *LLMExtractor) CategorizeProducts(ctx context.Context, crawl *CrawlResult) (*Extraction, error) {
	return e.extract(ctx, productsPromptTemplate, crawl)
}

func (e *LLMExtractor) extract(ctx context.Context, template string, crawl *CrawlResult) (*Extraction, error) {
	content := crawl.Markdown
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, extractionSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(template, crawl.Domain(), content)),
	}

	response, err := e.model.GenerateContent(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate extraction: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	return parseExtraction(response.Choices[0].Content)
}

// parseExtraction decodes an LLM reply into data + confidence scores.
// Models often wrap JSON in markdown fences; those are stripped first.
func parseExtraction(raw string) (*Extraction, error) {
	cleaned := cleanJSONResponse(raw)

	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("parse extraction JSON: %w", err)
	}

	confidences := make(map[string]float64)
	if rawScores, ok := payload["confidenceScores"].(map[string]any); ok {
		for field, v := range rawScores {
			if score, ok := v.(float64); ok {
				confidences[field] = score
			}
		}
		delete(payload, "confidenceScores")
	}

	return &Extraction{Data: payload, Confidences: confidences}, nil
}

// cleanJSONResponse strips markdown code fences and surrounding noise.
func cleanJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}
	// Some models prepend prose; keep from the first brace.
	if idx := strings.Index(s, "{"); idx > 0 {
		s = s[idx:]
	}
	return s
}

// MockExtractor returns canned extractions for development and tests.
// Identity confidence is deliberately below the default threshold so the
// review flow is exercised end to end.
type MockExtractor struct{}

// ExtractBrandIdentity returns a low-confidence identity payload.
func (MockExtractor) ExtractBrandIdentity(_ context.Context, crawl *CrawlResult) (*Extraction, error) {
	return &Extraction{
		Data: map[string]any{
			"mission":               "Get more people outside with gear that lasts",
			"vision":                "A world where quality gear is the default",
			"coreValues":            []any{"durability", "sustainability"},
			"targetAudienceSummary": "Serious hikers and outdoor enthusiasts",
			"industryVertical":      "outdoor equipment",
		},
		Confidences: map[string]float64{
			"mission":               0.75,
			"vision":                0.82,
			"coreValues":            0.9,
			"targetAudienceSummary": 0.88,
			"industryVertical":      0.95,
			"overall":               0.75,
		},
	}, nil
}

// IdentifyCompetitors returns a confident competitor list.
func (MockExtractor) IdentifyCompetitors(_ context.Context, _ *CrawlResult) (*Extraction, error) {
	return &Extraction{
		Data: map[string]any{
			"competitors": []any{
				map[string]any{"name": "TrailForge", "competitionType": "direct"},
				map[string]any{"name": "SummitWorks", "competitionType": "indirect"},
			},
		},
		Confidences: map[string]float64{"competitors": 0.9, "overall": 0.9},
	}, nil
}

// CategorizeProducts returns a confident product list.
func (MockExtractor) CategorizeProducts(_ context.Context, _ *CrawlResult) (*Extraction, error) {
	return &Extraction{
		Data: map[string]any{
			"products": []any{
				map[string]any{"name": "Packs", "targetMarket": "thru-hikers"},
				map[string]any{"name": "Shelters", "targetMarket": "backpackers"},
			},
		},
		Confidences: map[string]float64{"products": 0.92, "overall": 0.92},
	}, nil
}
