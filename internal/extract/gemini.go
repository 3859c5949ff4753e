package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// Extractor is the external text-extraction collaborator, consumed as a black
// box returning a structured triple for one description.
type Extractor interface {
	ExtractUnit(ctx context.Context, description string) (UnitExtraction, error)
}

// extractionPrompt is the fixed instruction template sent with each item
// description. The composite-quantity policy lives here: multiplicative
// phrasing is resolved by the model into a single combined unit/quantity
// (3X4PCT means 12 PCT, 2CX DE 6UND means 12 UND).
const extractionPrompt = `Extraia as seguintes informações da descrição do produto abaixo:

Descrição: %s

Retorne um JSON com os campos:
{
  "unit": "<unidade extraída, ex: KG, G, CX, PCT>",
  "quantity": <quantidade total do produto, como número>,
  "confidence": <confiança da extração, de 0 a 1>
}
Atenção:
1. A descrição pode conter erros de digitação; mesmo assim tente extrair a unidade quando estiver definida, caso contrário retorne 'Desconhecido'.
2. Identifique quando a quantidade é composta e multiplique. Exemplos: 3X4PCT -> quantity 12, unit PCT; 5CX -> quantity 5, unit CX; 2CX DE 6UND -> quantity 12, unit UND.
3. Retorne SOMENTE o JSON, sem cercas de código Markdown; a resposta deve começar com "{" e terminar com "}".`

// GeminiExtractor calls Gemini for unit/quantity extraction.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates the client once; the batch runner reuses it for
// every dispatched description.
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

func (g *GeminiExtractor) ExtractUnit(ctx context.Context, description string) (UnitExtraction, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fmt.Sprintf(extractionPrompt, description)},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return UnitExtraction{}, fmt.Errorf("ExtractUnit: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return UnitExtraction{}, fmt.Errorf("ExtractUnit: empty response from model")
	}

	clean := cleanModelJSON(rawText)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return UnitExtraction{}, fmt.Errorf("ExtractUnit: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	return decodeExtraction(parsed), nil
}

// decodeExtraction coerces the model's loose JSON into a triple. Coercion
// failures on quantity/confidence degrade to null/0.0 rather than propagating.
func decodeExtraction(obj map[string]any) UnitExtraction {
	var e UnitExtraction

	if v, ok := obj["unit"]; ok && v != nil {
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				e.Unit = &s
			}
		}
	}
	e.Quantity = coerceFloat(obj["quantity"])
	if c := coerceFloat(obj["confidence"]); c != nil {
		e.Confidence = *c
	}
	return e
}

func coerceFloat(v any) *float64 {
	switch val := v.(type) {
	case float64:
		f := val
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return &f
		}
		return nil
	default:
		return nil
	}
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the no-fences instruction, keeping the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
