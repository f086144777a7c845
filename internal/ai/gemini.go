package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/rupeelog/rupeelog/internal/domain"
)

// Gemini calls the Gemini API for every model-backed operation. The API key
// is read from the environment by the genai client.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client bound to one model name.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("ai.NewGemini: create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// ParseStatement sends the PDF to the model and decodes the transactions it
// finds.
func (g *Gemini) ParseStatement(ctx context.Context, pdfBytes []byte) (*ParsedStatement, error) {
	parts := []*genai.Part{
		{Text: statementPrompt},
		{
			InlineData: &genai.Blob{
				MIMEType: "application/pdf",
				Data:     pdfBytes,
			},
		},
	}

	raw, err := g.generate(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("ParseStatement: %w", err)
	}

	parsed, err := decodeStatementResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("ParseStatement: %w", err)
	}
	return parsed, nil
}

// SuggestCategories asks the model to assign one of the user's categories to
// each description. The returned slice is aligned with descriptions by index.
func (g *Gemini) SuggestCategories(ctx context.Context, descriptions []string, categories []domain.Category) ([]CategorySuggestion, error) {
	if len(descriptions) == 0 || len(categories) == 0 {
		return make([]CategorySuggestion, len(descriptions)), nil
	}

	parts := []*genai.Part{
		{Text: buildCategoriesPrompt(descriptions, categories)},
	}

	raw, err := g.generate(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("SuggestCategories: %w", err)
	}

	suggestions, err := decodeCategoryResponse(raw, len(descriptions), categories)
	if err != nil {
		return nil, fmt.Errorf("SuggestCategories: %w", err)
	}
	return suggestions, nil
}

// GenerateInsights asks the model for a narrative review of one month.
func (g *Gemini) GenerateInsights(ctx context.Context, in InsightInput) (*InsightReport, error) {
	parts := []*genai.Part{
		{Text: buildInsightsPrompt(in)},
	}

	raw, err := g.generate(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("GenerateInsights: %w", err)
	}

	report, err := decodeInsightResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("GenerateInsights: %w", err)
	}
	return report, nil
}

func (g *Gemini) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: parts,
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return raw, nil
}

type statementJSON struct {
	BankName     string  `json:"bank_name"`
	PeriodStart  *string `json:"period_start"`
	PeriodEnd    *string `json:"period_end"`
	Transactions []struct {
		Date        string   `json:"date"`
		Description string   `json:"description"`
		Amount      float64  `json:"amount"`
		Type        string   `json:"type"`
		Balance     *float64 `json:"balance"`
		RawText     string   `json:"raw_text"`
	} `json:"transactions"`
}

func decodeStatementResponse(raw string) (*ParsedStatement, error) {
	clean := cleanModelJSON(raw)

	var sj statementJSON
	if err := json.Unmarshal([]byte(clean), &sj); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	out := &ParsedStatement{
		BankName:    strings.TrimSpace(sj.BankName),
		PeriodStart: parseOptionalDate(sj.PeriodStart),
		PeriodEnd:   parseOptionalDate(sj.PeriodEnd),
	}
	for _, t := range sj.Transactions {
		date, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			// Skip rows the model could not date rather than failing the
			// whole statement.
			continue
		}

		typ := strings.ToLower(strings.TrimSpace(t.Type))
		if typ != "debit" && typ != "credit" {
			continue
		}

		pt := ParsedTransaction{
			Date:        date,
			Description: strings.TrimSpace(t.Description),
			Amount:      decimal.NewFromFloat(t.Amount).Abs(),
			Type:        typ,
			RawText:     strings.TrimSpace(t.RawText),
		}
		if t.Balance != nil {
			pt.Balance = decimal.NewFromFloat(*t.Balance)
			pt.HasBalance = true
		}
		out.Transactions = append(out.Transactions, pt)
	}

	return out, nil
}

func parseOptionalDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &t
}

type categoryJSON struct {
	Index      int     `json:"index"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

func decodeCategoryResponse(raw string, count int, categories []domain.Category) ([]CategorySuggestion, error) {
	clean := cleanModelJSON(raw)

	var items []categoryJSON
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	byName := make(map[string]string, len(categories))
	for _, c := range categories {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	suggestions := make([]CategorySuggestion, count)
	for _, item := range items {
		if item.Index < 0 || item.Index >= count {
			continue
		}
		id, ok := byName[strings.ToLower(strings.TrimSpace(item.Category))]
		if !ok {
			continue
		}
		conf := item.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		suggestions[item.Index] = CategorySuggestion{CategoryID: id, Confidence: conf}
	}

	return suggestions, nil
}

func decodeInsightResponse(raw string) (*InsightReport, error) {
	clean := cleanModelJSON(raw)

	var report InsightReport
	if err := json.Unmarshal([]byte(clean), &report); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w\nraw response: %s", err, raw)
	}
	if strings.TrimSpace(report.Summary) == "" {
		return nil, fmt.Errorf("model returned no summary\nraw response: %s", raw)
	}
	return &report, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk the model
// sometimes adds despite instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: keep only the outermost JSON value if there is still
	// junk around it.
	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return s
	}
	var end int
	if s[start] == '[' {
		end = strings.LastIndex(s, "]")
	} else {
		end = strings.LastIndex(s, "}")
	}
	if end > start {
		s = strings.TrimSpace(s[start : end+1])
	}

	return s
}
