// Package gemini implements narrative.Analyzer on the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/narrative"
)

const defaultModel = "gemini-2.5-flash"

// Analyzer calls the Gemini API and parses its JSON responses into
// narrative structures.
type Analyzer struct {
	client *genai.Client
	model  string
}

var _ narrative.Analyzer = (*Analyzer)(nil)

// Options configures the Gemini analyzer.
type Options struct {
	// APIKey authorizes Gemini API calls. Required.
	APIKey string
	// Model overrides the default model name.
	Model string
}

// New creates a Gemini-backed analyzer. Close must be called when done.
func New(ctx context.Context, opts Options) (*Analyzer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Analyzer{client: client, model: opts.Model}, nil
}

func (a *Analyzer) Close() error {
	return a.client.Close()
}

// AnalyzeForecast asks Gemini for business insights on one forecast.
func (a *Analyzer) AnalyzeForecast(ctx context.Context, result *domain.ForecastResult, summary domain.ForecastSummary) (*narrative.ForecastInsights, error) {
	jsonFormat := `{"key_trends":["string",...],"business_recommendations":["string",...],"risk_factors":["string",...],"opportunities":["string",...],"confidence_score":number}`

	prompt := fmt.Sprintf(`You are an expert dairy industry analyst with deep knowledge of market trends,
consumer behavior, and business operations.

Analyze this demand forecast and provide actionable business insights:

- Company: %s
- Product: %s
- Horizon: %d days
- Total forecast demand: %.1f units
- Average daily demand: %.1f units (min %.1f, max %.1f)
- Trend over the horizon: %s
- Interval totals at %.0f%% confidence: %.1f to %.1f units

Please cover:
1. Key trends and patterns you observe
2. Business recommendations for production planning
3. Risk factors and potential challenges
4. Growth opportunities and market insights
5. Overall confidence assessment of the forecast (0 to 1)

You must respond with a single minified JSON object with this exact structure,
with no markdown formatting or explanatory text around it:

%s`,
		result.Company, result.Product, result.HorizonDays,
		summary.TotalDemand, summary.AvgDailyDemand, summary.MinDailyDemand, summary.MaxDailyDemand,
		summary.Trend, result.Confidence*100, summary.LowerTotal, summary.UpperTotal,
		jsonFormat)

	var insights narrative.ForecastInsights
	if err := a.generateJSON(ctx, prompt, &insights); err != nil {
		return nil, err
	}
	return &insights, nil
}

// AnalyzeComparison asks Gemini for strategic insights on a multi-company
// comparison.
func (a *Analyzer) AnalyzeComparison(ctx context.Context, report *domain.ComparisonReport) (*narrative.CompetitiveAnalysis, error) {
	var rows strings.Builder
	for _, c := range report.Companies {
		fmt.Fprintf(&rows, "- Rank %d: %s, forecast total %.1f units", c.Rank, c.Company, c.ForecastTotal)
		if c.MarketSharePct != nil {
			fmt.Fprintf(&rows, ", market share %.1f%%", *c.MarketSharePct)
		}
		if c.GrowthRatePct != nil {
			fmt.Fprintf(&rows, ", growth %.1f%%", *c.GrowthRatePct)
		}
		rows.WriteString("\n")
	}

	jsonFormat := `{"market_leader":"string","growth_opportunities":["string",...],"pricing_insights":["string",...],"strategic_recommendations":["string",...]}`

	prompt := fmt.Sprintf(`You are a strategic business analyst specializing in the dairy industry.
Analyze competitive positioning and provide strategic recommendations for market leadership.

Competitive forecast data for product %s over a %d-day horizon:
%s
Please cover:
1. Market leadership analysis and positioning
2. Growth opportunities for each company
3. Pricing strategy insights and recommendations
4. Strategic recommendations for competitive advantage

You must respond with a single minified JSON object with this exact structure,
with no markdown formatting or explanatory text around it:

%s`, report.Product, report.HorizonDays, rows.String(), jsonFormat)

	var analysis narrative.CompetitiveAnalysis
	if err := a.generateJSON(ctx, prompt, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (a *Analyzer) generateJSON(ctx context.Context, prompt string, out any) error {
	model := a.client.GenerativeModel(a.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("gemini generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return err
	}
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return fmt.Errorf("no JSON object in gemini response")
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content in gemini response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content in gemini response")
	}
	return b.String(), nil
}

// extractJSON trims anything surrounding the outermost JSON object, such
// as markdown fences the model sometimes adds despite instructions.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}
