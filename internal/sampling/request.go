// Package sampling implements the request/response bridge that delegates
// text generation back to the connected MCP client.
package sampling

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Analysis types for company-level analysis.
const (
	AnalysisComprehensive = "comprehensive"
	AnalysisValuation     = "valuation"
	AnalysisRisks         = "risks"
	AnalysisOpportunities = "opportunities"
	AnalysisComparison    = "comparison"
)

// Focus areas for market-level insights.
const (
	FocusOverallMarket      = "overall_market"
	FocusSectorAnalysis     = "sector_analysis"
	FocusEconomicIndicators = "economic_indicators"
	FocusRiskAssessment     = "risk_assessment"
)

// companyInstructions maps each company analysis type to the instruction
// appended after the embedded data.
var companyInstructions = map[string]string{
	AnalysisComprehensive: "Provide a comprehensive analysis covering financial health, valuation, growth trajectory, competitive position, and key risks.",
	AnalysisValuation:     "Assess whether the company appears overvalued, fairly valued, or undervalued. Reference the valuation multiples and fundamentals in the data.",
	AnalysisRisks:         "Identify the most significant risks facing this company: financial, operational, and market-level. Rank them by severity.",
	AnalysisOpportunities: "Identify growth opportunities and potential catalysts for this company, grounded in the data provided.",
	AnalysisComparison:    "Compare the primary company against its peers across valuation, profitability, and growth. Highlight where it leads and lags.",
}

// marketInstructions maps each market focus to its instruction.
var marketInstructions = map[string]string{
	FocusOverallMarket:      "Summarise overall market conditions: direction, breadth, and notable moves visible in the data.",
	FocusSectorAnalysis:     "Analyse the sector represented in the data: relative performance, leaders and laggards, and sector-specific dynamics.",
	FocusEconomicIndicators: "Interpret the economic signals visible in the data and what they imply for equity markets.",
	FocusRiskAssessment:     "Assess current market risk: concentration, volatility signals, and downside scenarios suggested by the data.",
}

// ValidCompanyAnalysisType reports whether t is a supported company analysis type.
func ValidCompanyAnalysisType(t string) bool {
	_, ok := companyInstructions[t]
	return ok
}

// ValidMarketFocus reports whether f is a supported market focus.
func ValidMarketFocus(f string) bool {
	_, ok := marketInstructions[f]
	return ok
}

// Dataset is one upstream JSON blob embedded into a generation request.
// A Dataset with Err set was not fetched; the builder annotates it as
// unavailable rather than aborting, because partial analysis is more
// valuable than none.
type Dataset struct {
	Label   string
	Payload json.RawMessage
	Err     error
}

// RequestOptions tune the built generation request. The zero value gets
// defaults for everything.
type RequestOptions struct {
	SystemPrompt     string
	ModelPreferences *mcp.ModelPreferences
	MaxTokens        int
	Context          string
}

// Defaults applied when the caller supplies no preferences. Hints are soft
// preferences; the client picks the actual model.
var defaultModelPreferences = mcp.ModelPreferences{
	Hints: []mcp.ModelHint{
		{Name: "claude-sonnet"},
		{Name: "gpt-4"},
	},
	IntelligencePriority: 0.8,
	SpeedPriority:        0.3,
	CostPriority:         0.3,
}

const defaultMaxTokens = 4000

// BuildCompanyRequest constructs a generation request for a company-level
// analysis. Pure construction: the datasets are embedded pretty-printed and
// verbatim, the instruction is selected by analysis type, and the system
// prompt names the analysis type so the generator stays on-topic.
func BuildCompanyRequest(ticker, analysisType string, datasets []Dataset, opts RequestOptions) (mcp.CreateMessageRequest, error) {
	if !ValidCompanyAnalysisType(analysisType) {
		return mcp.CreateMessageRequest{}, fmt.Errorf("unknown analysis type %q", analysisType)
	}

	subject := fmt.Sprintf("%s (%s analysis)", ticker, analysisType)
	persona := fmt.Sprintf(
		"You are a seasoned financial analyst producing a %s analysis of %s. Base every claim on the data provided; state clearly when data is unavailable.",
		analysisType, ticker)

	return buildRequest(subject, companyInstructions[analysisType], persona, datasets, opts)
}

// BuildMarketRequest constructs a generation request for market-level insights.
func BuildMarketRequest(focus string, datasets []Dataset, opts RequestOptions) (mcp.CreateMessageRequest, error) {
	if !ValidMarketFocus(focus) {
		return mcp.CreateMessageRequest{}, fmt.Errorf("unknown market focus %q", focus)
	}

	subject := fmt.Sprintf("market insights (%s)", focus)
	persona := fmt.Sprintf(
		"You are a seasoned market strategist producing a %s assessment. Base every claim on the data provided; state clearly when data is unavailable.",
		strings.ReplaceAll(focus, "_", " "))

	return buildRequest(subject, marketInstructions[focus], persona, datasets, opts)
}

func buildRequest(subject, instruction, defaultPersona string, datasets []Dataset, opts RequestOptions) (mcp.CreateMessageRequest, error) {
	if len(datasets) == 0 {
		return mcp.CreateMessageRequest{}, fmt.Errorf("at least one dataset is required for %s", subject)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyse the following data for %s.\n", subject))

	for _, ds := range datasets {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", ds.Label))
		if ds.Err != nil {
			sb.WriteString(fmt.Sprintf("(unavailable: %v)\n", ds.Err))
			continue
		}
		pretty, err := prettyJSON(ds.Payload)
		if err != nil {
			return mcp.CreateMessageRequest{}, fmt.Errorf("dataset %q is not valid JSON: %w", ds.Label, err)
		}
		sb.WriteString(pretty)
		sb.WriteString("\n")
	}

	if opts.Context != "" {
		sb.WriteString("\n## Additional Context\n\n")
		sb.WriteString(opts.Context)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(instruction)

	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultPersona
	}

	prefs := opts.ModelPreferences
	if prefs == nil {
		p := defaultModelPreferences
		prefs = &p
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return mcp.CreateMessageRequest{
		CreateMessageParams: mcp.CreateMessageParams{
			Messages: []mcp.SamplingMessage{
				{
					Role:    mcp.RoleUser,
					Content: mcp.TextContent{Type: "text", Text: sb.String()},
				},
			},
			SystemPrompt:     systemPrompt,
			ModelPreferences: prefs,
			MaxTokens:        maxTokens,
		},
	}, nil
}

// prettyJSON re-indents a raw JSON payload for embedding. The payload is
// passed through verbatim, only whitespace changes.
func prettyJSON(raw json.RawMessage) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(pretty), nil
}
