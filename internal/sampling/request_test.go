package sampling

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func messageText(t *testing.T, req mcp.CreateMessageRequest) string {
	t.Helper()
	if len(req.Messages) != 1 {
		t.Fatalf("Expected exactly one message, got %d", len(req.Messages))
	}
	tc, ok := req.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", req.Messages[0].Content)
	}
	return tc.Text
}

func TestBuildCompanyRequest_EmbedsDataVerbatim(t *testing.T) {
	datasets := []Dataset{
		{Label: "Company Facts", Payload: json.RawMessage(`{"name":"Apple Inc.","sector":"Technology"}`)},
		{Label: "Financial Metrics", Payload: json.RawMessage(`{"pe":25.2}`)},
	}

	req, err := BuildCompanyRequest("AAPL", AnalysisComprehensive, datasets, RequestOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := messageText(t, req)
	for _, want := range []string{
		"## Company Facts",
		`"name": "Apple Inc."`,
		"## Financial Metrics",
		`"pe": 25.2`,
		"comprehensive analysis",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Message text should contain %q\n---\n%s", want, text)
		}
	}

	if req.Messages[0].Role != mcp.RoleUser {
		t.Errorf("Expected user role, got %s", req.Messages[0].Role)
	}
}

func TestBuildCompanyRequest_SystemPromptNamesAnalysisType(t *testing.T) {
	datasets := []Dataset{{Label: "Facts", Payload: json.RawMessage(`{}`)}}

	req, err := BuildCompanyRequest("MSFT", AnalysisValuation, datasets, RequestOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(req.SystemPrompt, "valuation") {
		t.Errorf("System prompt should name the analysis type, got %q", req.SystemPrompt)
	}
	if !strings.Contains(req.SystemPrompt, "MSFT") {
		t.Errorf("System prompt should name the ticker, got %q", req.SystemPrompt)
	}
}

func TestBuildCompanyRequest_CallerSystemPromptWins(t *testing.T) {
	datasets := []Dataset{{Label: "Facts", Payload: json.RawMessage(`{}`)}}

	req, err := BuildCompanyRequest("AAPL", AnalysisRisks, datasets, RequestOptions{
		SystemPrompt: "You are a pessimist.",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if req.SystemPrompt != "You are a pessimist." {
		t.Errorf("Caller-supplied system prompt should win, got %q", req.SystemPrompt)
	}
}

func TestBuildCompanyRequest_ContextSection(t *testing.T) {
	datasets := []Dataset{{Label: "Facts", Payload: json.RawMessage(`{}`)}}

	// Empty context: no section at all, not an empty placeholder.
	req, err := BuildCompanyRequest("AAPL", AnalysisComprehensive, datasets, RequestOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.Contains(messageText(t, req), "Additional Context") {
		t.Error("Empty context must omit the Additional Context section")
	}

	// Non-empty context: section present verbatim.
	req, err = BuildCompanyRequest("AAPL", AnalysisComprehensive, datasets, RequestOptions{
		Context: "Focus on the services segment.",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text := messageText(t, req)
	if !strings.Contains(text, "## Additional Context") {
		t.Error("Non-empty context must produce an Additional Context section")
	}
	if !strings.Contains(text, "Focus on the services segment.") {
		t.Error("Context must appear verbatim")
	}
}

func TestBuildCompanyRequest_PartialDataAnnotated(t *testing.T) {
	datasets := []Dataset{
		{Label: "AAPL", Payload: json.RawMessage(`{"pe":25.2}`)},
		{Label: "MSFT", Err: errors.New("upstream returned 404")},
		{Label: "GOOG", Payload: json.RawMessage(`{"pe":22.1}`)},
	}

	req, err := BuildCompanyRequest("AAPL", AnalysisComparison, datasets, RequestOptions{})
	if err != nil {
		t.Fatalf("Partial data must not abort the build: %v", err)
	}

	text := messageText(t, req)
	if !strings.Contains(text, "(unavailable: upstream returned 404)") {
		t.Error("Failed dataset must be annotated as unavailable")
	}
	if !strings.Contains(text, `"pe": 22.1`) {
		t.Error("Remaining datasets must still be embedded")
	}
}

func TestBuildCompanyRequest_ModelPreferenceDefaults(t *testing.T) {
	datasets := []Dataset{{Label: "Facts", Payload: json.RawMessage(`{}`)}}

	req, err := BuildCompanyRequest("AAPL", AnalysisComprehensive, datasets, RequestOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	prefs := req.ModelPreferences
	if prefs == nil {
		t.Fatal("Expected defaulted model preferences")
	}
	if len(prefs.Hints) == 0 {
		t.Error("Defaulted hints list must be non-empty")
	}
	for name, p := range map[string]float64{
		"intelligence": prefs.IntelligencePriority,
		"speed":        prefs.SpeedPriority,
		"cost":         prefs.CostPriority,
	} {
		if p < 0 || p > 1 {
			t.Errorf("%s priority out of [0,1]: %f", name, p)
		}
	}
	if req.MaxTokens <= 0 {
		t.Errorf("Expected positive default max tokens, got %d", req.MaxTokens)
	}
}

func TestBuildCompanyRequest_CallerPreferencesWin(t *testing.T) {
	datasets := []Dataset{{Label: "Facts", Payload: json.RawMessage(`{}`)}}

	prefs := &mcp.ModelPreferences{
		Hints:         []mcp.ModelHint{{Name: "my-model"}},
		SpeedPriority: 1.0,
	}
	req, err := BuildCompanyRequest("AAPL", AnalysisComprehensive, datasets, RequestOptions{
		ModelPreferences: prefs,
		MaxTokens:        512,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if req.ModelPreferences.Hints[0].Name != "my-model" {
		t.Errorf("Caller preferences should win, got %+v", req.ModelPreferences)
	}
	if req.MaxTokens != 512 {
		t.Errorf("Caller max tokens should win, got %d", req.MaxTokens)
	}
}

func TestBuildCompanyRequest_InvalidAnalysisType(t *testing.T) {
	datasets := []Dataset{{Label: "Facts", Payload: json.RawMessage(`{}`)}}

	if _, err := BuildCompanyRequest("AAPL", "vibes", datasets, RequestOptions{}); err == nil {
		t.Error("Expected error for unknown analysis type")
	}
}

func TestBuildCompanyRequest_NoDatasets(t *testing.T) {
	if _, err := BuildCompanyRequest("AAPL", AnalysisComprehensive, nil, RequestOptions{}); err == nil {
		t.Error("Expected error when no datasets are supplied")
	}
}

func TestBuildMarketRequest(t *testing.T) {
	datasets := []Dataset{
		{Label: "Market News", Payload: json.RawMessage(`{"articles":[]}`)},
	}

	req, err := BuildMarketRequest(FocusSectorAnalysis, datasets, RequestOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(req.SystemPrompt, "sector analysis") {
		t.Errorf("System prompt should name the focus, got %q", req.SystemPrompt)
	}
	if !strings.Contains(messageText(t, req), "## Market News") {
		t.Error("Dataset label should appear as a heading")
	}

	if _, err := BuildMarketRequest("astrology", datasets, RequestOptions{}); err == nil {
		t.Error("Expected error for unknown focus")
	}
}

func TestBuildCompanyRequest_InvalidDatasetJSON(t *testing.T) {
	datasets := []Dataset{{Label: "Facts", Payload: json.RawMessage(`{broken`)}}

	if _, err := BuildCompanyRequest("AAPL", AnalysisComprehensive, datasets, RequestOptions{}); err == nil {
		t.Error("Expected error for invalid dataset JSON")
	}
}
