package main

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func getPromptRequest(args map[string]string) mcp.GetPromptRequest {
	request := mcp.GetPromptRequest{}
	request.Params.Arguments = args
	return request
}

func promptText(t *testing.T, result *mcp.GetPromptResult) string {
	t.Helper()
	if len(result.Messages) != 1 {
		t.Fatalf("Expected one prompt message, got %d", len(result.Messages))
	}
	tc, ok := result.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", result.Messages[0].Content)
	}
	return tc.Text
}

func TestHandleAnalyzeStockPrompt(t *testing.T) {
	result, err := handleAnalyzeStockPrompt(context.Background(), getPromptRequest(map[string]string{
		"ticker": "aapl",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := promptText(t, result)
	if !strings.Contains(text, "AAPL") {
		t.Error("Prompt should name the normalised ticker")
	}
	for _, tool := range []string{"get_company_facts", "get_financial_metrics_snapshot", "get_price_snapshot"} {
		if !strings.Contains(text, tool) {
			t.Errorf("Prompt should reference the %s tool", tool)
		}
	}
	if result.Messages[0].Role != mcp.RoleUser {
		t.Errorf("Expected user role, got %s", result.Messages[0].Role)
	}
}

func TestHandleAnalyzeStockPrompt_MissingTicker(t *testing.T) {
	if _, err := handleAnalyzeStockPrompt(context.Background(), getPromptRequest(nil)); err == nil {
		t.Error("Expected error for missing ticker")
	}
}

func TestHandleCompareStocksPrompt(t *testing.T) {
	result, err := handleCompareStocksPrompt(context.Background(), getPromptRequest(map[string]string{
		"tickers": "aapl, msft ,GOOG",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := promptText(t, result)
	if !strings.Contains(text, "AAPL, MSFT, GOOG") {
		t.Errorf("Prompt should list normalised tickers, got:\n%s", text)
	}
	if !strings.Contains(text, "search_line_items") {
		t.Error("Prompt should reference the search_line_items tool")
	}
}

func TestHandleCompareStocksPrompt_NeedsTwoTickers(t *testing.T) {
	for _, raw := range []string{"", "AAPL", "AAPL,,  ,"} {
		if _, err := handleCompareStocksPrompt(context.Background(), getPromptRequest(map[string]string{
			"tickers": raw,
		})); err == nil {
			t.Errorf("Expected error for tickers=%q", raw)
		}
	}
}

func TestHandleMarketOverviewPrompt(t *testing.T) {
	result, err := handleMarketOverviewPrompt(context.Background(), getPromptRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(promptText(t, result), "get_market_news") {
		t.Error("Prompt should reference the get_market_news tool")
	}
}
