package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerPrompts exposes reusable analysis workflows as MCP prompts. Unlike
// the AI tools, prompts run on the client's side: the server only supplies
// the instructions that drive its data tools.
func registerPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("analyze_stock",
		mcp.WithPromptDescription("Guided workflow for a full analysis of one stock"),
		mcp.WithArgument("ticker",
			mcp.ArgumentDescription("Stock ticker symbol (e.g., 'AAPL')"),
			mcp.RequiredArgument(),
		),
	), handleAnalyzeStockPrompt)

	s.AddPrompt(mcp.NewPrompt("compare_stocks",
		mcp.WithPromptDescription("Guided workflow for comparing several stocks"),
		mcp.WithArgument("tickers",
			mcp.ArgumentDescription("Comma-separated ticker symbols (e.g., 'AAPL,MSFT,GOOG')"),
			mcp.RequiredArgument(),
		),
	), handleCompareStocksPrompt)

	s.AddPrompt(mcp.NewPrompt("market_overview",
		mcp.WithPromptDescription("Guided workflow for a current market overview"),
	), handleMarketOverviewPrompt)
}

func handleAnalyzeStockPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	ticker := strings.ToUpper(strings.TrimSpace(request.Params.Arguments["ticker"]))
	if ticker == "" {
		return nil, fmt.Errorf("ticker argument is required")
	}

	text := fmt.Sprintf(`Analyse %[1]s using the FinData tools:

1. get_company_facts for %[1]s — what the company is and how big it is.
2. get_financial_metrics_snapshot for %[1]s — current valuation and profitability.
3. get_income_statements for %[1]s (ttm, limit 4) — revenue and earnings trend.
4. get_price_snapshot for %[1]s — where the stock trades today.
5. get_company_news for %[1]s (limit 5) — recent developments.

Then summarise: financial health, valuation, growth trajectory, and key risks. Base every claim on the retrieved data.`, ticker)

	return mcp.NewGetPromptResult(
		fmt.Sprintf("Stock analysis workflow for %s", ticker),
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}

func handleCompareStocksPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	raw := request.Params.Arguments["tickers"]
	var tickers []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) < 2 {
		return nil, fmt.Errorf("tickers argument must name at least two tickers")
	}

	list := strings.Join(tickers, ", ")
	text := fmt.Sprintf(`Compare %s using the FinData tools:

1. get_financial_metrics_snapshot for each of: %s.
2. get_price_snapshot for each.
3. search_line_items with tickers [%s] and line_items ["revenue", "net_income"] for the growth picture.

Then build a comparison table across valuation, profitability, and growth, and conclude which looks most attractive and why.`,
		list, list, list)

	return mcp.NewGetPromptResult(
		fmt.Sprintf("Comparison workflow for %s", list),
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}

func handleMarketOverviewPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := `Build a current market overview using the FinData tools:

1. get_market_news (limit 10) — what is moving markets today.
2. get_price_snapshot for SPY and QQQ — index levels and day moves.
3. get_price_snapshot for a handful of bellwethers (AAPL, JPM, XOM, JNJ).

Then summarise market direction, the dominant narratives in the news, and any sector divergence visible in the snapshots.`

	return mcp.NewGetPromptResult(
		"Market overview workflow",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}
