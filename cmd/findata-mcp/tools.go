package main

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/findata-mcp/internal/common"
	"github.com/bobmcallan/findata-mcp/internal/upstream"
)

// registerTools registers all MCP tools on the server, wiring each to a
// handler that calls the Financial Datasets REST API.
func registerTools(s *server.MCPServer, c *upstream.Client, logger *common.Logger, a *Analyzer) {
	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createGetDiagnosticsTool(), handleGetDiagnostics(logger))

	// Company fundamentals
	s.AddTool(createGetCompanyFactsTool(), handleGetCompanyFacts(c, logger))
	s.AddTool(createGetIncomeStatementsTool(), handleGetIncomeStatements(c, logger))
	s.AddTool(createGetBalanceSheetsTool(), handleGetBalanceSheets(c, logger))
	s.AddTool(createGetCashFlowStatementsTool(), handleGetCashFlowStatements(c, logger))
	s.AddTool(createGetAllFinancialStatementsTool(), handleGetAllFinancialStatements(c, logger))
	s.AddTool(createGetFinancialMetricsTool(), handleGetFinancialMetrics(c, logger))
	s.AddTool(createGetFinancialMetricsSnapshotTool(), handleGetFinancialMetricsSnapshot(c, logger))
	s.AddTool(createSearchLineItemsTool(), handleSearchLineItems(c, logger))
	s.AddTool(createGetSegmentedRevenuesTool(), handleGetSegmentedRevenues(c, logger))

	// Prices
	s.AddTool(createGetPriceSnapshotTool(), handleGetPriceSnapshot(c, logger))
	s.AddTool(createGetHistoricalPricesTool(), handleGetHistoricalPrices(c, logger))

	// Ownership and filings
	s.AddTool(createGetInsiderTradesTool(), handleGetInsiderTrades(c, logger))
	s.AddTool(createGetInstitutionalOwnershipTool(), handleGetInstitutionalOwnership(c, logger))
	s.AddTool(createGetSECFilingsTool(), handleGetSECFilings(c, logger))
	s.AddTool(createGetSECFilingItemsTool(), handleGetSECFilingItems(c, logger))
	s.AddTool(createGetEarningsPressReleasesTool(), handleGetEarningsPressReleases(c, logger))

	// News
	s.AddTool(createGetCompanyNewsTool(), handleGetCompanyNews(c, logger))
	s.AddTool(createGetMarketNewsTool(), handleGetMarketNews(c, logger))

	// Crypto
	s.AddTool(createGetCryptoSnapshotTool(), handleGetCryptoSnapshot(c, logger))
	s.AddTool(createGetHistoricalCryptoPricesTool(), handleGetHistoricalCryptoPrices(c, logger))

	// Catalogs
	s.AddTool(createGetAvailableTickersTool(), handleGetAvailableTickers(c, logger))
	s.AddTool(createGetAvailableCryptoTickersTool(), handleGetAvailableCryptoTickers(c, logger))

	// AI analysis via sampling
	s.AddTool(createAIFinancialAnalysisTool(), handleAIFinancialAnalysis(a))
	s.AddTool(createAIMarketInsightsTool(), handleAIMarketInsights(a))
}

// --- Tool definitions ---

func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the FinData MCP server version and status. Use this to verify connectivity."),
	)
}

func createGetDiagnosticsTool() mcp.Tool {
	return mcp.NewTool("get_diagnostics",
		mcp.WithDescription("Get server diagnostics: version and recent log entries."),
		mcp.WithString("correlation_id", mcp.Description("If provided, returns logs for a specific correlation ID")),
		mcp.WithNumber("limit", mcp.Description("Maximum recent log entries (default: 50)")),
	)
}

func createGetCompanyFactsTool() mcp.Tool {
	return mcp.NewTool("get_company_facts",
		mcp.WithDescription("Get company facts for a ticker: name, sector, industry, market cap, employee count, and listing details."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL', 'MSFT')")),
	)
}

func createGetIncomeStatementsTool() mcp.Tool {
	return mcp.NewTool("get_income_statements",
		mcp.WithDescription("Get income statements for a ticker: revenue, gross profit, operating income, net income, and EPS."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("period", mcp.Description("Reporting period: 'annual', 'quarterly', or 'ttm' (default: 'ttm')")),
		mcp.WithNumber("limit", mcp.Description("Maximum statements to return (default: 4)")),
	)
}

func createGetBalanceSheetsTool() mcp.Tool {
	return mcp.NewTool("get_balance_sheets",
		mcp.WithDescription("Get balance sheets for a ticker: assets, liabilities, and shareholders' equity."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("period", mcp.Description("Reporting period: 'annual', 'quarterly', or 'ttm' (default: 'ttm')")),
		mcp.WithNumber("limit", mcp.Description("Maximum statements to return (default: 4)")),
	)
}

func createGetCashFlowStatementsTool() mcp.Tool {
	return mcp.NewTool("get_cash_flow_statements",
		mcp.WithDescription("Get cash flow statements for a ticker: operating, investing, and financing cash flows."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("period", mcp.Description("Reporting period: 'annual', 'quarterly', or 'ttm' (default: 'ttm')")),
		mcp.WithNumber("limit", mcp.Description("Maximum statements to return (default: 4)")),
	)
}

func createGetAllFinancialStatementsTool() mcp.Tool {
	return mcp.NewTool("get_all_financial_statements",
		mcp.WithDescription("Get income statement, balance sheet, and cash flow statement for a ticker in one call."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("period", mcp.Description("Reporting period: 'annual', 'quarterly', or 'ttm' (default: 'ttm')")),
		mcp.WithNumber("limit", mcp.Description("Maximum statements per type to return (default: 4)")),
	)
}

func createGetFinancialMetricsTool() mcp.Tool {
	return mcp.NewTool("get_financial_metrics",
		mcp.WithDescription("Get historical financial metrics for a ticker: valuation multiples, profitability ratios, growth rates, and leverage."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("period", mcp.Description("Reporting period: 'annual', 'quarterly', or 'ttm' (default: 'ttm')")),
		mcp.WithNumber("limit", mcp.Description("Maximum periods to return (default: 4)")),
	)
}

func createGetFinancialMetricsSnapshotTool() mcp.Tool {
	return mcp.NewTool("get_financial_metrics_snapshot",
		mcp.WithDescription("FAST: Get the current financial metrics snapshot for a ticker — latest P/E, margins, growth, and leverage in one object."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
	)
}

func createSearchLineItemsTool() mcp.Tool {
	return mcp.NewTool("search_line_items",
		mcp.WithDescription("Search specific financial line items (e.g., 'revenue', 'free_cash_flow') across one or more tickers."),
		mcp.WithArray("tickers", mcp.WithStringItems(), mcp.Required(), mcp.Description("Tickers to search (e.g., ['AAPL', 'MSFT'])")),
		mcp.WithArray("line_items", mcp.WithStringItems(), mcp.Required(), mcp.Description("Line items to retrieve (e.g., ['revenue', 'net_income'])")),
		mcp.WithString("period", mcp.Description("Reporting period: 'annual', 'quarterly', or 'ttm' (default: 'ttm')")),
		mcp.WithNumber("limit", mcp.Description("Maximum periods per ticker (default: 4)")),
	)
}

func createGetSegmentedRevenuesTool() mcp.Tool {
	return mcp.NewTool("get_segmented_revenues",
		mcp.WithDescription("Get revenues broken down by business segment and geography for a ticker."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("period", mcp.Description("Reporting period: 'annual' or 'quarterly' (default: 'annual')")),
		mcp.WithNumber("limit", mcp.Description("Maximum periods to return (default: 4)")),
	)
}

func createGetPriceSnapshotTool() mcp.Tool {
	return mcp.NewTool("get_price_snapshot",
		mcp.WithDescription("FAST: Get the current price snapshot for a ticker — latest price, day change, and volume."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
	)
}

func createGetHistoricalPricesTool() mcp.Tool {
	return mcp.NewTool("get_historical_prices",
		mcp.WithDescription("Get historical OHLCV prices for a ticker over a date range."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("Start date in YYYY-MM-DD format")),
		mcp.WithString("end_date", mcp.Required(), mcp.Description("End date in YYYY-MM-DD format")),
		mcp.WithString("interval", mcp.Description("Bar interval: 'minute', 'hour', 'day', 'week', 'month' (default: 'day')")),
		mcp.WithNumber("interval_multiplier", mcp.Description("Multiplier for the interval, e.g. 5 with 'minute' for 5-minute bars (default: 1)")),
	)
}

func createGetInsiderTradesTool() mcp.Tool {
	return mcp.NewTool("get_insider_trades",
		mcp.WithDescription("Get insider buy/sell transactions for a ticker, most recent first."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithNumber("limit", mcp.Description("Maximum trades to return (default: 10)")),
	)
}

func createGetInstitutionalOwnershipTool() mcp.Tool {
	return mcp.NewTool("get_institutional_ownership",
		mcp.WithDescription("Get institutional ownership positions for a ticker from 13F filings."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithNumber("limit", mcp.Description("Maximum holders to return (default: 10)")),
	)
}

func createGetSECFilingsTool() mcp.Tool {
	return mcp.NewTool("get_sec_filings",
		mcp.WithDescription("Get SEC filings for a ticker, optionally filtered by form type."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("filing_type", mcp.Description("Form type filter (e.g., '10-K', '10-Q', '8-K')")),
	)
}

func createGetSECFilingItemsTool() mcp.Tool {
	return mcp.NewTool("get_sec_filing_items",
		mcp.WithDescription("Get specific items extracted from a 10-K or 10-Q filing (e.g., risk factors, MD&A)."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("filing_type", mcp.Required(), mcp.Description("Form type: '10-K' or '10-Q'")),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Filing year (e.g., 2025)")),
		mcp.WithNumber("quarter", mcp.Description("Filing quarter 1-4 (required for 10-Q)")),
	)
}

func createGetEarningsPressReleasesTool() mcp.Tool {
	return mcp.NewTool("get_earnings_press_releases",
		mcp.WithDescription("Get earnings press releases for a ticker, most recent first."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
	)
}

func createGetCompanyNewsTool() mcp.Tool {
	return mcp.NewTool("get_company_news",
		mcp.WithDescription("Get recent news articles for a ticker with source and sentiment metadata."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("start_date", mcp.Description("Earliest article date in YYYY-MM-DD format")),
		mcp.WithString("end_date", mcp.Description("Latest article date in YYYY-MM-DD format")),
		mcp.WithNumber("limit", mcp.Description("Maximum articles to return (default: 10)")),
	)
}

func createGetMarketNewsTool() mcp.Tool {
	return mcp.NewTool("get_market_news",
		mcp.WithDescription("Get recent market-wide news articles (not filtered to a single ticker)."),
		mcp.WithNumber("limit", mcp.Description("Maximum articles to return (default: 10)")),
	)
}

func createGetCryptoSnapshotTool() mcp.Tool {
	return mcp.NewTool("get_crypto_snapshot",
		mcp.WithDescription("FAST: Get the current price snapshot for a crypto pair."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Crypto pair (e.g., 'BTC-USD', 'ETH-USD')")),
	)
}

func createGetHistoricalCryptoPricesTool() mcp.Tool {
	return mcp.NewTool("get_historical_crypto_prices",
		mcp.WithDescription("Get historical OHLCV prices for a crypto pair over a date range."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Crypto pair (e.g., 'BTC-USD')")),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("Start date in YYYY-MM-DD format")),
		mcp.WithString("end_date", mcp.Required(), mcp.Description("End date in YYYY-MM-DD format")),
		mcp.WithString("interval", mcp.Description("Bar interval: 'minute', 'hour', 'day', 'week', 'month' (default: 'day')")),
		mcp.WithNumber("interval_multiplier", mcp.Description("Multiplier for the interval (default: 1)")),
	)
}

func createGetAvailableTickersTool() mcp.Tool {
	return mcp.NewTool("get_available_tickers",
		mcp.WithDescription("List all tickers with company facts coverage."),
	)
}

func createGetAvailableCryptoTickersTool() mcp.Tool {
	return mcp.NewTool("get_available_crypto_tickers",
		mcp.WithDescription("List all crypto pairs with price coverage."),
	)
}

func createAIFinancialAnalysisTool() mcp.Tool {
	return mcp.NewTool("ai_financial_analysis",
		mcp.WithDescription("AI: Analyse a company using the connected client's LLM. Fetches company facts, financial metrics, and the latest price, then requests a written analysis via sampling."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker symbol (e.g., 'AAPL')")),
		mcp.WithString("analysis_type", mcp.Description("Analysis type: 'comprehensive', 'valuation', 'risks', 'opportunities', or 'comparison' (default: 'comprehensive')")),
		mcp.WithArray("peers", mcp.WithStringItems(), mcp.Description("Peer tickers for 'comparison' analysis (e.g., ['MSFT', 'GOOG'])")),
		mcp.WithString("context", mcp.Description("Optional free-text context to steer the analysis")),
	)
}

func createAIMarketInsightsTool() mcp.Tool {
	return mcp.NewTool("ai_market_insights",
		mcp.WithDescription("AI: Generate market-level insights using the connected client's LLM. Fetches market news and snapshots for the given tickers, then requests a written assessment via sampling."),
		mcp.WithString("focus", mcp.Description("Focus area: 'overall_market', 'sector_analysis', 'economic_indicators', or 'risk_assessment' (default: 'overall_market')")),
		mcp.WithString("sector", mcp.Description("Sector to emphasise for 'sector_analysis' (e.g., 'Technology')")),
		mcp.WithArray("tickers", mcp.WithStringItems(), mcp.Description("Tickers to sample snapshots from (default: a broad-market set)")),
		mcp.WithString("context", mcp.Description("Optional free-text context to steer the analysis")),
	)
}
