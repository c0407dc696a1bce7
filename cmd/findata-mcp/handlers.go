package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/findata-mcp/internal/common"
	"github.com/bobmcallan/findata-mcp/internal/upstream"
)

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func getString(request mcp.CallToolRequest, key, defaultVal string) string {
	return request.GetString(key, defaultVal)
}

func getInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

func getStringSlice(request mcp.CallToolRequest, key string) []string {
	return request.GetStringSlice(key, nil)
}

func requireString(request mcp.CallToolRequest, key string) (string, error) {
	return request.RequireString(key)
}

// requireTicker fetches the ticker argument, normalised to upper case.
func requireTicker(request mcp.CallToolRequest) (string, error) {
	ticker, err := requireString(request, "ticker")
	if err != nil {
		return "", err
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("ticker must not be empty")
	}
	return ticker, nil
}

var validPeriods = map[string]bool{"annual": true, "quarterly": true, "ttm": true}

// periodParam reads and validates the optional period argument.
func periodParam(request mcp.CallToolRequest, defaultVal string) (string, error) {
	period := getString(request, "period", defaultVal)
	if !validPeriods[period] {
		return "", fmt.Errorf("invalid period %q: must be 'annual', 'quarterly', or 'ttm'", period)
	}
	return period, nil
}

// prettyBody re-indents an upstream JSON body for tool output. Falls back to
// the raw body when it is not valid JSON.
func prettyBody(body json.RawMessage) string {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(body)
	}
	return string(pretty)
}

// fetchAndFormat performs an upstream GET for a tool call and returns the
// response as pretty-printed JSON. A fresh correlation ID ties the tool call's
// log entries together for get_diagnostics.
func fetchAndFormat(ctx context.Context, c *upstream.Client, logger *common.Logger, tool, path string, query url.Values) (*mcp.CallToolResult, error) {
	corrID := uuid.New().String()
	log := logger.WithCorrelationId(corrID)
	log.Info().Str("tool", tool).Str("path", path).Msg("Tool call")

	body, err := c.Get(ctx, path, query)
	if err != nil {
		log.Warn().Err(err).Str("tool", tool).Msg("Tool call failed")
		return errorResult(fmt.Sprintf("Error: %v", err)), nil
	}

	return textResult(prettyBody(body)), nil
}

// --- Handlers ---

func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("FinData MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

func handleGetDiagnostics(logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var sb strings.Builder
		sb.WriteString("# Server Diagnostics\n\n")
		sb.WriteString("## Server Info\n\n")
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Version | %s |\n", common.GetVersion()))
		sb.WriteString(fmt.Sprintf("| Build | %s |\n", common.GetBuild()))
		sb.WriteString(fmt.Sprintf("| Commit | %s |\n", common.GetGitCommit()))
		sb.WriteString("\n")

		var (
			logs map[string]string
			err  error
		)
		if cid := getString(request, "correlation_id", ""); cid != "" {
			sb.WriteString(fmt.Sprintf("## Logs (correlation %s)\n\n", cid))
			logs, err = logger.GetMemoryLogsForCorrelation(cid)
		} else {
			limit := getInt(request, "limit", 50)
			sb.WriteString(fmt.Sprintf("## Recent Logs (last %d)\n\n", limit))
			logs, err = logger.GetMemoryLogsWithLimit(limit)
		}
		if err != nil {
			sb.WriteString(fmt.Sprintf("(log retrieval failed: %v)\n", err))
			return textResult(sb.String()), nil
		}

		if len(logs) == 0 {
			sb.WriteString("(no log entries)\n")
			return textResult(sb.String()), nil
		}

		// Map keys are insertion indexes; sort for stable output.
		keys := make([]string, 0, len(logs))
		for k := range logs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(logs[k])
			sb.WriteString("\n")
		}

		return textResult(sb.String()), nil
	}
}

func handleGetCompanyFacts(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		return fetchAndFormat(ctx, c, logger, "get_company_facts", "/company/facts", params)
	}
}

// statementsHandler covers the three single-statement endpoints; they share
// the same parameters and differ only in path.
func statementsHandler(c *upstream.Client, logger *common.Logger, tool, path string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		period, err := periodParam(request, "ttm")
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("period", period)
		params.Set("limit", fmt.Sprintf("%d", getInt(request, "limit", 4)))
		return fetchAndFormat(ctx, c, logger, tool, path, params)
	}
}

func handleGetIncomeStatements(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return statementsHandler(c, logger, "get_income_statements", "/financials/income-statements")
}

func handleGetBalanceSheets(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return statementsHandler(c, logger, "get_balance_sheets", "/financials/balance-sheets")
}

func handleGetCashFlowStatements(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return statementsHandler(c, logger, "get_cash_flow_statements", "/financials/cash-flow-statements")
}

func handleGetAllFinancialStatements(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return statementsHandler(c, logger, "get_all_financial_statements", "/financials")
}

func handleGetFinancialMetrics(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return statementsHandler(c, logger, "get_financial_metrics", "/financial-metrics")
}

func handleGetFinancialMetricsSnapshot(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		return fetchAndFormat(ctx, c, logger, "get_financial_metrics_snapshot", "/financial-metrics/snapshot", params)
	}
}

func handleSearchLineItems(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tickers := getStringSlice(request, "tickers")
		if len(tickers) == 0 {
			return errorResult("Error: tickers parameter is required"), nil
		}
		lineItems := getStringSlice(request, "line_items")
		if len(lineItems) == 0 {
			return errorResult("Error: line_items parameter is required"), nil
		}
		period, err := periodParam(request, "ttm")
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		for i, t := range tickers {
			tickers[i] = strings.ToUpper(strings.TrimSpace(t))
		}

		corrID := uuid.New().String()
		log := logger.WithCorrelationId(corrID)
		log.Info().Str("tool", "search_line_items").Strs("tickers", tickers).Msg("Tool call")

		body, err := c.Post(ctx, "/financials/search/line-items", map[string]interface{}{
			"tickers":    tickers,
			"line_items": lineItems,
			"period":     period,
			"limit":      getInt(request, "limit", 4),
		})
		if err != nil {
			log.Warn().Err(err).Str("tool", "search_line_items").Msg("Tool call failed")
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(prettyBody(body)), nil
	}
}

func handleGetSegmentedRevenues(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		period := getString(request, "period", "annual")
		if period != "annual" && period != "quarterly" {
			return errorResult(fmt.Sprintf("Error: invalid period %q: must be 'annual' or 'quarterly'", period)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("period", period)
		params.Set("limit", fmt.Sprintf("%d", getInt(request, "limit", 4)))
		return fetchAndFormat(ctx, c, logger, "get_segmented_revenues", "/financials/segmented-revenues", params)
	}
}

func handleGetPriceSnapshot(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		return fetchAndFormat(ctx, c, logger, "get_price_snapshot", "/prices/snapshot", params)
	}
}

// historicalPricesHandler serves both the stock and crypto price history
// tools; the endpoints take identical parameters.
func historicalPricesHandler(c *upstream.Client, logger *common.Logger, tool, path string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		startDate, err := requireString(request, "start_date")
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		endDate, err := requireString(request, "end_date")
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("start_date", startDate)
		params.Set("end_date", endDate)
		params.Set("interval", getString(request, "interval", "day"))
		params.Set("interval_multiplier", fmt.Sprintf("%d", getInt(request, "interval_multiplier", 1)))
		return fetchAndFormat(ctx, c, logger, tool, path, params)
	}
}

func handleGetHistoricalPrices(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return historicalPricesHandler(c, logger, "get_historical_prices", "/prices")
}

func handleGetInsiderTrades(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("limit", fmt.Sprintf("%d", getInt(request, "limit", 10)))
		return fetchAndFormat(ctx, c, logger, "get_insider_trades", "/insider-trades", params)
	}
}

func handleGetInstitutionalOwnership(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("limit", fmt.Sprintf("%d", getInt(request, "limit", 10)))
		return fetchAndFormat(ctx, c, logger, "get_institutional_ownership", "/institutional-ownership", params)
	}
}

func handleGetSECFilings(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		if ft := getString(request, "filing_type", ""); ft != "" {
			params.Set("filing_type", ft)
		}
		return fetchAndFormat(ctx, c, logger, "get_sec_filings", "/filings", params)
	}
}

func handleGetSECFilingItems(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		filingType, err := requireString(request, "filing_type")
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		if filingType != "10-K" && filingType != "10-Q" {
			return errorResult(fmt.Sprintf("Error: invalid filing_type %q: must be '10-K' or '10-Q'", filingType)), nil
		}
		year := getInt(request, "year", 0)
		if year == 0 {
			return errorResult("Error: year parameter is required"), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("filing_type", filingType)
		params.Set("year", fmt.Sprintf("%d", year))
		if filingType == "10-Q" {
			quarter := getInt(request, "quarter", 0)
			if quarter < 1 || quarter > 4 {
				return errorResult("Error: quarter parameter (1-4) is required for 10-Q filings"), nil
			}
			params.Set("quarter", fmt.Sprintf("%d", quarter))
		}
		return fetchAndFormat(ctx, c, logger, "get_sec_filing_items", "/filings/items", params)
	}
}

func handleGetEarningsPressReleases(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		return fetchAndFormat(ctx, c, logger, "get_earnings_press_releases", "/earnings/press-releases", params)
	}
}

func handleGetCompanyNews(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		if sd := getString(request, "start_date", ""); sd != "" {
			params.Set("start_date", sd)
		}
		if ed := getString(request, "end_date", ""); ed != "" {
			params.Set("end_date", ed)
		}
		params.Set("limit", fmt.Sprintf("%d", getInt(request, "limit", 10)))
		return fetchAndFormat(ctx, c, logger, "get_company_news", "/news", params)
	}
}

func handleGetMarketNews(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", getInt(request, "limit", 10)))
		return fetchAndFormat(ctx, c, logger, "get_market_news", "/news", params)
	}
}

func handleGetCryptoSnapshot(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		return fetchAndFormat(ctx, c, logger, "get_crypto_snapshot", "/crypto/prices/snapshot", params)
	}
}

func handleGetHistoricalCryptoPrices(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return historicalPricesHandler(c, logger, "get_historical_crypto_prices", "/crypto/prices")
}

func handleGetAvailableTickers(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return fetchAndFormat(ctx, c, logger, "get_available_tickers", "/company/facts/tickers", nil)
	}
}

func handleGetAvailableCryptoTickers(c *upstream.Client, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return fetchAndFormat(ctx, c, logger, "get_available_crypto_tickers", "/crypto/tickers", nil)
	}
}
