package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/findata-mcp/internal/common"
	"github.com/bobmcallan/findata-mcp/internal/sampling"
	"github.com/bobmcallan/findata-mcp/internal/upstream"
)

// defaultMarketTickers are sampled for market-level insights when the caller
// names no tickers: broad index, tech, finance, energy, healthcare.
var defaultMarketTickers = []string{"SPY", "QQQ", "AAPL", "JPM", "XOM", "JNJ"}

// Analyzer implements the AI analysis tools. It fans out upstream fetches,
// builds a generation request from the results, and delegates the actual text
// generation to the connected client via sampling. newCaller is a field so
// tests can substitute a scripted transport.
type Analyzer struct {
	client    *upstream.Client
	logger    *common.Logger
	timeout   time.Duration
	maxTokens int
	newCaller func(ctx context.Context) (sampling.Caller, error)
}

// fetchResult carries one upstream fan-out response.
type fetchResult struct {
	label string
	body  json.RawMessage
	err   error
}

// fetchConcurrently runs the given fetches in parallel and returns the
// results in the order the fetches were given.
func (a *Analyzer) fetchConcurrently(ctx context.Context, fetches []func(context.Context) fetchResult) []fetchResult {
	results := make([]fetchResult, len(fetches))
	var wg sync.WaitGroup
	for i, fetch := range fetches {
		wg.Add(1)
		go func(i int, fetch func(context.Context) fetchResult) {
			defer wg.Done()
			results[i] = fetch(ctx)
		}(i, fetch)
	}
	wg.Wait()
	return results
}

// snapshotFetch fetches the financial metrics snapshot for one ticker.
func (a *Analyzer) snapshotFetch(label, ticker string) func(context.Context) fetchResult {
	return func(ctx context.Context) fetchResult {
		params := url.Values{}
		params.Set("ticker", ticker)
		body, err := a.client.Get(ctx, "/financial-metrics/snapshot", params)
		return fetchResult{label: label, body: body, err: err}
	}
}

// resolve runs the sampling round trip for a built request.
func (a *Analyzer) resolve(ctx context.Context, log *common.Logger, req mcp.CreateMessageRequest) (string, error) {
	caller, err := a.newCaller(ctx)
	if err != nil {
		return "", err
	}
	return sampling.NewResolver(caller, a.timeout, log).Resolve(ctx, req)
}

// provenance appends a footer naming the data sources and generation time,
// so the analysis text is self-describing when saved or forwarded.
func provenance(sources []string, generatedAt time.Time) string {
	return fmt.Sprintf("\n\n---\nData sources: %s\nGenerated: %s",
		strings.Join(sources, ", "), generatedAt.UTC().Format(time.RFC3339))
}

func handleAIFinancialAnalysis(a *Analyzer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := requireTicker(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		analysisType := getString(request, "analysis_type", sampling.AnalysisComprehensive)
		if !sampling.ValidCompanyAnalysisType(analysisType) {
			return errorResult(fmt.Sprintf("Error: invalid analysis_type %q: must be 'comprehensive', 'valuation', 'risks', 'opportunities', or 'comparison'", analysisType)), nil
		}
		peers := getStringSlice(request, "peers")
		if analysisType == sampling.AnalysisComparison && len(peers) == 0 {
			return errorResult("Error: peers parameter is required for comparison analysis"), nil
		}

		corrID := uuid.New().String()
		log := a.logger.WithCorrelationId(corrID)
		log.Info().Str("tool", "ai_financial_analysis").Str("ticker", ticker).Str("type", analysisType).Msg("Tool call")

		tickerParams := url.Values{}
		tickerParams.Set("ticker", ticker)
		primary := a.fetchConcurrently(ctx, []func(context.Context) fetchResult{
			func(ctx context.Context) fetchResult {
				body, err := a.client.Get(ctx, "/company/facts", tickerParams)
				return fetchResult{label: "Company Facts", body: body, err: err}
			},
			a.snapshotFetch("Financial Metrics", ticker),
			func(ctx context.Context) fetchResult {
				body, err := a.client.Get(ctx, "/prices/snapshot", tickerParams)
				return fetchResult{label: "Price Snapshot", body: body, err: err}
			},
		})

		// The subject's own data is required; an analysis of a company whose
		// facts could not be fetched would be fiction.
		datasets := make([]sampling.Dataset, 0, len(primary)+len(peers))
		for _, r := range primary {
			if r.err != nil {
				log.Warn().Err(r.err).Str("dataset", r.label).Msg("Primary fetch failed")
				return errorResult(fmt.Sprintf("Error fetching %s for %s: %v", strings.ToLower(r.label), ticker, r.err)), nil
			}
			datasets = append(datasets, sampling.Dataset{Label: r.label, Payload: r.body})
		}

		// Peer data degrades: a missing peer is annotated, not fatal.
		if analysisType == sampling.AnalysisComparison {
			fetches := make([]func(context.Context) fetchResult, 0, len(peers))
			for _, peer := range peers {
				peer = strings.ToUpper(strings.TrimSpace(peer))
				fetches = append(fetches, a.snapshotFetch(fmt.Sprintf("Peer: %s", peer), peer))
			}
			for _, r := range a.fetchConcurrently(ctx, fetches) {
				if r.err != nil {
					log.Warn().Err(r.err).Str("dataset", r.label).Msg("Peer fetch failed — degrading to partial data")
					datasets = append(datasets, sampling.Dataset{Label: r.label, Err: r.err})
					continue
				}
				datasets = append(datasets, sampling.Dataset{Label: r.label, Payload: r.body})
			}
		}

		req, err := sampling.BuildCompanyRequest(ticker, analysisType, datasets, sampling.RequestOptions{
			MaxTokens: a.maxTokens,
			Context:   getString(request, "context", ""),
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		text, err := a.resolve(ctx, log, req)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		sources := make([]string, len(datasets))
		for i, ds := range datasets {
			sources[i] = ds.Label
		}
		return textResult(text + provenance(sources, time.Now())), nil
	}
}

func handleAIMarketInsights(a *Analyzer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		focus := getString(request, "focus", sampling.FocusOverallMarket)
		if !sampling.ValidMarketFocus(focus) {
			return errorResult(fmt.Sprintf("Error: invalid focus %q: must be 'overall_market', 'sector_analysis', 'economic_indicators', or 'risk_assessment'", focus)), nil
		}

		tickers := getStringSlice(request, "tickers")
		if len(tickers) == 0 {
			tickers = defaultMarketTickers
		}

		corrID := uuid.New().String()
		log := a.logger.WithCorrelationId(corrID)
		log.Info().Str("tool", "ai_market_insights").Str("focus", focus).Strs("tickers", tickers).Msg("Tool call")

		// News is the backbone of a market assessment; without it, abort.
		newsParams := url.Values{}
		newsParams.Set("limit", "20")
		news, err := a.client.Get(ctx, "/news", newsParams)
		if err != nil {
			log.Warn().Err(err).Msg("Market news fetch failed")
			return errorResult(fmt.Sprintf("Error fetching market news: %v", err)), nil
		}
		datasets := []sampling.Dataset{{Label: "Market News", Payload: news}}

		// Per-ticker snapshots degrade individually.
		fetches := make([]func(context.Context) fetchResult, 0, len(tickers))
		for _, t := range tickers {
			t = strings.ToUpper(strings.TrimSpace(t))
			fetches = append(fetches, a.snapshotFetch(t, t))
		}
		for _, r := range a.fetchConcurrently(ctx, fetches) {
			if r.err != nil {
				log.Warn().Err(r.err).Str("dataset", r.label).Msg("Snapshot fetch failed — degrading to partial data")
				datasets = append(datasets, sampling.Dataset{Label: r.label, Err: r.err})
				continue
			}
			datasets = append(datasets, sampling.Dataset{Label: r.label, Payload: r.body})
		}

		analysisContext := getString(request, "context", "")
		if sector := getString(request, "sector", ""); sector != "" {
			if analysisContext != "" {
				analysisContext += "\n"
			}
			analysisContext += fmt.Sprintf("Focus on the %s sector.", sector)
		}

		req, err := sampling.BuildMarketRequest(focus, datasets, sampling.RequestOptions{
			MaxTokens: a.maxTokens,
			Context:   analysisContext,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		text, err := a.resolve(ctx, log, req)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		sources := make([]string, len(datasets))
		for i, ds := range datasets {
			sources[i] = ds.Label
		}
		return textResult(text + provenance(sources, time.Now())), nil
	}
}
