package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/findata-mcp/internal/upstream"
)

// registerResources exposes read-only upstream data as MCP resources under
// the findata:// scheme, so clients can pull context without a tool call.
func registerResources(s *server.MCPServer, c *upstream.Client) {
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"findata://{ticker}/facts",
			"Company facts",
			mcp.WithTemplateDescription("Company facts for a ticker: name, sector, industry, market cap"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		resourceHandler(c, "facts", "/company/facts"),
	)

	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"findata://{ticker}/metrics",
			"Financial metrics snapshot",
			mcp.WithTemplateDescription("Current financial metrics snapshot for a ticker"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		resourceHandler(c, "metrics", "/financial-metrics/snapshot"),
	)

	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"findata://{ticker}/snapshot",
			"Price snapshot",
			mcp.WithTemplateDescription("Current price snapshot for a ticker"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		resourceHandler(c, "snapshot", "/prices/snapshot"),
	)

	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"findata://{ticker}/news",
			"Company news",
			mcp.WithTemplateDescription("Recent news articles for a ticker"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		resourceHandler(c, "news", "/news"),
	)
}

// tickerFromURI parses "findata://{ticker}/{kind}" and returns the ticker.
func tickerFromURI(uri, kind string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "findata://")
	if !ok {
		return "", fmt.Errorf("unsupported resource URI %q", uri)
	}
	ticker, gotKind, ok := strings.Cut(rest, "/")
	if !ok || gotKind != kind || ticker == "" {
		return "", fmt.Errorf("malformed resource URI %q: expected findata://{ticker}/%s", uri, kind)
	}
	return strings.ToUpper(ticker), nil
}

func resourceHandler(c *upstream.Client, kind, path string) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ticker, err := tickerFromURI(request.Params.URI, kind)
		if err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		body, err := c.Get(ctx, path, params)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s for %s: %w", kind, ticker, err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(body),
			},
		}, nil
	}
}
