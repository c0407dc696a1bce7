package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func readResourceRequest(uri string) mcp.ReadResourceRequest {
	request := mcp.ReadResourceRequest{}
	request.Params.URI = uri
	return request
}

func TestResourceHandler_Facts(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/company/facts" {
			t.Errorf("Expected path /company/facts, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ticker"); got != "AAPL" {
			t.Errorf("Expected ticker=AAPL, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"company_facts": map[string]interface{}{"name": "Apple Inc."},
		})
	}))
	defer mockServer.Close()

	handler := resourceHandler(testClient(mockServer.URL), "facts", "/company/facts")

	// Ticker in the URI is normalised to upper case.
	contents, err := handler(context.Background(), readResourceRequest("findata://aapl/facts"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("Expected one content item, got %d", len(contents))
	}

	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("Expected TextResourceContents, got %T", contents[0])
	}
	if tc.URI != "findata://aapl/facts" {
		t.Errorf("Content should echo the requested URI, got %q", tc.URI)
	}
	if tc.MIMEType != "application/json" {
		t.Errorf("Expected application/json, got %q", tc.MIMEType)
	}
	if !strings.Contains(tc.Text, "Apple Inc.") {
		t.Error("Content should carry the upstream body")
	}
}

func TestResourceHandler_MalformedURI(t *testing.T) {
	handler := resourceHandler(testClient("http://localhost:1"), "facts", "/company/facts")

	for _, uri := range []string{
		"findata:///facts",
		"findata://AAPL/news",
		"other://AAPL/facts",
		"findata://AAPL",
	} {
		if _, err := handler(context.Background(), readResourceRequest(uri)); err == nil {
			t.Errorf("Expected error for URI %q", uri)
		}
	}
}

func TestResourceHandler_UpstreamError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "ticker not found"})
	}))
	defer mockServer.Close()

	handler := resourceHandler(testClient(mockServer.URL), "facts", "/company/facts")

	_, err := handler(context.Background(), readResourceRequest("findata://NOPE/facts"))
	if err == nil {
		t.Fatal("Expected error for upstream 404")
	}
	if !strings.Contains(err.Error(), "ticker not found") {
		t.Errorf("Error should carry the upstream message, got %v", err)
	}
}
