package sampling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/findata-mcp/internal/common"
)

// fakeCaller scripts the transport side of the round trip.
type fakeCaller struct {
	result *mcp.CreateMessageResult
	err    error
	calls  int
	block  bool
}

func (f *fakeCaller) CreateMessage(ctx context.Context, req mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func textResult(text string) *mcp.CreateMessageResult {
	return &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{
			Role:    mcp.RoleAssistant,
			Content: mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func testRequest() mcp.CreateMessageRequest {
	return mcp.CreateMessageRequest{
		CreateMessageParams: mcp.CreateMessageParams{
			Messages: []mcp.SamplingMessage{
				{Role: mcp.RoleUser, Content: mcp.TextContent{Type: "text", Text: "analyse"}},
			},
			MaxTokens: 100,
		},
	}
}

func TestResolve_Success(t *testing.T) {
	caller := &fakeCaller{result: textResult("Apple shows strong fundamentals.")}
	r := NewResolver(caller, time.Second, common.NewSilentLogger())

	got, err := r.Resolve(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "Apple shows strong fundamentals." {
		t.Errorf("Unexpected text: %q", got)
	}
	if caller.calls != 1 {
		t.Errorf("Expected exactly one round trip, got %d", caller.calls)
	}
}

func TestResolve_MalformedReplyReturnsFallback(t *testing.T) {
	caller := &fakeCaller{err: errors.New("failed to unmarshal sampling response: invalid character 'x'")}
	r := NewResolver(caller, time.Second, common.NewSilentLogger())

	// Same error, same message, every time.
	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("Known malformed reply must not fail the call: %v", err)
		}
		if got != FallbackText() {
			t.Errorf("Expected fixed fallback text, got %q", got)
		}
	}
}

func TestResolve_UnknownTransportErrorPropagates(t *testing.T) {
	caller := &fakeCaller{err: errors.New("connection reset by peer")}
	r := NewResolver(caller, time.Second, common.NewSilentLogger())

	_, err := r.Resolve(context.Background(), testRequest())
	if err == nil {
		t.Fatal("Expected error for unknown transport failure")
	}
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Errorf("Expected DispatchError, got %T: %v", err, err)
	}
}

func TestResolve_NoTextShapeIsExplicitError(t *testing.T) {
	caller := &fakeCaller{result: &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{
			Role: mcp.RoleAssistant,
			Content: mcp.ImageContent{
				Type: "image", Data: "aGVsbG8=", MIMEType: "image/png",
			},
		},
	}}
	r := NewResolver(caller, time.Second, common.NewSilentLogger())

	got, err := r.Resolve(context.Background(), testRequest())
	if !errors.Is(err, ErrNoTextContent) {
		t.Fatalf("Expected ErrNoTextContent, got text=%q err=%v", got, err)
	}
	if got != "" {
		t.Errorf("Shape failure must never return text, got %q", got)
	}
}

func TestResolve_BoundedWait(t *testing.T) {
	caller := &fakeCaller{block: true}
	r := NewResolver(caller, 20*time.Millisecond, common.NewSilentLogger())

	start := time.Now()
	_, err := r.Resolve(context.Background(), testRequest())
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Expected timeout error from unresponsive client")
	}
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Errorf("Expected DispatchError on timeout, got %T", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Bounded wait did not bound: took %v", elapsed)
	}
	if caller.calls != 1 {
		t.Errorf("Timeout must not trigger a retry, got %d calls", caller.calls)
	}
}

func TestResolve_DefaultTimeout(t *testing.T) {
	r := NewResolver(&fakeCaller{}, 0, common.NewSilentLogger())
	if r.timeout != 120*time.Second {
		t.Errorf("Expected 120s default timeout, got %v", r.timeout)
	}
}

func TestNewServerCaller_NoSession(t *testing.T) {
	_, err := NewServerCaller(context.Background())
	if err == nil {
		t.Fatal("Expected error when context carries no server session")
	}
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Errorf("Expected DispatchError, got %T", err)
	}
}

func TestIsMalformedReplyError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"failed to unmarshal response", true},
		{"invalid character '<' looking for beginning of value", true},
		{"unexpected end of JSON input", true},
		{"result does not match schema", true},
		{"malformed sampling result", true},
		{"context deadline exceeded", false},
		{"sampling not supported by client", false},
		{"connection refused", false},
	}

	for _, tt := range tests {
		if got := isMalformedReplyError(errors.New(tt.msg)); got != tt.want {
			t.Errorf("isMalformedReplyError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
