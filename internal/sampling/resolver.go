package sampling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/findata-mcp/internal/common"
)

// ErrNoTextContent is returned when the transport round trip succeeded but
// no known text shape was found in the reply. Callers must surface this as
// a tool error — silently returning an empty analysis would be worse.
var ErrNoTextContent = errors.New("no text content in sampling reply")

// DispatchError wraps a transport-level failure delivering the sampling
// call (capability missing, call rejected, timeout).
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("sampling dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Caller delivers a generation request to the connected client and waits
// for the reply. The indirection exists because the send-and-wait operation
// differs across transports and client implementations; adapters probe the
// connection once at construction, not per call.
type Caller interface {
	CreateMessage(ctx context.Context, req mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error)
}

// serverCaller adapts the mcp-go server's sampling round trip. The server
// instance is resolved from the tool-call context, which carries the active
// client session for both the stdio and streamable HTTP transports.
type serverCaller struct {
	srv *server.MCPServer
}

// NewServerCaller probes the tool-call context for a connection capable of
// the sampling round trip. Returns a DispatchError when no server session is
// attached (e.g. the handler was invoked outside a client connection).
func NewServerCaller(ctx context.Context) (Caller, error) {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return nil, &DispatchError{Err: errors.New("no client session available for sampling")}
	}
	return &serverCaller{srv: srv}, nil
}

func (c *serverCaller) CreateMessage(ctx context.Context, req mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	return c.srv.RequestSampling(ctx, req)
}

// malformedReplyFallback is returned verbatim whenever the transport rejects
// the round trip with a known malformed-reply signature. The tool call still
// produces useful output instead of crashing; the message is fixed so the
// same failure always reads the same way.
const malformedReplyFallback = "AI analysis is unavailable: the connected client accepted the " +
	"generation request but returned a reply this server could not decode. This is a known " +
	"client-side sampling interoperability issue, not a problem with the financial data. " +
	"The individual data tools still work; retry the analysis after updating the client."

// malformedSignatures are substrings of transport errors that indicate the
// client produced a reply the SDK could not decode. These errors are
// converted to the fallback text instead of failing the tool call.
var malformedSignatures = []string{
	"unmarshal",
	"invalid character",
	"unexpected end of json",
	"does not match schema",
	"malformed",
}

func isMalformedReplyError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, sig := range malformedSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Resolver performs the sampling round trip and normalizes the reply.
type Resolver struct {
	caller  Caller
	timeout time.Duration
	logger  *common.Logger
}

// NewResolver creates a Resolver. A non-positive timeout falls back to two
// minutes; the bound exists so an unresponsive client cannot hang the tool
// call indefinitely.
func NewResolver(caller Caller, timeout time.Duration, logger *common.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Resolver{caller: caller, timeout: timeout, logger: logger}
}

// Resolve sends req to the connected client and returns the extracted text.
// Exactly one round trip is made — no retries. Failure modes:
//   - known malformed-reply transport error: returns the fixed fallback text
//     and no error, so the tool call still produces output;
//   - any other transport error: returns a DispatchError;
//   - reply with no recognisable text shape: returns ErrNoTextContent.
func (r *Resolver) Resolve(ctx context.Context, req mcp.CreateMessageRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := r.caller.CreateMessage(ctx, req)
	duration := time.Since(start)

	if err != nil {
		if isMalformedReplyError(err) {
			r.logger.Warn().Err(err).Dur("duration", duration).
				Msg("Sampling reply malformed — returning fallback text")
			return malformedReplyFallback, nil
		}
		r.logger.Error().Err(err).Dur("duration", duration).Msg("Sampling dispatch failed")
		return "", &DispatchError{Err: err}
	}

	text, err := ExtractText(result)
	if err != nil {
		r.logger.Error().Dur("duration", duration).Msg("Sampling reply contained no text content")
		return "", err
	}

	r.logger.Debug().Dur("duration", duration).Int("chars", len(text)).Msg("Sampling resolved")
	return text, nil
}

// FallbackText exposes the fixed malformed-reply message for tests and for
// callers that need to detect degraded output.
func FallbackText() string { return malformedReplyFallback }
