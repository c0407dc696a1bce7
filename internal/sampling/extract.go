package sampling

import (
	"encoding/json"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxScanDepth bounds the generic fallback walk. Sampling replies are small
// trees; anything deeper than this is not going to contain usable analysis.
const maxScanDepth = 8

// shapeMatcher pairs a reply-shape predicate with its text extractor.
// Matchers run in priority order and the first match wins.
type shapeMatcher struct {
	name    string
	extract func(v interface{}) (string, bool)
}

// shapeMatchers is the ordered cascade of known reply shapes. Clients differ
// in how they wrap the generated text; each matcher is cheap and does not
// mutate the reply.
var shapeMatchers = []shapeMatcher{
	{
		// Canonical: {content: {type|kind: "text", text: "..."}}
		name: "content-object",
		extract: func(v interface{}) (string, bool) {
			m, ok := v.(map[string]interface{})
			if !ok {
				return "", false
			}
			content, ok := m["content"].(map[string]interface{})
			if !ok {
				return "", false
			}
			return textFromContentObject(content)
		},
	},
	{
		// Flattened: {text: "..."}
		name: "flat-text",
		extract: func(v interface{}) (string, bool) {
			m, ok := v.(map[string]interface{})
			if !ok {
				return "", false
			}
			text, ok := m["text"].(string)
			return text, ok && text != ""
		},
	},
	{
		// Double-wrapped: {result: {content: {text: "..."}}}
		name: "double-wrapped",
		extract: func(v interface{}) (string, bool) {
			m, ok := v.(map[string]interface{})
			if !ok {
				return "", false
			}
			result, ok := m["result"].(map[string]interface{})
			if !ok {
				return "", false
			}
			content, ok := result["content"].(map[string]interface{})
			if !ok {
				return "", false
			}
			return textFromContentObject(content)
		},
	},
	{
		// Content itself is the string: {content: "..."}
		name: "content-string",
		extract: func(v interface{}) (string, bool) {
			m, ok := v.(map[string]interface{})
			if !ok {
				return "", false
			}
			text, ok := m["content"].(string)
			return text, ok && text != ""
		},
	},
	{
		// Bare string reply
		name: "bare-string",
		extract: func(v interface{}) (string, bool) {
			text, ok := v.(string)
			return text, ok && text != ""
		},
	},
}

// textFromContentObject extracts text from a content object, tolerating both
// "type" and "kind" discriminators (or neither, as long as text is present).
func textFromContentObject(content map[string]interface{}) (string, bool) {
	if kind, ok := discriminator(content); ok && kind != "text" {
		return "", false
	}
	text, ok := content["text"].(string)
	return text, ok && text != ""
}

func discriminator(content map[string]interface{}) (string, bool) {
	if t, ok := content["type"].(string); ok {
		return t, true
	}
	if k, ok := content["kind"].(string); ok {
		return k, true
	}
	return "", false
}

// ExtractText normalizes a sampling reply into its text payload. The reply
// shape is controlled by the connected client, not by this server, so the
// known shapes are tried in priority order and a bounded depth-first scan
// for any text-bearing field runs last. No match returns ErrNoTextContent —
// never an empty string.
func ExtractText(reply interface{}) (string, error) {
	if reply == nil {
		return "", ErrNoTextContent
	}

	// Typed fast path: mcp-go delivers TextContent for conforming clients.
	switch r := reply.(type) {
	case *mcp.CreateMessageResult:
		if r == nil {
			return "", ErrNoTextContent
		}
		if tc, ok := r.Content.(mcp.TextContent); ok && tc.Text != "" {
			return tc.Text, nil
		}
		if tc, ok := r.Content.(*mcp.TextContent); ok && tc != nil && tc.Text != "" {
			return tc.Text, nil
		}
	case mcp.TextContent:
		if r.Text != "" {
			return r.Text, nil
		}
	}

	v, err := toValue(reply)
	if err != nil {
		return "", ErrNoTextContent
	}

	for _, matcher := range shapeMatchers {
		if text, ok := matcher.extract(v); ok {
			return text, nil
		}
	}

	if text, ok := scanForText(v, 0); ok {
		return text, nil
	}

	return "", ErrNoTextContent
}

// toValue converts an arbitrary reply into generic JSON values so the shape
// matchers only ever see strings, maps, and slices. Strings and already
// generic values pass through untouched.
func toValue(reply interface{}) (interface{}, error) {
	switch reply.(type) {
	case string, map[string]interface{}, []interface{}:
		return reply, nil
	}
	data, err := json.Marshal(reply)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// scanTargets are the field names the generic scan treats as text-bearing,
// in priority order at each level.
var scanTargets = []string{"text", "content", "message"}

// scanForText walks the reply tree depth-first looking for the first
// non-empty string under a text-bearing field name. Priority fields are
// checked before recursing; remaining keys are visited in sorted order so
// the scan is deterministic. The reply is assumed to be a tree.
func scanForText(v interface{}, depth int) (string, bool) {
	if depth > maxScanDepth {
		return "", false
	}

	switch node := v.(type) {
	case map[string]interface{}:
		for _, key := range scanTargets {
			if text, ok := node[key].(string); ok && text != "" {
				return text, true
			}
		}
		keys := make([]string, 0, len(node))
		for key := range node {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if text, ok := scanForText(node[key], depth+1); ok {
				return text, true
			}
		}
	case []interface{}:
		for _, item := range node {
			if text, ok := scanForText(item, depth+1); ok {
				return text, true
			}
		}
	}

	return "", false
}
