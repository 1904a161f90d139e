package tools

import (
	"errors"
	"fmt"

	mcp "github.com/mark3labs/mcp-go/mcp"

	"spotify-insights-mcp/pkg/token"
)

// readIntArg extracts an optional integer argument from the request. JSON
// numbers arrive as float64; zero means absent.
func readIntArg(req mcp.CallToolRequest, key string) int {
	if req.Params.Arguments == nil {
		return 0
	}
	if raw, ok := req.Params.Arguments.(map[string]any); ok {
		switch value := raw[key].(type) {
		case int:
			return value
		case int64:
			return int(value)
		case float64:
			return int(value)
		}
	}
	return 0
}

// readBoolArgWithDefault extracts an optional boolean argument, falling back
// to def when the argument is absent or not a boolean.
func readBoolArgWithDefault(req mcp.CallToolRequest, key string, def bool) bool {
	if req.Params.Arguments == nil {
		return def
	}
	if raw, ok := req.Params.Arguments.(map[string]any); ok {
		if value, ok := raw[key].(bool); ok {
			return value
		}
	}
	return def
}

// readStringArg extracts an optional string argument from the request.
func readStringArg(req mcp.CallToolRequest, key string) string {
	if req.Params.Arguments == nil {
		return ""
	}
	if raw, ok := req.Params.Arguments.(map[string]any); ok {
		if value, ok := raw[key].(string); ok {
			return value
		}
	}
	return ""
}

// readStringSliceArg extracts an optional string-array argument. Non-string
// elements are skipped.
func readStringSliceArg(req mcp.CallToolRequest, key string) []string {
	if req.Params.Arguments == nil {
		return nil
	}
	raw, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	items, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// toolError converts a catalog or upstream failure into an MCP error result.
// Credential problems with the upstream are reported distinctly so callers
// can tell a misconfigured server from a bad request.
func toolError(err error) *mcp.CallToolResult {
	var uae *token.UpstreamAuthError
	if errors.As(err, &uae) {
		return mcp.NewToolResultError(fmt.Sprintf("spotify authentication failed: %s", uae.Reason))
	}
	return mcp.NewToolResultError(err.Error())
}

// jsonResult marshals v into a tool result, degrading to a plain error
// result if encoding fails.
func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return result
}
