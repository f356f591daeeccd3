package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/auth"
	"github.com/dennissolver/LaunchReady-sub000/pkg/logging"
)

// AuditLogger writes one structured log line per MCP tool call.
// Discovery passes are also persisted as evidence events by the session
// logger; this covers every tool, including read-only ones.
type AuditLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// ToolCallEvent is what the audit logger records for a single call.
type ToolCallEvent struct {
	ToolName      string
	ProjectID     string
	UserID        string
	Params        map[string]any
	Successful    bool
	DurationMs    int64
	ErrorMessage  string
	ResultSummary map[string]any
	SecurityFlags []string
}

// NewAuditLogger creates an AuditLogger that records MCP tool calls.
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.Named("mcp-audit"),
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	startTime, _ := a.loadAndDeleteStart(id)

	event := buildEvent(ctx, req)
	event.Successful = result == nil || !result.IsError
	event.DurationMs = time.Since(startTime).Milliseconds()
	event.ResultSummary = summarizeResult(result)
	event.SecurityFlags = classifyToolResult(result)

	a.record(event)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}

	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	startTime, _ := a.loadAndDeleteStart(id)

	event := buildEvent(ctx, req)
	event.Successful = false
	event.DurationMs = time.Since(startTime).Milliseconds()
	event.ErrorMessage = logging.SanitizeError(err)
	event.SecurityFlags = classifyErrorMessage(event.ErrorMessage)

	a.record(event)
}

func (a *AuditLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}

func buildEvent(ctx context.Context, req *mcplib.CallToolRequest) *ToolCallEvent {
	event := &ToolCallEvent{
		ToolName: req.Params.Name,
		Params:   sanitizeParams(req.Params.Arguments),
	}
	if claims, ok := auth.GetClaims(ctx); ok {
		event.UserID = claims.Subject
		event.ProjectID = claims.ProjectID
	}
	return event
}

func (a *AuditLogger) record(event *ToolCallEvent) {
	fields := []zap.Field{
		zap.String("tool", event.ToolName),
		zap.String("project_id", event.ProjectID),
		zap.String("user_id", event.UserID),
		zap.Bool("successful", event.Successful),
		zap.Int64("duration_ms", event.DurationMs),
	}
	if len(event.Params) > 0 {
		fields = append(fields, zap.Any("params", event.Params))
	}
	if len(event.ResultSummary) > 0 {
		fields = append(fields, zap.Any("result", event.ResultSummary))
	}
	if event.ErrorMessage != "" {
		fields = append(fields, zap.String("error", event.ErrorMessage))
	}

	if len(event.SecurityFlags) > 0 {
		fields = append(fields, zap.Strings("security_flags", event.SecurityFlags))
		a.logger.Warn("MCP tool call", fields...)
		return
	}
	a.logger.Info("MCP tool call", fields...)
}

// maxParamSize caps string parameters kept in audit lines. Transcripts are
// further reduced to an excerpt.
const maxParamSize = 10240

// textParams carry conversation text and are logged as excerpts only.
var textParams = map[string]bool{
	"text":       true,
	"transcript": true,
	"summary":    true,
}

// sanitizeParams sanitizes request parameters before they are logged.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

func sanitizeValue(key string, value any) any {
	if isSensitiveParam(key) {
		return hashSensitiveValue(value)
	}

	switch val := value.(type) {
	case string:
		if textParams[strings.ToLower(key)] {
			return logging.Excerpt(val)
		}
		if len(val) > maxParamSize {
			return val[:maxParamSize] + "...[truncated]"
		}
		return val
	case map[string]any:
		return sanitizeParams(val)
	default:
		return value
	}
}

func isSensitiveParam(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range []string{"password", "secret", "token", "api_key", "apikey", "credential", "signature"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// hashSensitiveValue returns a SHA-256 hash prefix for sensitive values,
// allowing correlation across audit entries without storing the actual value.
func hashSensitiveValue(value any) string {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		str = fmt.Sprintf("%v", v)
	}
	hash := sha256.Sum256([]byte(str))
	return "sha256:" + hex.EncodeToString(hash[:8])
}

// summarizeResult creates a compact summary of the tool result.
func summarizeResult(result *mcplib.CallToolResult) map[string]any {
	if result == nil {
		return nil
	}

	summary := map[string]any{
		"is_error": result.IsError,
	}
	if len(result.Content) > 0 {
		summary["content_count"] = len(result.Content)
		for _, c := range result.Content {
			if tc, ok := c.(mcplib.TextContent); ok {
				summary["preview"] = logging.TruncateString(tc.Text, 200)
				break
			}
		}
	}
	return summary
}

// classifyToolResult flags access failures reported as tool results.
func classifyToolResult(result *mcplib.CallToolResult) []string {
	if result == nil || !result.IsError {
		return nil
	}
	for _, c := range result.Content {
		tc, ok := c.(mcplib.TextContent)
		if !ok {
			continue
		}
		text := strings.ToLower(tc.Text)
		if strings.Contains(text, "authentication_required") || strings.Contains(text, "invalid_project_id") {
			return []string{"unauthorized_access"}
		}
		if strings.Contains(text, "forbidden") {
			return []string{"forbidden"}
		}
	}
	return nil
}

func classifyErrorMessage(errMsg string) []string {
	lower := strings.ToLower(errMsg)
	switch {
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "unauthorized"):
		return []string{"auth_failure"}
	case strings.Contains(lower, "rate limit"):
		return []string{"rate_limit"}
	}
	return nil
}
