package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/discovery"
	"github.com/dennissolver/LaunchReady-sub000/pkg/logging"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/services"
)

// DiscoveryToolDeps contains dependencies for the discovery tools.
type DiscoveryToolDeps struct {
	Scopes    database.ScopeProvider
	Discovery services.DiscoveryService
	Items     services.ProtectionItemService
	Catalog   *discovery.Catalog
	Logger    *zap.Logger
}

// RegisterDiscoveryTools registers classify_text, record_discovery and
// list_protection_items.
func RegisterDiscoveryTools(s ToolRegistrar, deps *DiscoveryToolDeps) {
	registerClassifyTextTool(s, deps)
	registerRecordDiscoveryTool(s, deps)
	registerListProtectionItemsTool(s, deps)
}

type findingResponse struct {
	ItemKey  string `json:"item_key"`
	ItemName string `json:"item_name"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Notes    string `json:"notes,omitempty"`
}

func toFindingResponses(findings []models.Finding) []findingResponse {
	out := make([]findingResponse, 0, len(findings))
	for _, f := range findings {
		out = append(out, findingResponse{
			ItemKey:  f.Key,
			ItemName: f.Name,
			Category: f.Category,
			Status:   string(f.Status),
			Notes:    f.Notes,
		})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// registerClassifyTextTool adds classify_text, a dry run of the classifier.
func registerClassifyTextTool(s ToolRegistrar, deps *DiscoveryToolDeps) {
	tool := mcp.NewTool(
		"classify_text",
		mcp.WithDescription(
			"Classify founder conversation text into IP-protection findings without saving anything. "+
				"Returns one finding per recognized category with the suggested status and notes. "+
				"Use record_discovery to apply findings to the project.",
		),
		mcp.WithString("text", mcp.Required(), mcp.Description("Conversation transcript or summary to classify")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if _, _, err := ProjectFromClaims(ctx); err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		text, err := req.RequireString("text")
		if err != nil || strings.TrimSpace(text) == "" {
			return NewErrorResult("invalid_input", "text parameter is required"), nil
		}

		findings := deps.Discovery.Classify(text)
		return jsonResult(struct {
			Findings []findingResponse `json:"findings"`
			Count    int               `json:"count"`
		}{
			Findings: toFindingResponses(findings),
			Count:    len(findings),
		})
	})
}

// registerRecordDiscoveryTool adds record_discovery, a full discovery pass.
func registerRecordDiscoveryTool(s ToolRegistrar, deps *DiscoveryToolDeps) {
	tool := mcp.NewTool(
		"record_discovery",
		mcp.WithDescription(
			"Record a discovery conversation for the current project. "+
				"Classifies the text, upgrades protection items that became more urgent, creates missing ones, "+
				"and writes an audit event. Statuses never move to a less urgent value.",
		),
		mcp.WithString("transcript", mcp.Description("Full conversation transcript")),
		mcp.WithString("summary", mcp.Description("Conversation summary")),
		mcp.WithObject("metadata", mcp.Description("Optional caller metadata stored with the audit event")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, userID, err := ProjectFromClaims(ctx)
		if err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		discoveryReq := &models.DiscoveryRequest{
			ProjectID:  projectID,
			Transcript: req.GetString("transcript", ""),
			Summary:    req.GetString("summary", ""),
			Source:     models.SourceMCP,
			UserID:     userID,
		}
		if meta, ok := req.GetArguments()["metadata"].(map[string]any); ok {
			discoveryReq.Metadata = meta
		}

		outcome, err := deps.Discovery.Process(ctx, discoveryReq)
		if err != nil {
			if result := ErrorResultFor(err); result != nil {
				deps.Logger.Debug("record_discovery rejected",
					zap.String("project_id", projectID.String()),
					zap.Error(err))
				return result, nil
			}
			deps.Logger.Error("record_discovery failed",
				zap.String("project_id", projectID.String()),
				zap.String("error", logging.SanitizeError(err)))
			return nil, fmt.Errorf("discovery failed: %w", err)
		}

		return jsonResult(outcome)
	})
}

type protectionItemResponse struct {
	ItemKey     string    `json:"item_key"`
	ItemName    string    `json:"item_name"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	Notes       string    `json:"notes,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// registerListProtectionItemsTool adds list_protection_items.
func registerListProtectionItemsTool(s ToolRegistrar, deps *DiscoveryToolDeps) {
	tool := mcp.NewTool(
		"list_protection_items",
		mcp.WithDescription(
			"List the project's IP-protection items, most urgent first. "+
				"Each item has a status (critical, at_risk, pending, in_progress, protected, registered, not_started) "+
				"and a priority where 1 is most urgent.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, tenantCtx, cleanup, err := AcquireProjectAccess(ctx, deps.Scopes)
		if err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to acquire database connection: %w", err)
		}
		defer cleanup()

		items, err := deps.Items.List(tenantCtx, projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to list protection items: %w", err)
		}

		resp := make([]protectionItemResponse, 0, len(items))
		for _, item := range items {
			r := protectionItemResponse{
				ItemKey:   item.ItemType,
				ItemName:  item.ItemName,
				Category:  item.Category,
				Status:    string(item.Status),
				Priority:  item.Status.Priority(),
				Notes:     item.Notes,
				UpdatedAt: item.UpdatedAt,
			}
			if deps.Catalog != nil {
				if entry, ok := deps.Catalog.Lookup(item.ItemType); ok {
					r.Description = entry.Description
				}
			}
			resp = append(resp, r)
		}

		return jsonResult(struct {
			Items []protectionItemResponse `json:"items"`
			Count int                      `json:"count"`
		}{
			Items: resp,
			Count: len(resp),
		})
	})
}
