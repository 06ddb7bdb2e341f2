package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/database"
	"github.com/bidintell-inc/bidiq-engine/pkg/services"
)

// ToolDeps contains dependencies for the contractor resolution tools.
type ToolDeps struct {
	DB         *database.DB
	Matcher    services.MatcherService
	Submission services.SubmissionService
	Review     services.ReviewService
	Logger     *zap.Logger
}

// RegisterTools registers all contractor resolution MCP tools.
func RegisterTools(s *server.MCPServer, deps *ToolDeps) {
	registerSearchContractorsTool(s, deps)
	registerSubmitContractorTool(s, deps)
	registerListReviewQueueTool(s, deps)
}

// withOrgScope parses the org_id argument and layers an org-scoped database
// connection into the context. The cleanup function releases it.
func withOrgScope(ctx context.Context, deps *ToolDeps, req mcp.CallToolRequest) (uuid.UUID, context.Context, func(), error) {
	raw, err := req.RequireString("org_id")
	if err != nil {
		return uuid.Nil, nil, nil, err
	}

	orgID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, nil, nil, fmt.Errorf("invalid org_id: %w", err)
	}

	scope, err := deps.DB.WithOrg(ctx, orgID)
	if err != nil {
		return uuid.Nil, nil, nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}

	return orgID, database.SetOrgScope(ctx, scope), func() { scope.Close() }, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func registerSearchContractorsTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"search_contractors",
		mcp.WithDescription(
			"Search the organization's approved contractor roster for a free-text name. "+
				"Exact and alias matches come back with score 1.0; otherwise fuzzy candidates "+
				"are scored 0.5-1.0. When nothing matches, is_likely_new is true and "+
				"suggested_name carries a properly formatted version of the query. "+
				"Example: search_contractors(org_id='...', query='turner const').",
		),
		mcp.WithString(
			"org_id",
			mcp.Required(),
			mcp.Description("Organization UUID that scopes the search"),
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("Contractor name to look up (e.g., 'Turner Const')"),
		),
		mcp.WithBoolean(
			"include_unapproved",
			mcp.Description("Also surface provisional contractors that are still pending review"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		orgID, orgCtx, cleanup, err := withOrgScope(ctx, deps, req)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		result, err := deps.Matcher.Search(orgCtx, orgID, query, req.GetBool("include_unapproved", false))
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		return jsonResult(result)
	})
}

func registerSubmitContractorTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"submit_contractor",
		mcp.WithDescription(
			"Submit a contractor name for the organization. A provisional contractor "+
				"is created and queued for human review together with an automated "+
				"duplicate analysis; likely duplicates are resolved by a reviewer "+
				"merge later. The provisional record is usable immediately.",
		),
		mcp.WithString(
			"org_id",
			mcp.Required(),
			mcp.Description("Organization UUID that scopes the submission"),
		),
		mcp.WithString(
			"name",
			mcp.Required(),
			mcp.Description("Contractor name exactly as entered by the user"),
		),
		mcp.WithString(
			"submitted_by",
			mcp.Required(),
			mcp.Description("UUID of the user making the submission"),
		),
		mcp.WithString(
			"city",
			mcp.Description("City the contractor operates in, if known"),
		),
		mcp.WithString(
			"region",
			mcp.Description("State or region code, if known (e.g., 'CO')"),
		),
		mcp.WithString(
			"origin_project_id",
			mcp.Description("Project UUID to link the contractor to, if submitting from a project"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		orgID, orgCtx, cleanup, err := withOrgScope(ctx, deps, req)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		name, err := req.RequireString("name")
		if err != nil {
			return nil, err
		}

		rawSubmitter, err := req.RequireString("submitted_by")
		if err != nil {
			return nil, err
		}
		submitterID, err := uuid.Parse(rawSubmitter)
		if err != nil {
			return nil, fmt.Errorf("invalid submitted_by: %w", err)
		}

		submitReq := services.SubmitRequest{
			OrgID:       orgID,
			RawName:     name,
			SubmittedBy: &submitterID,
			City:        req.GetString("city", ""),
			Region:      req.GetString("region", ""),
		}

		if raw := req.GetString("origin_project_id", ""); raw != "" {
			projectID, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid origin_project_id: %w", err)
			}
			submitReq.OriginProjectID = &projectID
		}

		result, err := deps.Submission.Submit(orgCtx, submitReq)
		if err != nil {
			return nil, fmt.Errorf("submission failed: %w", err)
		}

		return jsonResult(result)
	})
}

func registerListReviewQueueTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"list_review_queue",
		mcp.WithDescription(
			"List pending contractor submissions awaiting review for the organization, "+
				"newest first, each with its automated duplicate analysis "+
				"(recommendation, confidence, suggested match, warnings).",
		),
		mcp.WithString(
			"org_id",
			mcp.Required(),
			mcp.Description("Organization UUID that scopes the queue"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		_, orgCtx, cleanup, err := withOrgScope(ctx, deps, req)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		items, err := deps.Review.ListPending(orgCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to list review queue: %w", err)
		}

		stats, err := deps.Review.Stats(orgCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to load stats: %w", err)
		}

		return jsonResult(map[string]any{
			"items": items,
			"stats": stats,
		})
	})
}
