// Package mcpadapter exposes the answering pipeline as an MCP tool so agents
// can ask grounded questions over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/ports"
)

const ToolAnswerQuery = "answer_query"

func NewServer(version string, answerUC ports.AnswerService) *server.MCPServer {
	s := server.NewMCPServer("grounded-qa", version, server.WithToolCapabilities(false))
	s.AddTool(answerQueryTool(), answerQueryHandler(answerUC))
	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func answerQueryTool() mcp.Tool {
	return mcp.NewTool(ToolAnswerQuery,
		mcp.WithDescription("Answer a question with one sentence quoted from the indexed corpus, with its citation. "+
			"Refuses when no sentence is grounded enough."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language question")),
		mcp.WithNumber("top_k", mcp.Description("Chunks to retrieve before filtering (default 10)")),
		mcp.WithNumber("max_chunks", mcp.Description("Chunks expanded into candidate sentences (default 3)")),
	)
}

func answerQueryHandler(answerUC ports.AnswerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("Empty query"), nil
		}

		resp, err := answerUC.AnswerQuery(ctx, query, request.GetInt("top_k", 0), request.GetInt("max_chunks", 0))
		if err != nil {
			slog.Error("mcp_answer_query_failed", "error", err)
			switch {
			case domain.IsKind(err, domain.ErrInvalidInput):
				return mcp.NewToolResultError("invalid request"), nil
			case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrCorpusNotReady):
				return mcp.NewToolResultError("service temporarily unavailable"), nil
			default:
				return mcp.NewToolResultError("internal error"), nil
			}
		}

		payload, err := json.Marshal(resp)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
