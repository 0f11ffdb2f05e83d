package mcpadapter

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
	"github.com/kirillkom/medical-query-assistant/internal/core/ports"
)

const (
	ToolName      = "medical_query"
	serverName    = "medical-query-assistant"
	serverVersion = "1.0.0"
)

// NewServer exposes handler as the medical_query tool. The stdio transport
// carries one client, so one handler serves the whole connection.
func NewServer(handler ports.QueryHandler, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}

	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(queryTool(), queryToolHandler(handler, logger))
	return s
}

func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func queryTool() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Answer a free-text medical question with cited references. "+
			"Queries are rate limited per connection and limited in length."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The medical question, for example 患者出现发热症状应如何处理"),
		),
	)
}

func queryToolHandler(handler ports.QueryHandler, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		outcome := handler.HandleQuery(ctx, query)
		switch {
		case outcome.Status == domain.StatusAnswered && outcome.Response != nil:
			return mcp.NewToolResultText(formatAnswer(outcome)), nil
		case outcome.Notice != nil:
			return mcp.NewToolResultError(outcome.Notice.Text), nil
		default:
			logger.Warn("mcp_query_unanswered", "status", string(outcome.Status))
			return mcp.NewToolResultError(fmt.Sprintf("query not answered: %s", outcome.Status)), nil
		}
	}
}

func formatAnswer(outcome domain.Outcome) string {
	resp := outcome.Response

	var b strings.Builder
	fmt.Fprintf(&b, "查询内容：%s\n\n", outcome.Query)
	for _, paragraph := range strings.Split(resp.Answer, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph != "" {
			fmt.Fprintf(&b, "%s\n\n", html.UnescapeString(paragraph))
		}
	}

	b.WriteString("参考文献：\n")
	if len(resp.References) == 0 {
		b.WriteString("暂无相关文献引用\n")
	}
	for _, ref := range resp.References {
		fmt.Fprintf(&b, "[%d] %s - %s (置信度: %.1f%%)", ref.ID, ref.Title, ref.Source, ref.Confidence*100)
		if link := ref.Link(); link != "" {
			fmt.Fprintf(&b, " %s", link)
		}
		b.WriteString("\n")
	}
	return b.String()
}
