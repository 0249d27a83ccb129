package api

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/touchstone-factors/pkg/analysis"
	"github.com/hazyhaar/touchstone-factors/pkg/kit"
)

// RegisterMCPTools registers the analyze_report and taxonomy_info tools.
// Analyses are recorded in metrics when it is non-nil.
func RegisterMCPTools(srv *server.MCPServer, svc *analysis.Service, metrics *Metrics, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	registerAnalyzeReport(srv, svc, metrics, logger)
	registerTaxonomyInfo(srv, svc, logger)
}

func registerAnalyzeReport(srv *server.MCPServer, svc *analysis.Service, metrics *Metrics, logger *slog.Logger) {
	tool := mcp.NewTool("analyze_report",
		mcp.WithDescription("Detect human and organizational performance factors in an incident report. Returns every matched taxonomy term with its dimension, factor and recommendations, plus per-dimension counts."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Full report text (Portuguese or English)")),
	)

	ep := kit.Chain(kit.RequestID(), kit.Logging(logger, "analyze_report"), metrics.instrument())(analyzeEndpoint(svc))
	kit.RegisterMCPTool(srv, tool, ep, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		text, ok := req.GetArguments()["text"].(string)
		if !ok {
			return nil, fmt.Errorf("text must be a string")
		}
		return &kit.MCPDecodeResult{Request: &analyzeReq{Text: text}}, nil
	})
}

func registerTaxonomyInfo(srv *server.MCPServer, svc *analysis.Service, logger *slog.Logger) {
	tool := mcp.NewTool("taxonomy_info",
		mcp.WithDescription("Describe the loaded taxonomy: source, load time, entry count, languages and fuzzy threshold."),
	)

	ep := kit.Chain(kit.RequestID(), kit.Logging(logger, "taxonomy_info"))(taxonomyInfoEndpoint(svc))
	kit.RegisterMCPTool(srv, tool, ep, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}
