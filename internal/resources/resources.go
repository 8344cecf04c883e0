// Package resources registers the static analysis-methodology texts the
// server exposes alongside its tools.
package resources

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Register adds the fund-flow analysis resources to the MCP server.
func Register(s *server.MCPServer, version string) {
	s.AddResource(mcp.NewResource(
		"resources://funds/analysis_guide",
		"大额资金流分析指南",
		mcp.WithResourceDescription("大额资金流分析的量化标准与分析框架"),
		mcp.WithMIMEType("text/markdown"),
	), staticText(analysisGuide))

	s.AddResource(mcp.NewResource(
		"resources://funds/analysis_examples",
		"大额资金流分析示例",
		mcp.WithResourceDescription("典型大额资金流动场景及其市场含义"),
		mcp.WithMIMEType("text/markdown"),
	), staticText(analysisExamples))

	s.AddResource(mcp.NewResource(
		"resources://funds/indicators_explanation",
		"大额资金流指标说明",
		mcp.WithResourceDescription("核心指标的定义、计算方法与参考标准"),
		mcp.WithMIMEType("text/markdown"),
	), staticText(indicatorsExplanation))

	s.AddResource(mcp.NewResource(
		"config://version",
		"版本号",
		mcp.WithMIMEType("text/plain"),
	), staticText(version))
}

func staticText(text string) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "text/markdown",
				Text:     text,
			},
		}, nil
	}
}
