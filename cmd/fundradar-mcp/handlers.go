package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"fundradar/internal/common"
	"fundradar/internal/services/fundflow"
)

// handleAnalyzeLargeFundFlow implements the analyze_large_fund_flow tool
func handleAnalyzeLargeFundFlow(screener *fundflow.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()

		c := fundflow.DefaultCriteria()
		c.MainFundThreshold = request.GetFloat("main_fund_inflow_threshold", c.MainFundThreshold)
		c.TurnoverThreshold = request.GetFloat("turnover_ratio_threshold", c.TurnoverThreshold)
		c.PriceChangeThreshold = request.GetFloat("price_change_threshold", c.PriceChangeThreshold)
		c.MainFundRatioThreshold = request.GetFloat("main_fund_ratio_threshold", c.MainFundRatioThreshold)
		c.StockType = request.GetString("stock_type", c.StockType)
		c.MaxResults = request.GetInt("max_results", c.MaxResults)
		c.SortBy = request.GetString("sort_by", c.SortBy)
		c.AnalyzeHolding = request.GetBool("analyze_holding", c.AnalyzeHolding)
		c.UseCache = request.GetBool("use_cache", c.UseCache)

		// Parameter problems come back as tool text, before any upstream call
		if err := c.Validate(); err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Error: %v", err)),
				},
			}, nil
		}

		logger.Info().
			Str("request_id", requestID).
			Str("stock_type", c.StockType).
			Str("sort_by", c.SortBy).
			Msg("Large fund flow analysis started")

		// Pipeline failures propagate as tool-call errors
		result, err := screener.Screen(ctx, c)
		if err != nil {
			logger.Error().Str("request_id", requestID).Err(err).Msg("Large fund flow analysis failed")
			return nil, err
		}

		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode analysis result: %w", err)
		}

		logger.Info().
			Str("request_id", requestID).
			Int("matched", result.TotalMatched).
			Msg("Large fund flow analysis finished")

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(string(payload)),
			},
		}, nil
	}
}

// handleAnalyzeStockFundFlowDetail implements the analyze_stock_fund_flow_detail
// tool. It validates the declared contract and reports that the detail
// analysis is not available yet.
func handleAnalyzeStockFundFlowDetail(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stockCode, err := request.RequireString("stock_code")
		if err != nil || stockCode == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: stock_code parameter is required"),
				},
			}, nil
		}

		code := common.NormalizeStockCode(stockCode)
		market := request.GetString("market", "")
		if market == "" {
			market, err = common.ClassifyMarket(code)
			if err != nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent(fmt.Sprintf("Error: %v", err)),
					},
				}, nil
			}
		}

		response := map[string]interface{}{
			"message":         "个股资金流向明细分析尚未上线",
			"stock_code":      code,
			"market":          market,
			"check_big_deals": request.GetBool("check_big_deals", false),
			"days":            request.GetInt("days", 5),
		}
		payload, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode response: %w", err)
		}

		logger.Debug().Str("stock_code", code).Str("market", market).Msg("Stock detail tool called")

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(string(payload)),
			},
		}, nil
	}
}
