package main

import (
	"github.com/mark3labs/mcp-go/mcp"

	"fundradar/internal/eastmoney"
)

// createAnalyzeLargeFundFlowTool returns the analyze_large_fund_flow tool definition
func createAnalyzeLargeFundFlowTool() mcp.Tool {
	return mcp.NewTool("analyze_large_fund_flow",
		mcp.WithDescription("筛选主力大额资金流入/流出的A股股票：按主力资金规模、交易量占比、涨跌幅和主力资金占比四项条件联合过滤，可选分析机构与十大股东持股趋势"),
		mcp.WithNumber("main_fund_inflow_threshold",
			mcp.Description("主力资金净流入/流出门槛，单位万元（默认5000）"),
		),
		mcp.WithNumber("turnover_ratio_threshold",
			mcp.Description("交易量占比门槛（成交额/总市值），百分比（默认6.0）"),
		),
		mcp.WithNumber("price_change_threshold",
			mcp.Description("涨跌幅绝对值门槛，百分比（默认3.0）"),
		),
		mcp.WithNumber("main_fund_ratio_threshold",
			mcp.Description("主力资金占成交额比例门槛，百分比（默认10.0）"),
		),
		mcp.WithString("stock_type",
			mcp.Description("股票类型（默认：全部股票）"),
			mcp.Enum(eastmoney.Universes()...),
		),
		mcp.WithNumber("max_results",
			mcp.Description("最多返回的股票数量，≥0（默认10）"),
		),
		mcp.WithString("sort_by",
			mcp.Description("排序方式：main_fund 按主力资金金额，turnover_ratio 按交易量占比（默认main_fund）"),
			mcp.Enum("main_fund", "turnover_ratio"),
		),
		mcp.WithBoolean("analyze_holding",
			mcp.Description("是否分析机构与十大股东持股趋势（默认true）"),
		),
		mcp.WithBoolean("use_cache",
			mcp.Description("是否使用缓存结果（默认true）"),
		),
	)
}

// createAnalyzeStockFundFlowDetailTool returns the analyze_stock_fund_flow_detail
// tool definition. The analysis itself is not implemented yet; the declared
// parameter contract is stable.
func createAnalyzeStockFundFlowDetailTool() mcp.Tool {
	return mcp.NewTool("analyze_stock_fund_flow_detail",
		mcp.WithDescription("分析单只股票的资金流向明细（开发中）"),
		mcp.WithString("stock_code",
			mcp.Required(),
			mcp.Description("6位股票代码，可带交易所前缀或后缀（如 600519、600519.SH）"),
		),
		mcp.WithString("market",
			mcp.Description("市场标识 sh/sz/bj，缺省时按代码前缀推断"),
		),
		mcp.WithBoolean("check_big_deals",
			mcp.Description("是否检查大单异动（默认false）"),
		),
		mcp.WithNumber("days",
			mcp.Description("分析天数（默认5）"),
		),
	)
}
