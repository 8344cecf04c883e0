package fundflow

import (
	"fmt"
	"math"
	"strconv"
)

// Result is the tool-facing envelope of one screening query. Field names are
// the message keys the downstream assistant reads.
type Result struct {
	Message           string        `json:"message"`
	Timestamp         string        `json:"timestamp,omitempty"`
	FilterCriteria    *CriteriaEcho `json:"filter_criteria,omitempty"`
	Columns           []string      `json:"columns,omitempty"`
	TotalMatched      int           `json:"total_matched"`
	Data              []StockRecord `json:"data"`
	HoldingStatistics *HoldingStats `json:"holding_statistics,omitempty"`
}

// CriteriaEcho restates the applied thresholds with their units so the caller
// can see what the result set was filtered on.
type CriteriaEcho struct {
	MainFund      string `json:"主力资金门槛"`
	Turnover      string `json:"交易量占比门槛"`
	PriceChange   string `json:"涨跌幅门槛"`
	MainFundRatio string `json:"主力资金占比门槛"`
	StockType     string `json:"股票类型"`
	SortBy        string `json:"排序方式"`
}

func echoCriteria(c Criteria) *CriteriaEcho {
	sortLabel := "主力资金"
	if c.SortBy == SortByTurnover {
		sortLabel = "交易量占比"
	}
	return &CriteriaEcho{
		MainFund:      formatWan(c.MainFundThreshold),
		Turnover:      formatPct(c.TurnoverThreshold),
		PriceChange:   formatPct(c.PriceChangeThreshold),
		MainFundRatio: formatPct(c.MainFundRatioThreshold),
		StockType:     c.StockType,
		SortBy:        sortLabel,
	}
}

// StockRecord is one matched stock, pre-formatted for display. The holding
// fields are present only when enrichment was requested and resolvable.
type StockRecord struct {
	Code        string  `json:"代码"`
	Name        string  `json:"名称"`
	Price       float64 `json:"最新价"`
	ChangePct   string  `json:"涨跌幅"`
	MainFund    string  `json:"主力资金"`
	Direction   string  `json:"资金流向"`
	MainRatio   string  `json:"主力资金占比"`
	Amount      string  `json:"成交额"`
	MarketCap   string  `json:"总市值"`
	VolumeRatio string  `json:"交易量占比"`

	InstChange    string `json:"机构持股变化,omitempty"`
	InstTrend     string `json:"机构持股趋势,omitempty"`
	InstRatio     string `json:"机构持股比例,omitempty"`
	InstCount     int    `json:"机构数量,omitempty"`
	InstMainTypes string `json:"主要机构类型,omitempty"`
	InstStatus    string `json:"机构持股,omitempty"`

	HolderTrend  string `json:"十大股东动向,omitempty"`
	HolderDetail string `json:"股东变动详情,omitempty"`
	HolderStatus string `json:"十大股东,omitempty"`
}

// HoldingStats aggregates enrichment availability and trend distribution over
// the result set.
type HoldingStats struct {
	InstituteAvailability string         `json:"机构数据覆盖率"`
	HolderAvailability    string         `json:"股东数据覆盖率"`
	InstituteTrends       map[string]int `json:"机构持股趋势分布,omitempty"`
	HolderTrends          map[string]int `json:"股东持股趋势分布,omitempty"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatNum renders a value rounded to two decimals without trailing zeros,
// so 3.5 stays "3.5" and 3.456 becomes "3.46".
func formatNum(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64)
}

func formatPct(v float64) string {
	return formatNum(v) + "%"
}

func formatWan(v float64) string {
	return formatNum(v) + "万元"
}

// formatYi renders a yuan amount in hundred-million units.
func formatYi(v float64) string {
	return fmt.Sprintf("%.2f亿元", v/1e8)
}
