package fundflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundradar/internal/eastmoney"
	"fundradar/internal/services/cache"
	"fundradar/internal/services/holding"
)

var allClistFields = []string{
	eastmoney.FieldPrice, eastmoney.FieldChangePct, eastmoney.FieldVolume,
	eastmoney.FieldAmount, eastmoney.FieldCode, eastmoney.FieldName,
	eastmoney.FieldMarketCap, eastmoney.FieldMainNetPct,
}

type fakeMarket struct {
	flow      *eastmoney.FundFlowTable
	quotes    *eastmoney.QuoteTable
	flowErr   error
	quoteErr  error
	flowCalls int
}

func (f *fakeMarket) MainFundFlowRanking(context.Context, string) (*eastmoney.FundFlowTable, error) {
	f.flowCalls++
	if f.flowErr != nil {
		return nil, f.flowErr
	}
	return f.flow, nil
}

func (f *fakeMarket) SpotQuotes(context.Context) (*eastmoney.QuoteTable, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quotes, nil
}

type fakeEnricher struct {
	summaries map[string]holding.Summary
	calls     int
}

func (f *fakeEnricher) EnrichAll(_ context.Context, codes []string) map[string]holding.Summary {
	f.calls++
	out := make(map[string]holding.Summary, len(codes))
	for _, c := range codes {
		out[c] = f.summaries[c]
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2024, time.November, 12, 14, 30, 0, 0, time.UTC)
}

// threeStockMarket builds a snapshot where 600519 passes every threshold,
// 000001 fails only the price-change predicate, and 300750 has a name
// mismatch between the two tables.
func threeStockMarket() *fakeMarket {
	return &fakeMarket{
		flow: &eastmoney.FundFlowTable{
			Fields: allClistFields,
			Rows: []eastmoney.FundFlowRow{
				{Code: "600519", Name: "贵州茅台", Price: 1500.5, ChangePct: 4.0, MainNetPct: 15},
				{Code: "000001", Name: "平安银行", Price: 10.2, ChangePct: 2.0, MainNetPct: 20},
				{Code: "300750", Name: "宁德时代", Price: 180.0, ChangePct: 5.0, MainNetPct: 18},
			},
		},
		quotes: &eastmoney.QuoteTable{
			Fields: allClistFields,
			Rows: []eastmoney.QuoteRow{
				{Code: "600519", Name: "贵州茅台", Price: 1500.5, ChangePct: 4.0, Amount: 2e9, MarketCap: 2.5e10},
				{Code: "000001", Name: "平安银行", Price: 10.2, ChangePct: 2.0, Amount: 1e9, MarketCap: 1e10},
				{Code: "300750", Name: "宁德时代(退)", Price: 180.0, ChangePct: 5.0, Amount: 3e9, MarketCap: 2e10},
			},
		},
	}
}

func newTestService(m *fakeMarket, e Enricher) *Service {
	return NewService(m, e, cache.NewStore(5*time.Minute), nil, WithClock(fixedClock))
}

func TestScreen_EndToEnd(t *testing.T) {
	svc := newTestService(threeStockMarket(), nil)
	c := DefaultCriteria()
	c.AnalyzeHolding = false

	result, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, "分析完成", result.Message)
	assert.Equal(t, "2024-11-12 14:30:00", result.Timestamp)
	assert.Equal(t, 1, result.TotalMatched)
	require.Len(t, result.Data, 1)

	rec := result.Data[0]
	assert.Equal(t, "600519", rec.Code)
	assert.Equal(t, "贵州茅台", rec.Name)
	assert.Equal(t, 1500.5, rec.Price)
	assert.Equal(t, "4%", rec.ChangePct)
	assert.Equal(t, "30000万元", rec.MainFund) // 2e9 yuan * 15% = 3e8 yuan
	assert.Equal(t, "流入", rec.Direction)
	assert.Equal(t, "15%", rec.MainRatio)
	assert.Equal(t, "200000万元", rec.Amount)
	assert.Equal(t, "250.00亿元", rec.MarketCap)
	assert.Equal(t, "8%", rec.VolumeRatio)

	require.NotNil(t, result.FilterCriteria)
	assert.Equal(t, "5000万元", result.FilterCriteria.MainFund)
	assert.Equal(t, "6%", result.FilterCriteria.Turnover)
	assert.Equal(t, "3%", result.FilterCriteria.PriceChange)
	assert.Equal(t, "10%", result.FilterCriteria.MainFundRatio)
	assert.Equal(t, "全部股票", result.FilterCriteria.StockType)
	assert.Equal(t, "主力资金", result.FilterCriteria.SortBy)
}

func TestScreen_ConjunctiveThresholds(t *testing.T) {
	// 000001 clears three of the four predicates; failing the price-change
	// one alone must exclude it.
	svc := newTestService(threeStockMarket(), nil)
	c := DefaultCriteria()
	c.AnalyzeHolding = false

	result, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)
	for _, rec := range result.Data {
		assert.NotEqual(t, "000001", rec.Code)
	}
}

func TestScreen_FullPrecisionFiltering(t *testing.T) {
	// 4999.996万 rounds to 5000.00 for display but must not pass a
	// 5000万 threshold.
	m := &fakeMarket{
		flow: &eastmoney.FundFlowTable{
			Fields: allClistFields,
			Rows: []eastmoney.FundFlowRow{
				{Code: "600000", Name: "浦发银行", ChangePct: 3.0, MainNetPct: 4.999996},
				{Code: "600004", Name: "白云机场", ChangePct: 3.0, MainNetPct: 6},
			},
		},
		quotes: &eastmoney.QuoteTable{
			Fields: allClistFields,
			Rows: []eastmoney.QuoteRow{
				{Code: "600000", Name: "浦发银行", ChangePct: 3.0, Amount: 1e9, MarketCap: 1e10},
				{Code: "600004", Name: "白云机场", ChangePct: 3.0, Amount: 1e9, MarketCap: 1e10},
			},
		},
	}
	svc := newTestService(m, nil)
	c := DefaultCriteria()
	c.AnalyzeHolding = false
	c.TurnoverThreshold = 0
	c.PriceChangeThreshold = 0
	c.MainFundRatioThreshold = 0

	result, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "600004", result.Data[0].Code)
}

func TestScreen_SortAndTruncate(t *testing.T) {
	m := &fakeMarket{
		flow: &eastmoney.FundFlowTable{
			Fields: allClistFields,
			Rows: []eastmoney.FundFlowRow{
				{Code: "600001", Name: "甲", ChangePct: 5, MainNetPct: 10},
				{Code: "600002", Name: "乙", ChangePct: 5, MainNetPct: -30}, // largest by magnitude
				{Code: "600003", Name: "丙", ChangePct: 5, MainNetPct: 20},
			},
		},
		quotes: &eastmoney.QuoteTable{
			Fields: allClistFields,
			Rows: []eastmoney.QuoteRow{
				{Code: "600001", Name: "甲", ChangePct: 5, Amount: 1e9, MarketCap: 5e9},
				{Code: "600002", Name: "乙", ChangePct: 5, Amount: 1e9, MarketCap: 1e10},
				{Code: "600003", Name: "丙", ChangePct: 5, Amount: 1e9, MarketCap: 2e10},
			},
		},
	}
	svc := newTestService(m, nil)
	c := DefaultCriteria()
	c.AnalyzeHolding = false
	c.MainFundThreshold = 0
	c.TurnoverThreshold = 0
	c.MainFundRatioThreshold = 0

	result, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, result.Data, 3)
	assert.Equal(t, "600002", result.Data[0].Code)
	assert.Equal(t, "流出", result.Data[0].Direction)
	assert.Equal(t, "-30000万元", result.Data[0].MainFund)
	assert.Equal(t, "600003", result.Data[1].Code)
	assert.Equal(t, "600001", result.Data[2].Code)

	// Turnover ordering flips the ranking: 甲 20%, 丙 5%.
	c.SortBy = SortByTurnover
	result, err = svc.Screen(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "600001", result.Data[0].Code)

	// total_matched reflects the truncated result set.
	c.SortBy = SortByMainFund
	c.MaxResults = 2
	result, err = svc.Screen(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalMatched)
	require.Len(t, result.Data, 2)
	assert.Equal(t, "600002", result.Data[0].Code)

	c.MaxResults = 0
	result, err = svc.Screen(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalMatched)
	assert.Empty(t, result.Data)
}

func TestScreen_RatioOnlyMode(t *testing.T) {
	// Without a traded-value column the net inflow degrades to zero; rows
	// can still pass when the fund thresholds allow it.
	m := threeStockMarket()
	m.quotes.Fields = []string{
		eastmoney.FieldCode, eastmoney.FieldName, eastmoney.FieldPrice,
		eastmoney.FieldChangePct, eastmoney.FieldMarketCap,
	}
	svc := newTestService(m, nil)
	c := DefaultCriteria()
	c.AnalyzeHolding = false
	c.MainFundThreshold = 0
	c.MainFundRatioThreshold = 0

	result, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)
	require.NotEmpty(t, result.Data)
	assert.Equal(t, "0万元", result.Data[0].MainFund)
	assert.Equal(t, "流出", result.Data[0].Direction)
}

func TestScreen_EmptyUpstream(t *testing.T) {
	m := &fakeMarket{
		flow:   &eastmoney.FundFlowTable{},
		quotes: &eastmoney.QuoteTable{},
	}
	svc := newTestService(m, nil)

	result, err := svc.Screen(context.Background(), DefaultCriteria())
	require.NoError(t, err)
	assert.Equal(t, "未查询到主力资金流数据", result.Message)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)

	m.flow = threeStockMarket().flow
	result, err = svc.Screen(context.Background(), DefaultCriteria())
	require.NoError(t, err)
	assert.Equal(t, "未查询到A股实时行情数据", result.Message)
}

func TestScreen_SchemaMismatchDiagnostics(t *testing.T) {
	m := threeStockMarket()
	m.quotes.Fields = []string{eastmoney.FieldCode, eastmoney.FieldName, eastmoney.FieldPrice}
	svc := newTestService(m, nil)

	result, err := svc.Screen(context.Background(), DefaultCriteria())
	require.NoError(t, err)
	assert.Contains(t, result.Message, "市值")
	assert.Equal(t, m.quotes.Fields, result.Columns)
	assert.Empty(t, result.Data)
}

func TestScreen_NoMatchEchoesCriteria(t *testing.T) {
	svc := newTestService(threeStockMarket(), nil)
	c := DefaultCriteria()
	c.AnalyzeHolding = false
	c.MainFundThreshold = 1e9 // nothing clears this

	result, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "没有符合条件的股票", result.Message)
	assert.Equal(t, 0, result.TotalMatched)
	require.NotNil(t, result.FilterCriteria)
	assert.Equal(t, "1000000000万元", result.FilterCriteria.MainFund)
}

func TestScreen_UpstreamErrorWrapped(t *testing.T) {
	m := &fakeMarket{flowErr: errors.New("connection reset")}
	svc := newTestService(m, nil)

	_, err := svc.Screen(context.Background(), DefaultCriteria())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "大额资金流分析失败")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestScreen_InvalidCriteria(t *testing.T) {
	svc := newTestService(threeStockMarket(), nil)

	c := DefaultCriteria()
	c.StockType = "港股"
	_, err := svc.Screen(context.Background(), c)
	assert.Error(t, err)

	c = DefaultCriteria()
	c.SortBy = "price"
	_, err = svc.Screen(context.Background(), c)
	assert.Error(t, err)

	c = DefaultCriteria()
	c.MaxResults = -1
	_, err = svc.Screen(context.Background(), c)
	assert.Error(t, err)
}

func TestScreen_CacheHitAndBypass(t *testing.T) {
	m := threeStockMarket()
	svc := newTestService(m, nil)
	c := DefaultCriteria()
	c.AnalyzeHolding = false

	first, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, 1, m.flowCalls)

	second, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, m.flowCalls, "second query must be served from cache")
	assert.Same(t, first, second)

	c.UseCache = false
	_, err = svc.Screen(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, m.flowCalls)
}

func TestScreen_CacheKeyedByCriteria(t *testing.T) {
	m := threeStockMarket()
	svc := newTestService(m, nil)
	c := DefaultCriteria()
	c.AnalyzeHolding = false

	_, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)

	c.MaxResults = 5
	_, err = svc.Screen(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, m.flowCalls, "different max_results must not share a cache entry")
}

func TestScreen_HoldingEnrichment(t *testing.T) {
	enricher := &fakeEnricher{
		summaries: map[string]holding.Summary{
			"600519": {
				Code: "600519",
				Institutional: holding.Institutional{
					Quarters:     2,
					CurrentRatio: 6.3,
					RatioChange:  1.3,
					Count:        3,
					Trend:        holding.TrendIncrease,
					MainTypes:    "基金(2家)、QFII(1家)",
				},
				Shareholder: holding.Shareholder{
					Trend:       holding.TrendIncrease,
					Increased:   2,
					Decreased:   1,
					NewEntrants: 1,
				},
			},
		},
	}
	svc := newTestService(threeStockMarket(), enricher)

	result, err := svc.Screen(context.Background(), DefaultCriteria())
	require.NoError(t, err)
	require.Len(t, result.Data, 1)

	rec := result.Data[0]
	assert.Equal(t, "+1.30%", rec.InstChange)
	assert.Equal(t, "增持", rec.InstTrend)
	assert.Equal(t, "6.30%", rec.InstRatio)
	assert.Equal(t, 3, rec.InstCount)
	assert.Equal(t, "基金(2家)、QFII(1家)", rec.InstMainTypes)
	assert.Empty(t, rec.InstStatus)
	assert.Equal(t, "增持", rec.HolderTrend)
	assert.Equal(t, "增持2家，减持1家，新进1家", rec.HolderDetail)

	require.NotNil(t, result.HoldingStatistics)
	assert.Equal(t, "1/1", result.HoldingStatistics.InstituteAvailability)
	assert.Equal(t, "1/1", result.HoldingStatistics.HolderAvailability)
	assert.Equal(t, map[string]int{"增持": 1}, result.HoldingStatistics.InstituteTrends)
	assert.Equal(t, map[string]int{"增持": 1}, result.HoldingStatistics.HolderTrends)
}

func TestScreen_HoldingFailureCountsAsUnavailable(t *testing.T) {
	enricher := &fakeEnricher{
		summaries: map[string]holding.Summary{
			"600519": {
				Code:          "600519",
				Institutional: holding.Institutional{Err: "timeout"},
				Shareholder:   holding.Shareholder{Status: holding.StatusNoShareholderData},
			},
		},
	}
	svc := newTestService(threeStockMarket(), enricher)

	result, err := svc.Screen(context.Background(), DefaultCriteria())
	require.NoError(t, err)
	require.Len(t, result.Data, 1)

	rec := result.Data[0]
	assert.Equal(t, "查询失败", rec.InstStatus)
	assert.Equal(t, holding.StatusNoShareholderData, rec.HolderStatus)
	assert.Empty(t, rec.InstTrend)

	stats := result.HoldingStatistics
	require.NotNil(t, stats)
	assert.Equal(t, "0/1", stats.InstituteAvailability)
	assert.Equal(t, "0/1", stats.HolderAvailability)
	assert.Equal(t, map[string]int{"无数据": 1}, stats.InstituteTrends)
}

func TestScreen_HoldingDisabledSkipsEnricher(t *testing.T) {
	enricher := &fakeEnricher{}
	svc := newTestService(threeStockMarket(), enricher)
	c := DefaultCriteria()
	c.AnalyzeHolding = false

	result, err := svc.Screen(context.Background(), c)
	require.NoError(t, err)
	assert.Zero(t, enricher.calls)
	assert.Nil(t, result.HoldingStatistics)
}

func TestCriteria_CacheKeyDistinguishesHoldingFlag(t *testing.T) {
	a := DefaultCriteria()
	b := DefaultCriteria()
	b.AnalyzeHolding = false
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())

	// UseCache does not participate in the key.
	c := DefaultCriteria()
	c.UseCache = false
	assert.Equal(t, a.CacheKey(), c.CacheKey())
}
