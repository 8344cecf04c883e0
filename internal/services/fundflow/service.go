// Package fundflow implements the large-fund-flow screening pipeline: it joins
// the main-fund-flow ranking with the real-time quote snapshot, derives
// turnover and main-fund indicators, applies the caller's thresholds and
// optionally attaches holding-trend enrichment to the survivors.
package fundflow

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"fundradar/internal/eastmoney"
	"fundradar/internal/services/cache"
	"fundradar/internal/services/holding"
)

// MarketData is the subset of the market-data client the engine needs.
type MarketData interface {
	MainFundFlowRanking(ctx context.Context, universe string) (*eastmoney.FundFlowTable, error)
	SpotQuotes(ctx context.Context) (*eastmoney.QuoteTable, error)
}

// Enricher resolves per-stock holding summaries for the result set.
type Enricher interface {
	EnrichAll(ctx context.Context, codes []string) map[string]holding.Summary
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithClock overrides the service clock. Intended for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// Service runs screening queries with a short-lived result cache.
type Service struct {
	data     MarketData
	enricher Enricher
	cache    *cache.Store
	logger   arbor.ILogger
	now      func() time.Time
}

// NewService creates a screening service. The enricher may be nil, in which
// case holding analysis is skipped even when requested.
func NewService(data MarketData, enricher Enricher, store *cache.Store, logger arbor.ILogger, opts ...ServiceOption) *Service {
	s := &Service{
		data:     data,
		enricher: enricher,
		cache:    store,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Screen runs one screening query end to end. Expected-empty upstream
// conditions and schema mismatches come back as successful results with an
// explanatory message; only unexpected failures return an error.
func (s *Service) Screen(ctx context.Context, c Criteria) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	key := c.CacheKey()
	if c.UseCache {
		if v, ok := s.cache.Get(key); ok {
			if r, ok := v.(*Result); ok {
				if s.logger != nil {
					s.logger.Debug().Str("key", key).Msg("Screening served from cache")
				}
				return r, nil
			}
		}
	}

	result, cacheable, err := s.screen(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("大额资金流分析失败: %w", err)
	}
	if cacheable {
		s.cache.Put(key, result)
	}
	return result, nil
}

// candidate is a fully-joined row with full-precision indicators; formatting
// happens only after filter/sort/truncate.
type candidate struct {
	code      string
	name      string
	price     float64
	changePct float64
	amount    float64 // traded value, yuan
	marketCap float64 // yuan
	netInflow float64 // main-fund net inflow, yuan, signed
	turnover  float64 // traded value / market cap, percent
	mainRatio float64 // |net inflow| / traded value, percent
}

func (s *Service) screen(ctx context.Context, c Criteria) (*Result, bool, error) {
	flow, err := s.data.MainFundFlowRanking(ctx, c.StockType)
	if err != nil {
		return nil, false, err
	}
	if len(flow.Rows) == 0 {
		return emptyResult("未查询到主力资金流数据"), false, nil
	}

	quotes, err := s.data.SpotQuotes(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(quotes.Rows) == 0 {
		return emptyResult("未查询到A股实时行情数据"), false, nil
	}

	// The market-cap lookup is mandatory; its absence is a shape problem, not
	// missing data, so the actually-present fields go back as diagnostics.
	if !quotes.HasField(eastmoney.FieldCode) || !quotes.HasField(eastmoney.FieldMarketCap) {
		r := emptyResult("行情数据缺少市值相关列，无法计算交易量占比")
		r.Columns = quotes.Fields
		return r, false, nil
	}
	if !flow.HasField(eastmoney.FieldCode) || !flow.HasField(eastmoney.FieldMainNetPct) {
		r := emptyResult("主力资金流数据缺少必要列")
		r.Columns = flow.Fields
		return r, false, nil
	}

	// Absolute net inflow needs the traded-value column; without it the
	// engine degrades to ratio-only mode with net inflow pinned at zero.
	hasAmount := quotes.HasField(eastmoney.FieldAmount)

	quoteByCode := make(map[string]eastmoney.QuoteRow, len(quotes.Rows))
	for _, q := range quotes.Rows {
		quoteByCode[q.Code] = q
	}

	var rows []candidate
	for _, f := range flow.Rows {
		q, ok := quoteByCode[f.Code]
		if !ok || q.Name != f.Name {
			continue
		}
		if q.MarketCap <= 0 {
			continue
		}

		net := 0.0
		if hasAmount {
			net = q.Amount * f.MainNetPct / 100
		}
		mainRatio := 0.0
		if q.Amount > 0 {
			mainRatio = math.Abs(net) / q.Amount * 100
		}
		rows = append(rows, candidate{
			code:      f.Code,
			name:      f.Name,
			price:     q.Price,
			changePct: q.ChangePct,
			amount:    q.Amount,
			marketCap: q.MarketCap,
			netInflow: net,
			turnover:  q.Amount / q.MarketCap * 100,
			mainRatio: mainRatio,
		})
	}

	// All four predicates must hold, at full precision.
	filtered := rows[:0]
	for _, r := range rows {
		if math.Abs(r.netInflow)/1e4 >= c.MainFundThreshold &&
			r.turnover >= c.TurnoverThreshold &&
			math.Abs(r.changePct) >= c.PriceChangeThreshold &&
			r.mainRatio >= c.MainFundRatioThreshold {
			filtered = append(filtered, r)
		}
	}

	if len(filtered) == 0 {
		r := emptyResult("没有符合条件的股票")
		r.FilterCriteria = echoCriteria(c)
		return r, true, nil
	}

	// Stable sort keeps join order on ties so repeated runs agree.
	if c.SortBy == SortByTurnover {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].turnover > filtered[j].turnover
		})
	} else {
		sort.SliceStable(filtered, func(i, j int) bool {
			return math.Abs(filtered[i].netInflow) > math.Abs(filtered[j].netInflow)
		})
	}
	if len(filtered) > c.MaxResults {
		filtered = filtered[:c.MaxResults]
	}

	records := make([]StockRecord, len(filtered))
	for i, r := range filtered {
		direction := "流出"
		if r.netInflow > 0 {
			direction = "流入"
		}
		records[i] = StockRecord{
			Code:        r.code,
			Name:        r.name,
			Price:       r.price,
			ChangePct:   formatPct(r.changePct),
			MainFund:    formatWan(r.netInflow / 1e4),
			Direction:   direction,
			MainRatio:   formatPct(r.mainRatio),
			Amount:      formatWan(r.amount / 1e4),
			MarketCap:   formatYi(r.marketCap),
			VolumeRatio: formatPct(r.turnover),
		}
	}

	result := &Result{
		Message:        "分析完成",
		Timestamp:      s.now().Format("2006-01-02 15:04:05"),
		FilterCriteria: echoCriteria(c),
		TotalMatched:   len(records),
		Data:           records,
	}

	if c.AnalyzeHolding && s.enricher != nil && len(records) > 0 {
		s.attachHolding(ctx, result)
	}

	return result, true, nil
}

// attachHolding enriches each result row with holding-trend fields and
// aggregates availability/trend statistics over the result set.
func (s *Service) attachHolding(ctx context.Context, result *Result) {
	codes := make([]string, len(result.Data))
	for i, rec := range result.Data {
		codes[i] = rec.Code
	}
	summaries := s.enricher.EnrichAll(ctx, codes)

	stats := &HoldingStats{
		InstituteTrends: make(map[string]int),
		HolderTrends:    make(map[string]int),
	}
	instAvailable, holderAvailable := 0, 0

	for i := range result.Data {
		rec := &result.Data[i]
		sum, ok := summaries[rec.Code]
		if !ok {
			continue
		}
		applyInstitutional(rec, sum.Institutional)
		applyShareholder(rec, sum.Shareholder)

		inst := sum.Institutional
		if inst.Err == "" && inst.Quarters > 0 {
			instAvailable++
		}
		if inst.Trend != "" {
			stats.InstituteTrends[inst.Trend]++
		} else {
			stats.InstituteTrends["无数据"]++
		}

		sh := sum.Shareholder
		if sh.Err == "" && sh.LatestDate != "" {
			holderAvailable++
		}
		if sh.Trend != "" {
			stats.HolderTrends[sh.Trend]++
		} else {
			stats.HolderTrends["无数据"]++
		}
	}

	total := len(result.Data)
	stats.InstituteAvailability = fmt.Sprintf("%d/%d", instAvailable, total)
	stats.HolderAvailability = fmt.Sprintf("%d/%d", holderAvailable, total)
	result.HoldingStatistics = stats
}

func applyInstitutional(rec *StockRecord, inst holding.Institutional) {
	switch {
	case inst.Err != "":
		rec.InstStatus = "查询失败"
	case inst.Quarters < 2:
		if inst.Status != "" {
			rec.InstStatus = inst.Status
		}
	default:
		rec.InstChange = fmt.Sprintf("%+.2f%%", inst.RatioChange)
		rec.InstTrend = inst.Trend
		rec.InstRatio = fmt.Sprintf("%.2f%%", inst.CurrentRatio)
		rec.InstCount = inst.Count
		if inst.MainTypes != "" {
			rec.InstMainTypes = inst.MainTypes
		}
	}
}

func applyShareholder(rec *StockRecord, sh holding.Shareholder) {
	switch {
	case sh.Err != "":
		rec.HolderStatus = "查询失败"
	case sh.Trend != "":
		rec.HolderTrend = sh.Trend
		rec.HolderDetail = shareholderDetail(sh)
	case sh.Status != "":
		rec.HolderStatus = sh.Status
	}
}

func shareholderDetail(sh holding.Shareholder) string {
	detail := fmt.Sprintf("增持%d家，减持%d家", sh.Increased, sh.Decreased)
	if sh.NewEntrants > 0 {
		detail += fmt.Sprintf("，新进%d家", sh.NewEntrants)
	}
	if sh.Exited > 0 {
		detail += fmt.Sprintf("，退出%d家", sh.Exited)
	}
	return detail
}

func emptyResult(message string) *Result {
	return &Result{
		Message: message,
		Data:    []StockRecord{},
	}
}
