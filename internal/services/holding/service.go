// Package holding resolves institutional and top-shareholder holding trends
// for individual stocks. Lookups are best-effort: reporting quarters may be
// missing and either sub-section may fail without affecting the other, or any
// other stock's enrichment.
package holding

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"fundradar/internal/common"
	"fundradar/internal/eastmoney"
	"fundradar/internal/services/cache"
)

// Trend labels shared by institutional and shareholder summaries.
const (
	TrendIncrease = "增持"
	TrendDecrease = "减持"
	TrendFlat     = "持平"
)

// Status messages for partially or fully unavailable data.
const (
	StatusNoInstituteData   = "无机构持股数据"
	StatusNoShareholderData = "无股东持股数据"
	StatusSingleDate        = "仅有一期数据，无法比较变化"
)

// maxQuarterProbes bounds the institutional lookups per stock; probing stops
// earlier once two non-empty quarters are found (latest + previous suffice
// for a delta).
const maxQuarterProbes = 3

// mainTypeLimit caps the institution-type distribution shown per stock.
const mainTypeLimit = 3

// DataSource is the subset of the market-data client the enricher needs.
type DataSource interface {
	InstituteHoldings(ctx context.Context, code, quarter string) ([]eastmoney.InstituteHolding, error)
	MainShareholders(ctx context.Context, code string) ([]eastmoney.ShareholderRow, error)
}

// Institutional summarizes institutional holdings across the two most recent
// resolvable reporting quarters.
type Institutional struct {
	Quarters       int // how many quarters resolved (0, 1 or 2)
	CurrentRatio   float64
	PreviousRatio  float64
	RatioChange    float64
	CurrentPeriod  string // e.g. "2024年三季报"
	PreviousPeriod string
	Count          int
	CountChange    int
	Trend          string // set only when two quarters resolved
	Increased      int
	Decreased      int
	Unchanged      int
	HasBreakdown   bool // per-institution change data was disclosed
	MainTypes      string
	Status         string // insufficient/no-data explanation
	Err            string // lookup failure, isolated to this sub-section
}

// Shareholder summarizes top-shareholder movement between the two most recent
// as-of dates.
type Shareholder struct {
	LatestDate   string
	PreviousDate string
	Increased    int
	Decreased    int
	Unchanged    int
	NewEntrants  int
	Exited       int
	TotalHolders string // holder count, or "未知" when undisclosed
	Trend        string
	Status       string
	Err          string
}

// Summary is the per-stock enrichment result.
type Summary struct {
	Code          string
	Institutional Institutional
	Shareholder   Shareholder
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithClock overrides the service clock. Intended for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithWorkers sets the bounded concurrency of EnrichAll. Defaults to 1 to
// respect upstream pacing.
func WithWorkers(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// Service resolves holding trends with a long-lived per-stock cache.
type Service struct {
	source  DataSource
	cache   *cache.Store
	logger  arbor.ILogger
	now     func() time.Time
	workers int
}

// NewService creates a holding-trend service.
func NewService(source DataSource, store *cache.Store, logger arbor.ILogger, opts ...ServiceOption) *Service {
	s := &Service{
		source:  source,
		cache:   store,
		logger:  logger,
		now:     time.Now,
		workers: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enrich resolves the holding summary for one stock, serving from the
// per-stock cache when fresh. Failures in either sub-section are captured in
// the summary, never returned as an error.
func (s *Service) Enrich(ctx context.Context, code string) Summary {
	clean := common.NormalizeStockCode(code)
	cacheKey := "holding_" + clean

	if v, ok := s.cache.Get(cacheKey); ok {
		if sum, ok := v.(Summary); ok {
			return sum
		}
	}

	sum := Summary{
		Code:          code,
		Institutional: s.resolveInstitutional(ctx, clean),
		Shareholder:   s.resolveShareholder(ctx, clean),
	}

	s.cache.Put(cacheKey, sum)
	return sum
}

// EnrichAll resolves summaries for several stocks with bounded concurrency,
// joining results back to stock identity. Per-stock failures stay isolated.
func (s *Service) EnrichAll(ctx context.Context, codes []string) map[string]Summary {
	results := make([]Summary, len(codes))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.Enrich(ctx, code)
		}(i, code)
	}
	wg.Wait()

	out := make(map[string]Summary, len(codes))
	for i, code := range codes {
		out[code] = results[i]
	}
	return out
}

type quarterSnapshot struct {
	period string
	ratio  float64
	count  int
	rows   []eastmoney.InstituteHolding
}

func (s *Service) resolveInstitutional(ctx context.Context, code string) Institutional {
	periods := ReportPeriods(s.now())

	var available []quarterSnapshot
	for i, quarter := range periods {
		if i >= maxQuarterProbes || len(available) > 1 {
			break
		}
		rows, err := s.source.InstituteHoldings(ctx, code, quarter)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn().
					Str("code", code).
					Str("quarter", quarter).
					Err(err).
					Msg("Institutional holding lookup failed")
			}
			return Institutional{Err: err.Error()}
		}
		if len(rows) == 0 {
			continue
		}

		total := 0.0
		for _, r := range rows {
			total += r.HoldPct
		}
		available = append(available, quarterSnapshot{
			period: PeriodLabel(quarter),
			ratio:  total,
			count:  len(rows),
			rows:   rows,
		})
	}

	switch len(available) {
	case 0:
		return Institutional{Status: StatusNoInstituteData}
	case 1:
		cur := available[0]
		return Institutional{
			Quarters:      1,
			CurrentRatio:  cur.ratio,
			CurrentPeriod: cur.period,
			Count:         cur.count,
			MainTypes:     mainInstituteTypes(cur.rows),
			Status:        fmt.Sprintf("只有单季度数据，无法比较变化，报告期：%s", cur.period),
		}
	}

	cur, prev := available[0], available[1]
	inst := Institutional{
		Quarters:       2,
		CurrentRatio:   cur.ratio,
		PreviousRatio:  prev.ratio,
		RatioChange:    cur.ratio - prev.ratio,
		CurrentPeriod:  cur.period,
		PreviousPeriod: prev.period,
		Count:          cur.count,
		CountChange:    cur.count - prev.count,
		MainTypes:      mainInstituteTypes(cur.rows),
	}

	switch {
	case inst.RatioChange > 0:
		inst.Trend = TrendIncrease
	case inst.RatioChange < 0:
		inst.Trend = TrendDecrease
	default:
		inst.Trend = TrendFlat
	}

	for _, r := range cur.rows {
		if !r.HasChange {
			continue
		}
		switch {
		case r.ChangePct > 0:
			inst.Increased++
		case r.ChangePct < 0:
			inst.Decreased++
		default:
			inst.Unchanged++
		}
	}
	inst.HasBreakdown = inst.Increased > 0 || inst.Decreased > 0

	return inst
}

// mainInstituteTypes renders the top institution types by frequency, e.g.
// "基金(12家)、QFII(3家)".
func mainInstituteTypes(rows []eastmoney.InstituteHolding) string {
	counts := make(map[string]int)
	for _, r := range rows {
		if r.Type != "" {
			counts[r.Type]++
		}
	}
	if len(counts) == 0 {
		return ""
	}

	type typeCount struct {
		name  string
		count int
	}
	sorted := make([]typeCount, 0, len(counts))
	for name, count := range counts {
		sorted = append(sorted, typeCount{name, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})

	if len(sorted) > mainTypeLimit {
		sorted = sorted[:mainTypeLimit]
	}
	parts := make([]string, len(sorted))
	for i, tc := range sorted {
		parts[i] = fmt.Sprintf("%s(%d家)", tc.name, tc.count)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "、" + p
	}
	return out
}

func (s *Service) resolveShareholder(ctx context.Context, code string) Shareholder {
	rows, err := s.source.MainShareholders(ctx, code)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn().
				Str("code", code).
				Err(err).
				Msg("Shareholder lookup failed")
		}
		return Shareholder{Err: err.Error()}
	}
	if len(rows) == 0 {
		return Shareholder{Status: StatusNoShareholderData}
	}

	byDate := make(map[string][]eastmoney.ShareholderRow)
	for _, r := range rows {
		byDate[r.EndDate] = append(byDate[r.EndDate], r)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	latest := byDate[dates[0]]
	if len(dates) < 2 {
		return Shareholder{
			LatestDate:   dates[0],
			TotalHolders: totalHolders(latest),
			Status:       StatusSingleDate,
		}
	}
	previous := byDate[dates[1]]

	latestPct := make(map[string]float64, len(latest))
	for _, r := range latest {
		latestPct[r.Holder] = r.HoldPct
	}
	previousPct := make(map[string]float64, len(previous))
	for _, r := range previous {
		previousPct[r.Holder] = r.HoldPct
	}

	sh := Shareholder{
		LatestDate:   dates[0],
		PreviousDate: dates[1],
		TotalHolders: totalHolders(latest),
	}
	for holder, cur := range latestPct {
		prev, ok := previousPct[holder]
		if !ok {
			sh.NewEntrants++
			continue
		}
		switch {
		case cur > prev:
			sh.Increased++
		case cur < prev:
			sh.Decreased++
		default:
			sh.Unchanged++
		}
	}
	for holder := range previousPct {
		if _, ok := latestPct[holder]; !ok {
			sh.Exited++
		}
	}

	switch {
	case sh.Increased > sh.Decreased:
		sh.Trend = TrendIncrease
	case sh.Decreased > sh.Increased:
		sh.Trend = TrendDecrease
	default:
		sh.Trend = TrendFlat
	}

	return sh
}

func totalHolders(rows []eastmoney.ShareholderRow) string {
	for _, r := range rows {
		if r.TotalHolders > 0 {
			return strconv.Itoa(r.TotalHolders)
		}
	}
	return "未知"
}
