package fundflow

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"fundradar/internal/eastmoney"
)

// Sort keys accepted by Screen.
const (
	SortByMainFund = "main_fund"
	SortByTurnover = "turnover_ratio"
)

// Criteria is the immutable parameter set of one screening query. Together
// with the universe selector and the enrichment flag it fully determines the
// cache key; UseCache only controls whether the cache is consulted.
type Criteria struct {
	MainFundThreshold      float64 `validate:"gte=0"` // main-fund net inflow/outflow magnitude, 万元
	TurnoverThreshold      float64 `validate:"gte=0"` // traded value / market cap, percent
	PriceChangeThreshold   float64 `validate:"gte=0"` // absolute price change, percent
	MainFundRatioThreshold float64 `validate:"gte=0"` // main-fund share of traded value, percent
	StockType              string  `validate:"required"`
	MaxResults             int     `validate:"gte=0"`
	SortBy                 string  `validate:"oneof=main_fund turnover_ratio"`
	AnalyzeHolding         bool
	UseCache               bool
}

// DefaultCriteria returns the documented defaults of the analysis tool.
func DefaultCriteria() Criteria {
	return Criteria{
		MainFundThreshold:      5000,
		TurnoverThreshold:      6.0,
		PriceChangeThreshold:   3.0,
		MainFundRatioThreshold: 10.0,
		StockType:              eastmoney.UniverseAll,
		MaxResults:             10,
		SortBy:                 SortByMainFund,
		AnalyzeHolding:         true,
		UseCache:               true,
	}
}

var validate = validator.New()

// Validate checks the criteria before any external call is attempted.
func (c Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid screening criteria: %w", err)
	}
	if !eastmoney.ValidUniverse(c.StockType) {
		return fmt.Errorf("invalid stock_type %q, must be one of %v", c.StockType, eastmoney.Universes())
	}
	return nil
}

// CacheKey derives the screening-cache key from the full criteria tuple.
func (c Criteria) CacheKey() string {
	return fmt.Sprintf("large_fund_%g_%g_%g_%g_%s_%d_%s_%t",
		c.MainFundThreshold, c.TurnoverThreshold, c.PriceChangeThreshold,
		c.MainFundRatioThreshold, c.StockType, c.MaxResults, c.SortBy, c.AnalyzeHolding)
}
