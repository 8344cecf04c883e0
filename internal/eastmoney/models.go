package eastmoney

import (
	"fmt"
)

// Stock-universe labels accepted by MainFundFlowRanking. They mirror the
// selector offered by the Eastmoney main-fund-flow ranking page.
const (
	UniverseAll     = "全部股票"
	UniverseShSzA   = "沪深A股"
	UniverseShA     = "沪市A股"
	UniverseStar    = "科创板"
	UniverseSzA     = "深市A股"
	UniverseChiNext = "创业板"
	UniverseShB     = "沪市B股"
	UniverseSzB     = "深市B股"
)

// universeFS maps a universe label to the clist "fs" market filter.
// m:1+t:2 SH main board, m:1+t:23 STAR, m:0+t:6 SZ main board,
// m:0+t:80 ChiNext, m:1+t:3 SH B, m:0+t:7 SZ B.
var universeFS = map[string]string{
	UniverseAll:     "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:7,m:1+t:3",
	UniverseShSzA:   "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23",
	UniverseShA:     "m:1+t:2,m:1+t:23",
	UniverseStar:    "m:1+t:23",
	UniverseSzA:     "m:0+t:6,m:0+t:80",
	UniverseChiNext: "m:0+t:80",
	UniverseShB:     "m:1+t:3",
	UniverseSzB:     "m:0+t:7",
}

// Universes returns the accepted universe labels in display order.
func Universes() []string {
	return []string{
		UniverseAll, UniverseShSzA, UniverseShA, UniverseStar,
		UniverseSzA, UniverseChiNext, UniverseShB, UniverseSzB,
	}
}

// ValidUniverse reports whether the label is one of the accepted universes.
func ValidUniverse(u string) bool {
	_, ok := universeFS[u]
	return ok
}

// Payload field identifiers used by the push2 clist endpoint.
const (
	FieldPrice      = "f2"   // latest price
	FieldChangePct  = "f3"   // price change percent
	FieldVolume     = "f5"   // traded volume (lots)
	FieldAmount     = "f6"   // traded value (yuan)
	FieldCode       = "f12"  // stock code
	FieldName       = "f14"  // stock name
	FieldMarketCap  = "f20"  // total market cap (yuan)
	FieldMainNetPct = "f184" // main-fund net inflow as percent of traded value
)

// FundFlowRow is one stock in the main-fund-flow ranking.
type FundFlowRow struct {
	Code       string
	Name       string
	Price      float64
	ChangePct  float64
	MainNetPct float64 // percent of traded value, signed
}

// FundFlowTable carries ranking rows plus the payload fields the upstream
// actually returned, so callers can tell "no data" apart from an unexpected
// shape.
type FundFlowTable struct {
	Rows   []FundFlowRow
	Fields []string
}

// HasField reports whether the upstream payload contained the given field.
func (t *FundFlowTable) HasField(field string) bool {
	return hasField(t.Fields, field)
}

// QuoteRow is one stock in the real-time spot snapshot.
type QuoteRow struct {
	Code      string
	Name      string
	Price     float64
	ChangePct float64
	Volume    float64
	Amount    float64 // traded value, yuan
	MarketCap float64 // total market cap, yuan
}

// QuoteTable carries quote rows plus the payload fields the upstream returned.
type QuoteTable struct {
	Rows   []QuoteRow
	Fields []string
}

// HasField reports whether the upstream payload contained the given field.
func (t *QuoteTable) HasField(field string) bool {
	return hasField(t.Fields, field)
}

func hasField(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

// InstituteHolding is one institution's position in a stock for a reporting
// quarter.
type InstituteHolding struct {
	Institution string
	Type        string  // institution type label, e.g. 基金, QFII
	HoldPct     float64 // percent of total shares
	ChangePct   float64 // percentage-point change vs. previous quarter
	HasChange   bool    // false when the source did not disclose a change
}

// ShareholderRow is one top-shareholder entry for a stock at an as-of date.
type ShareholderRow struct {
	Holder       string
	HoldPct      float64
	EndDate      string // as-of date, "2006-01-02"
	TotalHolders int    // total holder count at the date, 0 when undisclosed
}

// QuarterEndDate converts a reporting-quarter identifier (e.g. "20243") to the
// quarter-end date used by the data-center filters.
func QuarterEndDate(quarter string) (string, error) {
	if len(quarter) != 5 {
		return "", fmt.Errorf("invalid reporting quarter %q", quarter)
	}
	year := quarter[:4]
	switch quarter[4] {
	case '1':
		return year + "-03-31", nil
	case '2':
		return year + "-06-30", nil
	case '3':
		return year + "-09-30", nil
	case '4':
		return year + "-12-31", nil
	}
	return "", fmt.Errorf("invalid reporting quarter %q", quarter)
}
