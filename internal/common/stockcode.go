// Package common provides shared utilities across the application.
package common

import (
	"errors"
	"strings"
)

// Market labels returned by ClassifyMarket.
const (
	MarketShanghai = "sh"
	MarketShenzhen = "sz"
	MarketBeijing  = "bj"
	MarketUnknown  = "unknown market"
)

// ErrInvalidStockCode is returned when a stock code is not a 6-digit numeric string.
var ErrInvalidStockCode = errors.New("stock code must be a 6-digit numeric string")

// NormalizeStockCode reduces a stock code to its bare 6-digit form.
// Codes longer than 6 characters are cut to the last 6 (e.g. "SZ000001" -> "000001"),
// and an exchange suffix after a dot is dropped (e.g. "600519.SH" -> "600519").
func NormalizeStockCode(symbol string) string {
	if idx := strings.Index(symbol, "."); idx >= 0 {
		symbol = symbol[:idx]
	}
	if len(symbol) > 6 {
		symbol = symbol[len(symbol)-6:]
	}
	return symbol
}

// ClassifyMarket maps a 6-digit stock code to its exchange.
// Shanghai: main board (60) and STAR board (68). Shenzhen: main board (00,
// which covers the former SME board 002) and ChiNext (30). Beijing: 43, 83,
// 87, 88. Any other prefix classifies as MarketUnknown.
func ClassifyMarket(symbol string) (string, error) {
	if len(symbol) != 6 || !isDigits(symbol) {
		return "", ErrInvalidStockCode
	}

	switch symbol[:2] {
	case "60", "68":
		return MarketShanghai, nil
	case "00", "30":
		return MarketShenzhen, nil
	case "43", "83", "87", "88":
		return MarketBeijing, nil
	}
	return MarketUnknown, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
