package holding

import (
	"fmt"
	"time"
)

// quarterNames maps a quarter digit to its report label.
var quarterNames = map[byte]string{
	'1': "一季报",
	'2': "中报",
	'3': "三季报",
	'4': "年报",
}

// ReportPeriods builds the prioritized, de-duplicated list of reporting-quarter
// identifiers to probe for institutional holdings, most recently disclosable
// first. Disclosure deadlines: Q1 by end of April, interim report by end of
// August, Q3 by end of October, annual report by end of the following April.
func ReportPeriods(now time.Time) []string {
	year, month := now.Year(), int(now.Month())

	var periods []string
	if month >= 4 {
		periods = append(periods, fmt.Sprintf("%d1", year))
	}
	if month >= 8 {
		periods = append([]string{fmt.Sprintf("%d2", year)}, periods...)
	}
	if month >= 10 {
		periods = append([]string{fmt.Sprintf("%d3", year)}, periods...)
	}

	// Previous year's annual report is always a fallback.
	periods = append(periods, fmt.Sprintf("%d4", year-1))

	if month <= 4 {
		// Early in the year the current Q1 report may have just landed.
		periods = append([]string{fmt.Sprintf("%d1", year)}, periods...)
	}

	// Older same-policy fallbacks.
	periods = append(periods,
		fmt.Sprintf("%d3", year-1),
		fmt.Sprintf("%d2", year-1),
		fmt.Sprintf("%d1", year-1),
	)

	return dedupe(periods)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// PeriodLabel renders a quarter identifier as its report name, e.g.
// "20243" -> "2024年三季报".
func PeriodLabel(quarter string) string {
	if len(quarter) != 5 {
		return quarter
	}
	name, ok := quarterNames[quarter[4]]
	if !ok {
		return quarter
	}
	return quarter[:4] + "年" + name
}
