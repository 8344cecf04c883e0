package holding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y, m int) time.Time {
	return time.Date(y, time.Month(m), 15, 10, 0, 0, 0, time.UTC)
}

func TestReportPeriods(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want []string
	}{
		{
			// All of the current year's quarterly reports are out by November.
			name: "november",
			now:  date(2024, 11),
			want: []string{"20243", "20242", "20241", "20234", "20233", "20232", "20231"},
		},
		{
			// Before April only last year's reports are reliable, but the
			// fresh Q1 report may have just been published.
			name: "march",
			now:  date(2024, 3),
			want: []string{"20241", "20234", "20233", "20232", "20231"},
		},
		{
			// April is both "Q1 is probeable" and "Q1 may have just landed";
			// the duplicate must collapse.
			name: "april",
			now:  date(2024, 4),
			want: []string{"20241", "20234", "20233", "20232", "20231"},
		},
		{
			name: "june",
			now:  date(2024, 6),
			want: []string{"20241", "20234", "20233", "20232", "20231"},
		},
		{
			name: "september",
			now:  date(2024, 9),
			want: []string{"20242", "20241", "20234", "20233", "20232", "20231"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReportPeriods(tt.now)
			assert.Equal(t, tt.want, got)

			seen := make(map[string]bool)
			for _, q := range got {
				assert.False(t, seen[q], "duplicate quarter %s", q)
				seen[q] = true
			}
		})
	}
}

func TestReportPeriods_Deterministic(t *testing.T) {
	now := date(2025, 11)
	assert.Equal(t, ReportPeriods(now), ReportPeriods(now))
	assert.Equal(t, "20253", ReportPeriods(now)[0])
}

func TestPeriodLabel(t *testing.T) {
	tests := []struct {
		quarter string
		want    string
	}{
		{"20241", "2024年一季报"},
		{"20242", "2024年中报"},
		{"20243", "2024年三季报"},
		{"20234", "2023年年报"},
		{"2024", "2024"},   // malformed passes through
		{"20245", "20245"}, // unknown quarter digit passes through
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PeriodLabel(tt.quarter))
	}
}
