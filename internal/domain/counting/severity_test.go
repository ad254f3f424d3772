package counting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity(t *testing.T) {
	tests := []struct {
		name       string
		systemQty  int
		countedQty int
		want       DiscrepancySeverity
	}{
		{"exact match", 100, 100, SeverityLow},
		{"under 5 percent", 100, 96, SeverityLow},
		{"exactly 5 percent", 100, 95, SeverityMedium},
		{"under 15 percent", 100, 90, SeverityMedium},
		{"exactly 15 percent", 100, 85, SeverityHigh},
		{"large shortage", 100, 10, SeverityHigh},
		{"surplus under 5 percent", 100, 104, SeverityLow},
		{"surplus over 15 percent", 100, 120, SeverityHigh},
		{"20 percent of 10", 10, 8, SeverityHigh},
		{"zero system with count", 0, 1, SeverityHigh},
		{"zero system zero counted", 0, 0, SeverityLow},
		{"everything missing", 5, 0, SeverityHigh},
		{"small base one off", 30, 29, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Severity(tt.systemQty, tt.countedQty))
		})
	}
}
