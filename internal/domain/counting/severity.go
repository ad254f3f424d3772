package counting

// DiscrepancySeverity grades how far a counted quantity deviates from the
// system quantity, relative to the system quantity.
type DiscrepancySeverity string

const (
	SeverityLow    DiscrepancySeverity = "LOW"
	SeverityMedium DiscrepancySeverity = "MEDIUM"
	SeverityHigh   DiscrepancySeverity = "HIGH"
)

// Severity thresholds in percent of the system quantity.
const (
	mediumSeverityPct = 5.0
	highSeverityPct   = 15.0
)

// Severity classifies the deviation |counted-system| / system * 100.
//
// A zero system quantity cannot be used as a base: any counted stock there
// is graded as a 100% deviation (HIGH), and counting zero against zero is
// a perfect match (LOW).
func Severity(systemQty, countedQty int) DiscrepancySeverity {
	var pct float64
	switch {
	case systemQty != 0:
		diff := countedQty - systemQty
		if diff < 0 {
			diff = -diff
		}
		base := systemQty
		if base < 0 {
			base = -base
		}
		pct = float64(diff) / float64(base) * 100
	case countedQty != 0:
		pct = 100
	default:
		pct = 0
	}

	switch {
	case pct < mediumSeverityPct:
		return SeverityLow
	case pct < highSeverityPct:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}
