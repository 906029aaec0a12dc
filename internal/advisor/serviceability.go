package advisor

import (
	"fmt"
	"math"
	"strings"
)

// Assessment rate used for the serviceability snapshot, independent of any
// particular product.
const (
	assessmentRate      = 0.035
	assessmentTermYears = 30
)

// Metrics is the derived serviceability snapshot. It is recomputed whenever
// income, expenses, loan amount and property value are all known; it is
// never updated incrementally.
type Metrics struct {
	DSR            float64
	LVR            float64
	NSR            float64
	MonthlyPayment float64
}

// MonthlyPayment returns the fixed-rate amortized monthly payment for a loan
// at annualRate (decimal, 0.035 == 3.5%) over termYears. Returns 0 when any
// input is missing or non-positive rather than failing.
func MonthlyPayment(loan, annualRate float64, termYears int) float64 {
	if loan <= 0 || annualRate <= 0 || termYears <= 0 {
		return 0
	}
	monthlyRate := annualRate / 12
	n := float64(termYears * 12)
	growth := math.Pow(1+monthlyRate, n)
	return loan * (monthlyRate * growth) / (growth - 1)
}

// ComputeMetrics derives DSR, LVR and NSR from the four required facts plus
// other monthly debts (0 when unknown). Expenses are monthly, income annual.
// The second return is false when the inputs cannot produce defined ratios.
func ComputeMetrics(income, expenses, loan, propertyValue, otherDebts float64) (Metrics, bool) {
	if income <= 0 || propertyValue <= 0 {
		return Metrics{}, false
	}
	payment := MonthlyPayment(loan, assessmentRate, assessmentTermYears)
	if payment == 0 {
		return Metrics{}, false
	}
	monthlyIncome := income / 12
	return Metrics{
		DSR:            (payment + otherDebts) / monthlyIncome,
		LVR:            loan / propertyValue,
		NSR:            (monthlyIncome - expenses) / payment,
		MonthlyPayment: payment,
	}, true
}

// RatePoint is one entry of a rate-sensitivity sweep. Rate is a percentage.
type RatePoint struct {
	Offset  float64
	Rate    float64
	Payment float64
}

// Offsets swept by RateSensitivity; the zero offset leads so the first point
// is the baseline for delta reporting.
var rateOffsets = []float64{0, -0.5, 0.5, 1.0, 1.5}

// RateSensitivity recomputes the monthly payment at fixed offsets from
// baseRate (a percentage, 4.5 == 4.5%). Returns nil when the payment cannot
// be computed.
func RateSensitivity(loan, baseRate float64, termYears int) []RatePoint {
	if loan <= 0 || baseRate <= 0 || termYears <= 0 {
		return nil
	}
	points := make([]RatePoint, 0, len(rateOffsets))
	for _, off := range rateOffsets {
		rate := baseRate + off
		points = append(points, RatePoint{
			Offset:  off,
			Rate:    rate,
			Payment: MonthlyPayment(loan, rate/100, termYears),
		})
	}
	return points
}

// FormatRateSensitivity renders a sweep as a short affordability report.
func FormatRateSensitivity(points []RatePoint) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Here's how your monthly payments would change with different rates:\n\n")
	base := points[0].Payment
	fmt.Fprintf(&b, "At current rate (%.1f%%): $%.2f/month\n", points[0].Rate, base)
	for _, p := range points[1:] {
		fmt.Fprintf(&b, "At %.1f%%: $%.2f/month ($%+.2f change)\n", p.Rate, p.Payment, p.Payment-base)
	}
	return b.String()
}
