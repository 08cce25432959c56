package deals

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Date-range input formats.
const (
	DateRangeLayout        = "02/01/2006"
	DateRangeDisplayFormat = "DD/MM/YYYY"
)

// FormatThousands renders a value in thousands with a dollar prefix, e.g. 12345 -> "$12.345k".
func FormatThousands(v float64) string {
	return "$" + jsNumber(v/1000) + "k"
}

// jsNumber prints x the way a browser stringifies a number: shortest digits, with
// exponent notation below 1e-6 and from 1e21 up.
func jsNumber(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	case x == 0:
		return "0"
	}
	abs := math.Abs(x)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(x, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		return mantissa + "e" + sign + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// ParseDateRange converts the two DD/MM/YYYY inputs into a DateRange at midnight in loc.
// Blank inputs leave the corresponding endpoint unset.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	var r DateRange
	if s := strings.TrimSpace(start); s != "" {
		t, err := time.ParseInLocation(DateRangeLayout, s, loc)
		if err != nil {
			return DateRange{}, fmt.Errorf("deals: parse start date: %w", err)
		}
		r.Start = &t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := time.ParseInLocation(DateRangeLayout, s, loc)
		if err != nil {
			return DateRange{}, fmt.Errorf("deals: parse end date: %w", err)
		}
		r.End = &t
	}
	return r, nil
}

// FormatDate renders a range endpoint back into the input format.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateRangeLayout)
}
