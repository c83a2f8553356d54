package plan

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Money formats whole dollars with thousands separators: "$100,000",
// "-$2,500". Non-finite values print as "n/a".
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	n := math.Round(v)
	if n == 0 {
		return "$0"
	}
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	return sign + "$" + group(strconv.FormatFloat(n, 'f', 0, 64))
}

// group inserts thousands separators into a string of digits.
func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Pct formats a percentage with at most two decimals: "5%", "12.35%", "0%".
// Non-finite values print as "n/a".
func Pct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // no "-0%"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// Years formats a whole number of years: "1 year", "20 years".
func Years(n int) string {
	if n == 1 {
		return "1 year"
	}
	return printer.Sprintf("%d years", n)
}

// Number formats an integer count with thousands separators.
func Number(n int) string {
	return printer.Sprintf("%d", n)
}
