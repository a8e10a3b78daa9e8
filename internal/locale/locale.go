// Package locale formats amounts and dates for display on documents.
// Documents use a single locale: Thai, with the Buddhist-era calendar year.
package locale

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Tag is the locale every document is formatted in.
var Tag = language.Thai

const (
	isoDate = "2006-01-02"

	// buddhistEraOffset converts a Gregorian year to the Thai solar calendar.
	buddhistEraOffset = 543
)

var printer = message.NewPrinter(Tag)

var thaiMonths = [12]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// Amount formats d with two decimals and thousands separators, e.g. 5,000.00.
// Rounding is half away from zero and the digits are taken from the decimal
// itself, so amounts of any size print exactly.
func Amount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	dot := strings.IndexByte(fixed, '.')
	whole, frac := fixed[:dot], fixed[dot:]

	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + group(whole) + frac
}

// group inserts thousands separators into a string of digits.
func group(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return printer.Sprint(number.Decimal(n))
	}

	// Beyond int64.
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Date formats an ISO date in long form, e.g. 2024-06-15 -> 15 มิถุนายน 2567.
// Strings that are not a real calendar date are returned unchanged.
func Date(iso string) string {
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%d %s %d", t.Day(), thaiMonths[t.Month()-1], t.Year()+buddhistEraOffset)
}
