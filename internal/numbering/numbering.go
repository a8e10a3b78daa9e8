package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is the parsed form of a generated document number.
type Number struct {
	Prefix string
	Year   int
	Month  int
	Serial int
}

// Format returns a document number like "INV-202406-0001".
func Format(prefix string, year, month, serial int) string {
	return fmt.Sprintf("%s-%04d%02d-%04d", prefix, year, month, serial)
}

// String formats n.
func (n Number) String() string {
	return Format(n.Prefix, n.Year, n.Month, n.Serial)
}

// Parse parses "INV-202406-0001" into its parts. The prefix may itself
// contain dashes; the period and serial are the last two segments.
func Parse(s string) (Number, error) {
	serialAt := strings.LastIndexByte(s, '-')
	if serialAt <= 0 {
		return Number{}, fmt.Errorf("invalid document number format: %q", s)
	}
	periodAt := strings.LastIndexByte(s[:serialAt], '-')
	if periodAt <= 0 {
		return Number{}, fmt.Errorf("invalid document number format: %q", s)
	}

	prefix := s[:periodAt]
	period := s[periodAt+1 : serialAt]
	serialStr := s[serialAt+1:]

	if len(period) != 6 {
		return Number{}, fmt.Errorf("invalid period in document number %q", s)
	}
	year, err := strconv.Atoi(period[:4])
	if err != nil {
		return Number{}, fmt.Errorf("invalid year in document number %q: %w", s, err)
	}
	month, err := strconv.Atoi(period[4:])
	if err != nil {
		return Number{}, fmt.Errorf("invalid month in document number %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return Number{}, fmt.Errorf("invalid month in document number %q", s)
	}

	serial, err := strconv.Atoi(serialStr)
	if err != nil {
		return Number{}, fmt.Errorf("invalid serial in document number %q: %w", s, err)
	}
	if serial < 1 {
		return Number{}, fmt.Errorf("invalid serial in document number %q", s)
	}

	return Number{Prefix: prefix, Year: year, Month: month, Serial: serial}, nil
}
