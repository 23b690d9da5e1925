package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Format describes one delimiter/number convention of a sales file.
// Thousands of zero means no grouping separator is expected.
type Format struct {
	Name      string
	Separator rune
	Thousands rune
	Decimal   rune
}

// Fallback formats tried in order when loading a file. The first one whose
// header parses into at least two columns wins; numeric coercion then follows
// that format's thousands/decimal convention.
var parseFormats = []Format{
	{Name: "comma-grouped", Separator: ',', Thousands: ',', Decimal: '.'},
	{Name: "comma-french", Separator: ',', Thousands: ' ', Decimal: ','},
	{Name: "comma-plain", Separator: ',', Decimal: '.'},
	{Name: "semicolon", Separator: ';', Decimal: '.'},
}

// defaultFormat is used for the final unguarded parse attempt and for
// files produced by the exporter.
var defaultFormat = Format{Name: "comma-plain", Separator: ',', Decimal: '.'}

// ParseNumber coerces a cell to a float using the format's conventions.
func (f Format) ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	if f.Thousands != 0 {
		s = strings.ReplaceAll(s, string(f.Thousands), "")
	}
	if f.Decimal != 0 && f.Decimal != '.' {
		s = strings.ReplaceAll(s, string(f.Decimal), ".")
	}
	return strconv.ParseFloat(s, 64)
}

// FormatNumber renders a float the way the exporter writes it back out,
// trimming a trailing fractional zero so integers stay integers.
func (f Format) FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
