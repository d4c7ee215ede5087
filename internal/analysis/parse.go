package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numericLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// parseNumeric parses a finite real number written with optional sign,
// thousands separators, decimal separator, exponent and a trailing '%'.
// When the locale is not configured it is guessed per value: with both ','
// and '.' present the last one is the decimal separator; a lone ',' followed
// by exactly three digits is a thousands separator.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	// Normalize spaces
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.ReplaceAll(raw, "\u202F", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			if strings.Count(raw, ",") > 1 || len(raw)-cpos-1 == 3 {
				dec, thou = '.', ','
			} else {
				dec = ','
			}
		default:
			dec = '.'
		}
	}
	var seps []rune
	switch {
	case thou == 0:
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				seps = append(seps, sep)
			}
		}
	case thou != dec:
		seps = []rune{thou}
	}
	var ok bool
	if raw, ok = ungroup(raw, dec, seps); !ok {
		return 0, false
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if !numericLiteral.MatchString(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// out of range
		return 0, false
	}
	return f, true
}

// ungroup drops digit-group separators from the integer part of s. The first
// group has one to three digits and every later group exactly three, so
// "1,234,567" is accepted while "1,2,3" and "3 4" are not.
func ungroup(s string, dec rune, seps []rune) (string, bool) {
	intPart, rest := s, ""
	if i := strings.IndexRune(s, dec); i >= 0 {
		intPart, rest = s[:i], s[i:]
	}
	var sep rune
	for _, r := range seps {
		if strings.ContainsRune(rest, r) {
			return "", false
		}
		if strings.ContainsRune(intPart, r) {
			if sep != 0 {
				return "", false
			}
			sep = r
		}
	}
	if sep == 0 {
		return s, true
	}
	sign := ""
	if strings.HasPrefix(intPart, "+") || strings.HasPrefix(intPart, "-") {
		sign, intPart = intPart[:1], intPart[1:]
	}
	groups := strings.Split(intPart, string(sep))
	for i, g := range groups {
		if len(g) == 0 || len(g) > 3 || (i > 0 && len(g) != 3) || strings.Trim(g, "0123456789") != "" {
			return "", false
		}
	}
	return sign + strings.Join(groups, "") + rest, true
}

// parseBoolLiteral recognizes true/false/yes/no. "0" and "1" are ambiguous
// with numbers and are never booleans.
func parseBoolLiteral(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

// Only layouts whose field order cannot be confused; 01/02/2006 is excluded.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

func parseDate(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
