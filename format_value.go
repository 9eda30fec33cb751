package docxtemplate

import (
	"strconv"
	"strings"
	"time"
)

// cultureNumberSeparators returns the decimal and thousands separators for a culture identifier
// (§4.8.2, §9 "pluggable, not process-global"). Unrecognized cultures fall back to "en-US" rules.
func cultureNumberSeparators(culture string) (decimal, thousands string) {
	switch strings.ToLower(culture) {
	case "de-de", "de", "fr-fr", "fr", "es-es", "es", "it-it", "it":
		return ",", "."
	default:
		return ".", ","
	}
}

// FormatValue renders v as the substitution text for a placeholder (§4.8.2), honoring an optional
// format specifier and the configured culture.
func FormatValue(v Value, format *string, opts ProcessingOptions) string {
	switch v.Kind() {
	case KindBool:
		return formatBool(v, format, opts)
	case KindInt, KindFloat:
		return formatNumber(v, format, opts.Culture)
	case KindDate:
		return formatDate(v, format, opts.Culture)
	default:
		return v.String()
	}
}

func formatBool(v Value, format *string, opts ProcessingOptions) string {
	b, _ := v.AsBool()
	if format != nil {
		spec := strings.ToLower(strings.TrimSpace(*format))
		if fm, ok := opts.BooleanFormatterRegistry[spec]; ok {
			if b {
				return fm.True
			}
			return fm.False
		}
	}
	return v.String() // unknown/absent specifier -> default "True"/"False"
}

// formatNumber supports fixed-decimal specifiers: "N" or "F" (either case) optionally followed by
// a decimal count ("N2", "F0", …); a bare or non-numeric count means 2 decimals. No thousands
// separator is written. Any other specifier (or none) falls back to the value's default string
// form, with the culture's decimal separator substituted in.
func formatNumber(v Value, format *string, culture string) string {
	decimal, thousands := cultureNumberSeparators(culture)
	_ = thousands

	var f float64
	switch v.Kind() {
	case KindInt:
		i, _ := v.AsInt()
		f = float64(i)
	case KindFloat:
		f, _ = v.AsFloat()
	}

	if format != nil {
		spec := strings.TrimSpace(*format)
		if len(spec) >= 1 && (spec[0] == 'N' || spec[0] == 'n' || spec[0] == 'F' || spec[0] == 'f') {
			decimals := 2
			if len(spec) > 1 {
				if n, err := strconv.Atoi(spec[1:]); err == nil {
					decimals = n
				}
			}
			s := strconv.FormatFloat(f, 'f', decimals, 64)
			return strings.Replace(s, ".", decimal, 1)
		}
	}

	s := v.String()
	if decimal != "." {
		s = strings.Replace(s, ".", decimal, 1)
	}
	return s
}

// formatDate supports a small whitelist of literal date tokens (yyyy, MM, dd, HH, mm, ss); an
// absent or empty format falls back to a culture-appropriate short date. Any other format is
// applied token by token, with characters that are not tokens copied through literally.
func formatDate(v Value, format *string, culture string) string {
	t, _ := v.AsDate()
	if format == nil || *format == "" {
		return defaultDateLayout(culture, t)
	}
	return applyDateTokens(*format, t)
}

func defaultDateLayout(culture string, t time.Time) string {
	switch strings.ToLower(culture) {
	case "de-de", "de", "fr-fr", "fr", "es-es", "es", "it-it", "it":
		return t.Format("02.01.2006")
	default:
		return t.Format("01/02/2006")
	}
}

var dateTokenOrder = []string{"yyyy", "MM", "dd", "HH", "mm", "ss"}

func applyDateTokens(format string, t time.Time) string {
	layoutFor := map[string]string{
		"yyyy": "2006",
		"MM":   "01",
		"dd":   "02",
		"HH":   "15",
		"mm":   "04",
		"ss":   "05",
	}
	var b strings.Builder
	i := 0
	for i < len(format) {
		matched := false
		for _, tok := range dateTokenOrder {
			if strings.HasPrefix(format[i:], tok) {
				b.WriteString(t.Format(layoutFor[tok]))
				i += len(tok)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}
