// Package format renders timestamps and axis values as text.
//
// Date patterns and value formats use the d3 directive syntax that chart
// configurations are written in ("%-m/%-d/%y %H:%M:%S", ",.2f", ".3s"), so
// the same stored menu options drive every surface.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	// DefaultDateFormat is used for regular charts when no date format is configured
	DefaultDateFormat = "%-m/%-d/%y %H:%M:%S"

	// DefaultSmallDateFormat is used for small charts when no date format is configured
	DefaultSmallDateFormat = "%-m/%-d %H:%M"

	// defaultPrecision bounds the digits of a value formatted without an explicit format
	defaultPrecision = 6
)

// Formatter turns timestamps and values into labels.
type Formatter interface {
	// Date formats a Unix millisecond timestamp
	Date(ms int64) string

	// Tick formats an axis or tooltip value
	Tick(v float64) string
}

// D3 is the default Formatter, driven by d3-style patterns.
type D3 struct {
	loc        *time.Location
	dateLayout string
	number     numberFormat
	gmt        bool
}

// New creates a formatter.
//
// With gmt set dates are rendered in UTC, otherwise in the local time zone. An
// empty dateLayout selects DefaultDateFormat, or DefaultSmallDateFormat for a
// small chart. An unparsable yFormat falls back to the plain number format.
func New(gmt bool, dateLayout, yFormat string, small bool) *D3 {
	loc := time.Local
	if gmt {
		loc = time.UTC
	}
	if dateLayout == "" {
		dateLayout = DefaultDateFormat
		if small {
			dateLayout = DefaultSmallDateFormat
		}
	}

	nf, ok := parseNumberFormat(yFormat)
	if !ok {
		log.Warn().Str("format", yFormat).Msg("Unsupported value format, using default")
	}

	return &D3{loc: loc, dateLayout: dateLayout, number: nf, gmt: gmt}
}

// Date formats a Unix millisecond timestamp with the configured pattern.
func (f *D3) Date(ms int64) string {
	return FormatTime(time.UnixMilli(ms).In(f.loc), f.dateLayout)
}

// Range formats the label shown above a chart for the visible window.
func (f *D3) Range(lo, hi int64) string {
	label := f.Date(lo) + " - " + f.Date(hi)
	if f.gmt {
		label += " (GMT)"
	}
	return label
}

// Tick formats a value with the configured value format.
func (f *D3) Tick(v float64) string {
	return f.number.format(v)
}

// FormatTime renders t following a d3 time format pattern.
//
// Supported directives: %Y %y %m %-m %d %-d %e %H %-H %I %M %S %L %p %b %B %a
// %A %j %Z and %%. Unknown directives are copied verbatim.
func FormatTime(t time.Time, pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 == len(pattern) {
			b.WriteByte(c)
			continue
		}

		i++
		pad := true
		if pattern[i] == '-' && i+1 < len(pattern) {
			pad = false
			i++
		}

		switch pattern[i] {
		case 'Y':
			b.WriteString(strconv.Itoa(t.Year()))
		case 'y':
			writeNum(&b, t.Year()%100, 2, pad)
		case 'm':
			writeNum(&b, int(t.Month()), 2, pad)
		case 'd':
			writeNum(&b, t.Day(), 2, pad)
		case 'e':
			if pad && t.Day() < 10 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(t.Day()))
		case 'H':
			writeNum(&b, t.Hour(), 2, pad)
		case 'I':
			h := t.Hour() % 12
			if h == 0 {
				h = 12
			}
			writeNum(&b, h, 2, pad)
		case 'M':
			writeNum(&b, t.Minute(), 2, pad)
		case 'S':
			writeNum(&b, t.Second(), 2, pad)
		case 'L':
			writeNum(&b, t.Nanosecond()/int(time.Millisecond), 3, pad)
		case 'p':
			if t.Hour() < 12 {
				b.WriteString("AM")
			} else {
				b.WriteString("PM")
			}
		case 'b':
			b.WriteString(t.Month().String()[:3])
		case 'B':
			b.WriteString(t.Month().String())
		case 'a':
			b.WriteString(t.Weekday().String()[:3])
		case 'A':
			b.WriteString(t.Weekday().String())
		case 'j':
			writeNum(&b, t.YearDay(), 3, pad)
		case 'Z':
			b.WriteString(t.Format("-0700"))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			if !pad {
				b.WriteByte('-')
			}
			b.WriteByte(pattern[i])
		}
	}
	return b.String()
}

func writeNum(b *strings.Builder, v, width int, pad bool) {
	s := strconv.Itoa(v)
	if pad {
		for i := len(s); i < width; i++ {
			b.WriteByte('0')
		}
	}
	b.WriteString(s)
}

// numberFormat is the parsed form of a d3 number format such as ",.2f".
type numberFormat struct {
	group     bool
	precision int // -1 when not given
	kind      byte
}

// parseNumberFormat parses the subset [,][.precision][type] with type in f d e s %.
// An empty pattern is valid and formats values with up to six decimals.
func parseNumberFormat(pattern string) (numberFormat, bool) {
	nf := numberFormat{precision: -1}
	p := strings.TrimSpace(pattern)
	if p == "" {
		return nf, true
	}

	if strings.HasPrefix(p, ",") {
		nf.group = true
		p = p[1:]
	}
	if n := len(p); n > 0 && strings.ContainsRune("fdes%", rune(p[n-1])) {
		nf.kind = p[n-1]
		p = p[:n-1]
	}
	if strings.HasPrefix(p, ".") {
		prec, err := strconv.Atoi(p[1:])
		if err != nil || prec < 0 {
			return numberFormat{precision: -1}, false
		}
		nf.precision = prec
		p = ""
	}
	if p != "" {
		return numberFormat{precision: -1}, false
	}
	return nf, true
}

// siPrefixes are the d3 SI prefixes from yocto to yotta.
var siPrefixes = []string{"y", "z", "a", "f", "p", "n", "µ", "m", "", "k", "M", "G", "T", "P", "E", "Z", "Y"}

func (s numberFormat) format(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 1) {
		return "Infinity"
	}
	if math.IsInf(v, -1) {
		return "-Infinity"
	}

	var out string
	switch s.kind {
	case 'f':
		out = decimal.NewFromFloat(v).StringFixed(int32(s.precisionOr(6)))
	case 'd':
		out = decimal.NewFromFloat(v).Round(0).String()
	case 'e':
		out = strconv.FormatFloat(v, 'e', s.precisionOr(6), 64)
	case '%':
		out = decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(int32(s.precisionOr(6))) + "%"
	case 's':
		out = siFormat(v, s.precisionOr(6))
	default:
		precision := int32(defaultPrecision)
		if s.precision >= 0 {
			precision = int32(s.precision)
		}
		out = decimal.NewFromFloat(v).Round(precision).String()
	}

	if s.group {
		out = groupThousands(out)
	}
	return out
}

func (s numberFormat) precisionOr(def int) int {
	if s.precision < 0 {
		return def
	}
	return s.precision
}

// siFormat renders v with the given number of significant digits and an SI prefix.
func siFormat(v float64, significant int) string {
	if significant < 1 {
		significant = 1
	}
	if v == 0 {
		return decimal.Zero.StringFixed(int32(significant - 1))
	}

	exp := int(math.Floor(math.Log10(math.Abs(v))/3)) * 3
	exp = max(-24, min(24, exp))
	scaled := decimal.NewFromFloat(v).Shift(int32(-exp))

	// rounding may carry into the next power of a thousand, e.g. 999.6 -> 1.00k
	magnitude := int(math.Floor(math.Log10(math.Abs(scaled.InexactFloat64()))))
	places := significant - 1 - magnitude
	rounded := scaled.Round(int32(places))
	if rounded.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) && exp < 24 {
		exp += 3
		scaled = decimal.NewFromFloat(v).Shift(int32(-exp))
		places = significant - 1
	}
	if places < 0 {
		places = 0
	}

	return scaled.StringFixed(int32(places)) + siPrefixes[exp/3+8]
}

// groupThousands inserts commas into the integer part of a formatted number.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, rest := s, ""
	if i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		intPart, rest = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + s
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + rest
}

// Padded formats v with exactly trailing decimals and at least leading integer
// digits, zero padded on the left.
func Padded(v float64, leading, trailing int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return numberFormat{precision: -1}.format(v)
	}

	s := decimal.NewFromFloat(v).StringFixed(int32(max(trailing, 0)))
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intLen := len(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intLen = i
	}
	if intLen < leading {
		s = strings.Repeat("0", leading-intLen) + s
	}
	return sign + s
}
