// Package normalize turns raw worksheet values into canonical order fields.
//
// Every function here is total: malformed input degrades to an empty string,
// a null amount or the default currency, never to an error.
package normalize

import (
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Currency is one of the supported ISO 4217 codes.
type Currency string

const (
	PEN Currency = "PEN"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// CellKind describes how a worksheet stored a value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// Cell is a raw worksheet value together with its storage kind.
type Cell struct {
	Text string
	Kind CellKind
}

// TextCell wraps a plain string value.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{Text: s, Kind: CellEmpty}
	}
	return Cell{Text: s, Kind: CellText}
}

// NumberCell wraps a numeric value as the worksheet stores it.
func NumberCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{Text: s, Kind: CellEmpty}
	}
	return Cell{Text: s, Kind: CellNumber}
}

const isoDate = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	isoDate,
}

// Fold lowercases s, strips diacritics and collapses runs of whitespace.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(folded), " ")
}

// ISODate renders a worksheet date value as YYYY-MM-DD. Day serials are
// decoded with the workbook epoch; free text is passed through trimmed.
func ISODate(c Cell, date1904 bool) string {
	text := strings.TrimSpace(c.Text)
	if c.Kind == CellEmpty || text == "" {
		return ""
	}

	switch c.Kind {
	case CellNumber:
		serial, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return text
		}
		date, _ := DateFromSerial(serial, date1904)
		return date
	case CellDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return t.Format(isoDate)
			}
		}
	}
	return text
}

// DateFromSerial decodes a spreadsheet day serial. Non-positive serials are
// treated as absent.
func DateFromSerial(serial float64, date1904 bool) (string, bool) {
	if serial <= 0 {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	return t.Format(isoDate), true
}

// ToNumber parses an amount, dropping whitespace and thousands commas.
func ToNumber(s string) decimal.NullDecimal {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// CurrencyFromText maps free text to a currency code, defaulting to PEN.
// Matching is on the uppercased text as written, so an accented "Dólares"
// is not recognised as USD.
func CurrencyFromText(s string) Currency {
	txt := strings.ToUpper(s)
	switch {
	case strings.Contains(txt, "PEN"), strings.Contains(txt, "SOL"):
		return PEN
	case strings.Contains(txt, "USD"), strings.Contains(txt, "DOLAR"):
		return USD
	case strings.Contains(txt, "EUR"):
		return EUR
	default:
		return PEN
	}
}

// ExpedientCode keeps the rightmost five digits of s, zero padded.
func ExpedientCode(s string) string {
	d := digitsOnly(s)
	if d == "" {
		return ""
	}
	return padLeft(lastN(d, 5), 5)
}

// OrderNumber zero pads the integer part to three digits and keeps any
// fractional suffix verbatim: "12.5" becomes "012.5", "1234" becomes "234".
func OrderNumber(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return ""
	}

	intPart, rest, hasDot := strings.Cut(cleaned, ".")
	if !hasDot {
		return padLeft(lastN(cleaned, 3), 3)
	}

	// Only the segment up to a second dot counts as the fraction.
	frac, _, _ := strings.Cut(rest, ".")
	if intPart == "" {
		intPart = "0"
	}
	padded := padLeft(lastN(intPart, 3), 3)
	if frac == "" {
		return padded
	}
	return padded + "." + frac
}

// OrderCode builds the display label "SIAF-<exp> <type> <number>",
// omitting empty parts.
func OrderCode(expedientCode, orderType, orderNumber string) string {
	parts := make([]string, 0, 3)
	if expedientCode != "" {
		parts = append(parts, "SIAF-"+expedientCode)
	}
	if orderType != "" {
		parts = append(parts, orderType)
	}
	if orderNumber != "" {
		parts = append(parts, orderNumber)
	}
	return strings.Join(parts, " ")
}

// IsHTTPURL reports whether s is an absolute http or https URL.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
