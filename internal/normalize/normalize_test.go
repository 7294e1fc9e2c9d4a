package normalize

import (
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"  Razón   Social ": "razon social",
		"N° ORDEN":          "n° orden",
		"Número de Orden":   "numero de orden",
		"REPORTE\tGENERAL":  "reporte general",
		"":                  "",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpedientCode(t *testing.T) {
	cases := map[string]string{
		"AB-00123-X":  "00123",
		"123":         "00123",
		"2024-987654": "87654",
		"SIN CODIGO":  "",
		"":            "",
	}
	for in, want := range cases {
		if got := ExpedientCode(in); got != want {
			t.Fatalf("ExpedientCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOrderNumber(t *testing.T) {
	cases := map[string]string{
		"12.5":      "012.5",
		" 7 ":       "007",
		"1234":      "234",
		"OC-45":     "045",
		".5":        "000.5",
		"12.":       "012",
		"1.2.3":     "001.2",
		"N° 3.25":   "003.25",
		"9999.0010": "999.0010",
		"sin":       "",
		"   ":       "",
	}
	for in, want := range cases {
		if got := OrderNumber(in); got != want {
			t.Fatalf("OrderNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOrderNumberIntegerPartAlwaysThreeDigits(t *testing.T) {
	inputs := []string{"1.1", "22.02", "333.3", "4444.44", "0.7", "55555.5", "x6.9y"}
	for _, in := range inputs {
		got := OrderNumber(in)
		intPart, frac, ok := strings.Cut(got, ".")
		if !ok {
			t.Fatalf("OrderNumber(%q) = %q, expected a fractional suffix", in, got)
		}
		if len(intPart) != 3 {
			t.Fatalf("OrderNumber(%q) integer part %q is not 3 digits", in, intPart)
		}
		_, wantFrac, _ := strings.Cut(in, ".")
		wantFrac = strings.TrimRight(wantFrac, "y")
		if frac != wantFrac {
			t.Fatalf("OrderNumber(%q) fraction %q, want %q", in, frac, wantFrac)
		}
	}
}

func TestToNumber(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
		want  string
	}{
		{"1,234.50", true, "1234.5"},
		{" 12 345 ", true, "12345"},
		{"1,000,000", true, "1000000"},
		{"0", true, "0"},
		{"-15.25", true, "-15.25"},
		{"", false, ""},
		{"   ", false, ""},
		{"S/ 100", false, ""},
		{"NaN", false, ""},
		{"(100)", false, ""},
	}
	for _, tc := range cases {
		got := ToNumber(tc.in)
		if got.Valid != tc.valid {
			t.Fatalf("ToNumber(%q) valid = %v, want %v", tc.in, got.Valid, tc.valid)
		}
		if tc.valid && !got.Decimal.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("ToNumber(%q) = %s, want %s", tc.in, got.Decimal, tc.want)
		}
	}
}

func TestToNumberMatchesCommaStrippedParse(t *testing.T) {
	for _, in := range []string{"1,234", "12,345.67", "9,999,999.99", "1,2,3"} {
		want, err := strconv.ParseFloat(strings.ReplaceAll(in, ",", ""), 64)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", in, err)
		}
		got := ToNumber(in)
		if !got.Valid || got.Decimal.InexactFloat64() != want {
			t.Fatalf("ToNumber(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCurrencyFromText(t *testing.T) {
	cases := map[string]Currency{
		"Dolares Americanos": USD,
		"Dólares":            PEN,
		"DOLARES":            USD,
		"usd":                USD,
		"Soles":              PEN,
		"PEN":                PEN,
		"Euros":              EUR,
		"":                   PEN,
		"Yenes":              PEN,
		"SOLES / USD":        PEN,
	}
	for in, want := range cases {
		got := CurrencyFromText(in)
		if got != want {
			t.Fatalf("CurrencyFromText(%q) = %s, want %s", in, got, want)
		}
		if got != PEN && got != USD && got != EUR {
			t.Fatalf("CurrencyFromText(%q) returned unknown code %s", in, got)
		}
	}
}

func TestISODate(t *testing.T) {
	cases := []struct {
		cell     Cell
		date1904 bool
		want     string
	}{
		{NumberCell("45292"), false, "2024-01-01"},
		{NumberCell("45292.75"), false, "2024-01-01"},
		{NumberCell("45292"), true, "2028-01-02"},
		{NumberCell("0"), false, ""},
		{Cell{Text: "2024-03-05T00:00:00Z", Kind: CellDate}, false, "2024-03-05"},
		{TextCell(" 05/03/2024 "), false, "05/03/2024"},
		{TextCell("45292"), false, "45292"},
		{TextCell("  "), false, ""},
		{Cell{}, false, ""},
	}
	for _, tc := range cases {
		if got := ISODate(tc.cell, tc.date1904); got != tc.want {
			t.Fatalf("ISODate(%+v, %v) = %q, want %q", tc.cell, tc.date1904, got, tc.want)
		}
	}
}

func TestOrderCode(t *testing.T) {
	cases := []struct {
		exp, typ, num string
		want          string
	}{
		{"00123", "OC", "012.5", "SIAF-00123 OC 012.5"},
		{"", "OS", "045", "OS 045"},
		{"00001", "", "", "SIAF-00001"},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		if got := OrderCode(tc.exp, tc.typ, tc.num); got != tc.want {
			t.Fatalf("OrderCode(%q,%q,%q) = %q, want %q", tc.exp, tc.typ, tc.num, got, tc.want)
		}
	}
}

func TestIsHTTPURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.org/doc.pdf": true,
		"HTTP://files.local/a":        true,
		"ftp://example.org/a":         false,
		"javascript:alert(1)":         false,
		"/relative/path":              false,
		"":                            false,
	}
	for in, want := range cases {
		if got := IsHTTPURL(in); got != want {
			t.Fatalf("IsHTTPURL(%q) = %v, want %v", in, got, want)
		}
	}
}
