package spreadsheet

import (
	"slices"
	"strings"

	"github.com/Additional-Code/ordenes/internal/normalize"
)

// Field names a canonical order attribute read from the worksheet.
type Field string

const (
	FieldExpedient   Field = "expedient_code"
	FieldOrderType   Field = "order_type"
	FieldOrderNumber Field = "order_number"
	FieldIssueDate   Field = "issue_date"
	FieldSupplier    Field = "supplier_name"
	FieldTaxID       Field = "supplier_tax_id"
	FieldRequester   Field = "requester_name"
	FieldArea        Field = "requester_area"
	FieldTitle       Field = "title"
	FieldStatus      Field = "status"
	FieldAmount      Field = "amount"
	FieldCurrency    Field = "currency"
	FieldFileURL     Field = "file_url"
)

// Match selects how an alias is compared with a folded header.
type Match int

const (
	Contains Match = iota
	Exact
	Prefix
)

// Alias is one header spelling accepted for a field. Text is compared
// against folded headers as-is, so it must already be folded.
type Alias struct {
	Match Match
	Text  string
}

func (a Alias) matches(folded string) bool {
	switch a.Match {
	case Exact:
		return folded == a.Text
	case Prefix:
		return strings.HasPrefix(folded, a.Text)
	default:
		return strings.Contains(folded, a.Text)
	}
}

// Rule lists the aliases of a field in fallback order.
type Rule struct {
	Field   Field
	Aliases []Alias
}

func contains(texts ...string) []Alias {
	out := make([]Alias, 0, len(texts))
	for _, t := range texts {
		out = append(out, Alias{Match: Contains, Text: t})
	}
	return out
}

// DefaultRules is the header table of the "REPORTE" purchase-order workbook.
var DefaultRules = []Rule{
	{Field: FieldExpedient, Aliases: contains("siaf")},
	{Field: FieldOrderType, Aliases: contains("tipo de orden")},
	{Field: FieldOrderNumber, Aliases: contains("n°orden", "n° orden", "norden", "numero de orden")},
	{Field: FieldIssueDate, Aliases: contains("fecha")},
	{Field: FieldSupplier, Aliases: contains("razon social")},
	{Field: FieldTaxID, Aliases: []Alias{
		{Match: Exact, Text: "ruc"},
		{Match: Contains, Text: " ruc"},
		{Match: Contains, Text: "ruc"},
	}},
	{Field: FieldRequester, Aliases: contains("solicitante")},
	{Field: FieldArea, Aliases: contains("oficina solicitante", "oficina")},
	{Field: FieldTitle, Aliases: contains("concepto detallado", "concepto corto")},
	{Field: FieldStatus, Aliases: contains("estado")},
	// "total" is last: it may also hit unrelated grand-total columns.
	{Field: FieldAmount, Aliases: contains("precio x orden", "precio por orden", "precio total", "total")},
	{Field: FieldCurrency, Aliases: contains("tipo de moneda", "moneda")},
	{Field: FieldFileURL, Aliases: []Alias{{Match: Prefix, Text: "script"}}},
}

// Resolution maps each field to its candidate column indexes, in alias order.
type Resolution map[Field][]int

// Columns returns the candidate columns for f.
func (r Resolution) Columns(f Field) []int {
	return r[f]
}

// Headers returns the raw header text of the first candidate of every
// resolved field, for logging and diagnostics.
func (r Resolution) Headers(headers []string) map[Field]string {
	out := make(map[Field]string, len(r))
	for field, cols := range r {
		if len(cols) > 0 && cols[0] < len(headers) {
			out[field] = headers[cols[0]]
		}
	}
	return out
}

// Resolve matches every rule against the worksheet headers once. For each
// alias the first matching header wins; fields with no match are absent.
func Resolve(headers []string, rules []Rule) Resolution {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = normalize.Fold(h)
	}

	res := make(Resolution, len(rules))
	for _, rule := range rules {
		var cols []int
		for _, alias := range rule.Aliases {
			idx := findFolded(folded, alias)
			if idx < 0 || slices.Contains(cols, idx) {
				continue
			}
			cols = append(cols, idx)
		}
		if len(cols) > 0 {
			res[rule.Field] = cols
		}
	}
	return res
}

// FindHeader returns the first raw header whose folded form contains the
// folded name.
func FindHeader(headers []string, name string) (string, bool) {
	needle := normalize.Fold(name)
	if needle == "" {
		return "", false
	}
	for _, h := range headers {
		if strings.Contains(normalize.Fold(h), needle) {
			return h, true
		}
	}
	return "", false
}

func findFolded(folded []string, alias Alias) int {
	if alias.Text == "" {
		return -1
	}
	for i, h := range folded {
		if h != "" && alias.matches(h) {
			return i
		}
	}
	return -1
}
