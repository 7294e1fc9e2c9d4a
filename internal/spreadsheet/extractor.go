package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/entity"
	"github.com/Additional-Code/ordenes/internal/normalize"
)

const (
	defaultSheetHint = "reporte"
	defaultHeaderRow = 3
)

// MissingSheetError is returned when no worksheet name contains the hint.
type MissingSheetError struct {
	Hint   string
	Sheets []string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("no worksheet matching %q found (sheets: %s)", e.Hint, strings.Join(e.Sheets, ", "))
}

// Extractor turns the purchase-order worksheet of a workbook into canonical
// order records.
type Extractor struct {
	sheetHint string
	headerRow int
	rules     []Rule
	logger    *zap.Logger
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithSheetHint overrides the substring used to pick the worksheet.
func WithSheetHint(hint string) Option {
	return func(e *Extractor) {
		if h := normalize.Fold(hint); h != "" {
			e.sheetHint = h
		}
	}
}

// WithHeaderRow sets the 1-based header row; data starts on the next row.
func WithHeaderRow(row int) Option {
	return func(e *Extractor) {
		if row > 0 {
			e.headerRow = row
		}
	}
}

// WithRules replaces the header alias table.
func WithRules(rules []Rule) Option {
	return func(e *Extractor) {
		if len(rules) > 0 {
			e.rules = rules
		}
	}
}

// WithLogger attaches a logger for header diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor builds an Extractor for the "REPORTE" layout: headers on row 3.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		sheetHint: defaultSheetHint,
		headerRow: defaultHeaderRow,
		rules:     DefaultRules,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFile opens the workbook at path and extracts its orders.
func (e *Extractor) ExtractFile(path string) ([]entity.Order, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return e.Extract(f)
}

// Extract reads the matching worksheet. Rows without expedient code, order
// number, supplier and title are dropped; the rest keep their sheet order.
func (e *Extractor) Extract(f *excelize.File) ([]entity.Order, error) {
	sheets := f.GetSheetList()
	sheet, ok := e.findSheet(sheets)
	if !ok {
		return nil, &MissingSheetError{Hint: e.sheetHint, Sheets: sheets}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheet, err)
	}
	if len(rows) < e.headerRow {
		return []entity.Order{}, nil
	}

	headers := rows[e.headerRow-1]
	res := Resolve(headers, e.rules)
	e.logger.Debug("worksheet headers resolved",
		zap.String("sheet", sheet),
		zap.Any("headers", res.Headers(headers)),
	)

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	out := make([]entity.Order, 0, len(rows)-e.headerRow)
	dataIndex := 0
	for i := e.headerRow; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		r := rowReader{file: f, sheet: sheet, cells: row, sheetRow: i + 1, res: res, date1904: date1904}
		order := r.order()
		order.SourceRow = dataIndex + e.headerRow
		dataIndex++

		if order.IsBlank() {
			continue
		}
		out = append(out, order)
	}
	return out, nil
}

func (e *Extractor) findSheet(sheets []string) (string, bool) {
	for _, name := range sheets {
		if strings.Contains(normalize.Fold(name), e.sheetHint) {
			return name, true
		}
	}
	return "", false
}

// rowReader applies a Resolution to one worksheet row.
type rowReader struct {
	file     *excelize.File
	sheet    string
	cells    []string
	sheetRow int
	res      Resolution
	date1904 bool
}

func (r rowReader) order() entity.Order {
	expedient := normalize.ExpedientCode(r.text(FieldExpedient))
	orderType := r.text(FieldOrderType)
	orderNumber := normalize.OrderNumber(r.text(FieldOrderNumber))

	fileURL := r.text(FieldFileURL)
	if !normalize.IsHTTPURL(fileURL) {
		fileURL = ""
	}

	return entity.Order{
		ExpedientCode: expedient,
		OrderType:     orderType,
		OrderNumber:   orderNumber,
		OrderCode:     normalize.OrderCode(expedient, orderType, orderNumber),
		SupplierName:  r.text(FieldSupplier),
		SupplierTaxID: r.text(FieldTaxID),
		RequesterName: r.text(FieldRequester),
		RequesterArea: r.text(FieldArea),
		Title:         r.text(FieldTitle),
		Amount:        r.amount(),
		Currency:      string(normalize.CurrencyFromText(r.text(FieldCurrency))),
		Status:        r.text(FieldStatus),
		IssueDate:     normalize.ISODate(r.cell(FieldIssueDate), r.date1904),
		FileURL:       fileURL,
	}
}

func (r rowReader) raw(col int) string {
	if col < 0 || col >= len(r.cells) {
		return ""
	}
	return r.cells[col]
}

// blankFallback lists the fields whose later aliases are read when the
// earlier columns are blank on a row. Every other field reads its first
// resolved column only, even when that cell is empty.
var blankFallback = map[Field]bool{
	FieldOrderNumber: true,
	FieldArea:        true,
	FieldTitle:       true,
	FieldCurrency:    true,
	FieldAmount:      true,
}

func (r rowReader) columns(f Field) []int {
	cols := r.res.Columns(f)
	if len(cols) > 1 && !blankFallback[f] {
		return cols[:1]
	}
	return cols
}

// text returns the first non-blank candidate value, trimmed.
func (r rowReader) text(f Field) string {
	for _, col := range r.columns(f) {
		if v := strings.TrimSpace(r.raw(col)); v != "" {
			return v
		}
	}
	return ""
}

// amount returns the first candidate value that parses as a number.
func (r rowReader) amount() decimal.NullDecimal {
	for _, col := range r.columns(FieldAmount) {
		if v := normalize.ToNumber(r.raw(col)); v.Valid {
			return v
		}
	}
	return decimal.NullDecimal{}
}

// cell returns the first non-blank candidate together with its storage kind.
func (r rowReader) cell(f Field) normalize.Cell {
	for _, col := range r.columns(f) {
		v := r.raw(col)
		if strings.TrimSpace(v) == "" {
			continue
		}
		return normalize.Cell{Text: v, Kind: r.kind(col)}
	}
	return normalize.Cell{}
}

func (r rowReader) kind(col int) normalize.CellKind {
	axis, err := excelize.CoordinatesToCellName(col+1, r.sheetRow)
	if err != nil {
		return normalize.CellText
	}
	typ, err := r.file.GetCellType(r.sheet, axis)
	if err != nil {
		return normalize.CellText
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return normalize.CellNumber
	case excelize.CellTypeDate:
		return normalize.CellDate
	default:
		return normalize.CellText
	}
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
