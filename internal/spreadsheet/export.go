package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Additional-Code/ordenes/internal/entity"
)

// ExportSheet is the worksheet name of exported workbooks.
const ExportSheet = "ORDENES"

// ExportHeaders is the header row of exported workbooks.
var ExportHeaders = []string{
	"EXP SIAF", "Tipo", "N° Orden", "Fecha", "Razón Social", "RUC", "Solicitante",
	"Oficina", "Concepto (detallado)", "Total", "Moneda", "Estado", "Link",
}

// WriteOrders streams orders into a single-sheet workbook and writes it to w.
func WriteOrders(w io.Writer, orders []entity.Order) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("rename export sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(ExportSheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(ExportHeaders), 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	header := make([]interface{}, len(ExportHeaders))
	for i, h := range ExportHeaders {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i := range orders {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, exportRow(&orders[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush export sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func exportRow(o *entity.Order) []interface{} {
	var amount interface{} = ""
	if o.Amount.Valid {
		amount = o.Amount.Decimal.InexactFloat64()
	}
	return []interface{}{
		o.ExpedientCode,
		o.OrderType,
		o.OrderNumber,
		o.IssueDate,
		o.SupplierName,
		o.SupplierTaxID,
		o.RequesterName,
		o.RequesterArea,
		o.Title,
		amount,
		o.Currency,
		o.Status,
		o.FileURL,
	}
}
