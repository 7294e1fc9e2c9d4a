package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Order is one purchase order line of the latest imported batch.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID            int64               `bun:"id,pk,autoincrement"`
	ExpedientCode string              `bun:"expedient_code,notnull"`
	OrderType     string              `bun:"order_type,notnull"`
	OrderNumber   string              `bun:"order_number,notnull"`
	OrderCode     string              `bun:"order_code,notnull"`
	SupplierName  string              `bun:"supplier_name,notnull"`
	SupplierTaxID string              `bun:"supplier_tax_id,notnull"`
	RequesterName string              `bun:"requester_name,notnull"`
	RequesterArea string              `bun:"requester_area,notnull"`
	Title         string              `bun:"title,notnull"`
	Amount        decimal.NullDecimal `bun:"amount,type:decimal(18,4)"`
	Currency      string              `bun:"currency,notnull"`
	Status        string              `bun:"status,notnull"`
	IssueDate     string              `bun:"issue_date,notnull"`
	FileURL       string              `bun:"file_url,notnull"`
	Notes         string              `bun:"notes,notnull"`
	SourceRow     int                 `bun:"source_row"`
	UpdatedAt     time.Time           `bun:"updated_at,nullzero"`
}

// IsBlank reports whether the record carries none of the identifying fields.
func (o *Order) IsBlank() bool {
	return o.ExpedientCode == "" && o.OrderNumber == "" && o.SupplierName == "" && o.Title == ""
}
