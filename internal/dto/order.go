package dto

import (
	"time"

	"github.com/Additional-Code/ordenes/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID            int64     `json:"id"`
	ExpedientCode string    `json:"expedient_code"`
	OrderType     string    `json:"order_type"`
	OrderNumber   string    `json:"order_number"`
	OrderCode     string    `json:"order_code"`
	SupplierName  string    `json:"supplier_name"`
	SupplierTaxID string    `json:"supplier_tax_id"`
	RequesterName string    `json:"requester_name"`
	RequesterArea string    `json:"requester_area"`
	Title         string    `json:"title"`
	Amount        *float64  `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	IssueDate     string    `json:"issue_date"`
	FileURL       string    `json:"file_url"`
	Notes         string    `json:"notes"`
	SourceRow     int       `json:"source_row"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewOrderResponse maps the stored record onto its JSON shape.
func NewOrderResponse(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		ExpedientCode: o.ExpedientCode,
		OrderType:     o.OrderType,
		OrderNumber:   o.OrderNumber,
		OrderCode:     o.OrderCode,
		SupplierName:  o.SupplierName,
		SupplierTaxID: o.SupplierTaxID,
		RequesterName: o.RequesterName,
		RequesterArea: o.RequesterArea,
		Title:         o.Title,
		Currency:      o.Currency,
		Status:        o.Status,
		IssueDate:     o.IssueDate,
		FileURL:       o.FileURL,
		Notes:         o.Notes,
		SourceRow:     o.SourceRow,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Amount.Valid {
		v := o.Amount.Decimal.InexactFloat64()
		resp.Amount = &v
	}
	return resp
}

// OrderListResponse is one page of a filtered listing.
type OrderListResponse struct {
	Total     int             `json:"total"`
	SumAmount float64         `json:"sum_amount"`
	Rows      []OrderResponse `json:"rows"`
	Page      int             `json:"page"`
	Limit     int             `json:"limit"`
}

// OrderMetaResponse feeds the listing filters.
type OrderMetaResponse struct {
	Statuses []string `json:"statuses"`
}
