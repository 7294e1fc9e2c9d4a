package seeder

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/entity"
	"github.com/Additional-Code/ordenes/internal/normalize"
	repo "github.com/Additional-Code/ordenes/internal/repository/order"
)

// Module wires the seeder.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	repo   *repo.Repository
	logger *zap.Logger
}

// New constructs a Seeder backed by the order repository.
func New(repository *repo.Repository, logger *zap.Logger) *Seeder {
	return &Seeder{repo: repository, logger: logger}
}

// Orders loads a small demo set when the store is empty. An existing import
// is never overwritten.
func (s *Seeder) Orders(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if s.logger != nil {
			s.logger.Info("orders already present, skipping seed", zap.Int("count", n))
		}
		return 0, nil
	}

	samples := demoOrders()
	if err := s.repo.ReplaceAll(ctx, samples, time.Now().UTC()); err != nil {
		return 0, err
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	}
	return len(samples), nil
}

// demoOrders runs spreadsheet-like raw values through the same normalizers
// an import uses, so seeded rows look exactly like imported ones.
func demoOrders() []entity.Order {
	type sample struct {
		expedient, kind, number, supplier, taxID, title, amount, currency, status, date string
	}
	samples := []sample{
		{"123", "OC", "12.5", "ACME S.A.C.", "20123456789", "Útiles de escritorio", "1,500.50", "Soles", "ATENDIDO", "2024-01-15"},
		{"SIAF 124", "OS", "7", "Servicios Beta E.I.R.L.", "20987654321", "Mantenimiento de aire acondicionado", "3,200", "Soles", "EN PROCESO", "2024-02-03"},
		{"130", "OC", "15", "Global Import S.A.", "20555555555", "Licencias de software", "980", "Dolares", "ATENDIDO", "2024-02-20"},
		{"131", "OS", "21", "Transportes Gamma", "10456789012", "Traslado de mobiliario", "", "Soles", "PENDIENTE", ""},
	}

	out := make([]entity.Order, 0, len(samples))
	for i, s := range samples {
		expedient := normalize.ExpedientCode(s.expedient)
		number := normalize.OrderNumber(s.number)
		out = append(out, entity.Order{
			ExpedientCode: expedient,
			OrderType:     s.kind,
			OrderNumber:   number,
			OrderCode:     normalize.OrderCode(expedient, s.kind, number),
			SupplierName:  s.supplier,
			SupplierTaxID: s.taxID,
			Title:         s.title,
			Amount:        normalize.ToNumber(s.amount),
			Currency:      string(normalize.CurrencyFromText(s.currency)),
			Status:        s.status,
			IssueDate:     s.date,
			SourceRow:     i + 4,
		})
	}
	return out
}
