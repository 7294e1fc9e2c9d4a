package order

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/ordenes/internal/dto"
	"github.com/Additional-Code/ordenes/internal/normalize"
	"github.com/Additional-Code/ordenes/internal/presentation/http/response"
	service "github.com/Additional-Code/ordenes/internal/service/order"
	"github.com/Additional-Code/ordenes/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/ordenes/transport/http/order")

const (
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerExportTruncate = "X-Export-Truncated"
)

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
	now func() time.Time
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/orders")
	g.GET("", h.list)
	g.GET("/meta", h.meta)
	g.GET("/export", h.export)
	g.GET("/:id", h.getByID)
	g.GET("/:id/open", h.open)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	criteria := criteriaFromQuery(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list", trace.WithAttributes(
		attribute.Int("query.page", criteria.Page),
		attribute.Int("query.limit", criteria.Limit),
	))
	defer span.End()

	res, err := h.svc.Query(ctx, criteria)
	if err != nil {
		return b.WithError(err).Build()
	}

	rows := make([]dto.OrderResponse, 0, len(res.Rows))
	for i := range res.Rows {
		rows = append(rows, dto.NewOrderResponse(&res.Rows[i]))
	}
	return b.WithData(dto.OrderListResponse{
		Total:     res.Total,
		SumAmount: res.SumAmount.InexactFloat64(),
		Rows:      rows,
		Page:      res.Page,
		Limit:     res.Limit,
	}).Build()
}

func (h *Handler) meta(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.meta")
	defer span.End()

	statuses, err := h.svc.Statuses(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.OrderMetaResponse{Statuses: statuses}).Build()
}

func (h *Handler) export(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.export")
	defer span.End()

	var buf bytes.Buffer
	res, err := h.svc.Export(ctx, criteriaFromQuery(c), &buf)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int("export.rows", res.Written))

	filename := "ordenes_filtrado_" + h.now().UTC().Format("2006-01-02") + ".xlsx"
	b.WithHeader(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	if res.Truncated {
		b.WithHeader(headerExportTruncate, "true")
	}
	return b.BuildBlob(xlsxContentType, buf.Bytes())
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) open(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.open", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	link := strings.TrimSpace(order.FileURL)
	switch {
	case link == "":
		return b.WithError(errorbank.NotFound("order has no linked file")).Build()
	case !normalize.IsHTTPURL(link):
		return b.WithError(errorbank.BadRequest("linked file is not an http or https url")).Build()
	}
	return b.BuildRedirect(link)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}

// criteriaFromQuery reads the listing filters. Unparseable page or limit
// values fall back to the service defaults.
func criteriaFromQuery(c echo.Context) service.Criteria {
	param := func(name string) string {
		return strings.TrimSpace(c.QueryParam(name))
	}
	page, _ := strconv.Atoi(param("page"))
	limit, _ := strconv.Atoi(param("limit"))

	return service.Criteria{
		ExpedientCode: param("exp_siaf"),
		OrderType:     param("order_type"),
		OrderNumber:   param("order_number"),
		Supplier:      param("supplier"),
		Query:         param("q"),
		Status:        param("status"),
		From:          param("from"),
		To:            param("to"),
		Page:          page,
		Limit:         limit,
	}
}
