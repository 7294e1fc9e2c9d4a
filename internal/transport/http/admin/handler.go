package admin

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/ordenes/internal/config"
	"github.com/Additional-Code/ordenes/internal/dto"
	"github.com/Additional-Code/ordenes/internal/inbox"
	"github.com/Additional-Code/ordenes/internal/presentation/http/response"
	"github.com/Additional-Code/ordenes/internal/service/importer"
	"github.com/Additional-Code/ordenes/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/ordenes/transport/http/admin")

// HeaderAdminKey carries the shared secret for admin routes.
const HeaderAdminKey = "X-Admin-Key"

// Handler exposes provenance and the inbox import over HTTP.
type Handler struct {
	importer *importer.Service
	inbox    *inbox.Inbox
	key      string
	now      func() time.Time
}

// NewHandler constructs an admin Handler.
func NewHandler(svc *importer.Service, ib *inbox.Inbox, cfg config.Config) *Handler {
	return &Handler{importer: svc, inbox: ib, key: cfg.Admin.Key, now: time.Now}
}

// Register routes with provided Echo instance. Admin routes require the
// X-Admin-Key header.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/api/app/info", h.info)

	g := e.Group("/api/admin", middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + HeaderAdminKey,
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(h.key)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return response.New(c).WithError(errorbank.Unauthorized("invalid admin key", errorbank.WithCause(err))).Build()
		},
	}))
	g.GET("/inbox", h.listInbox)
	g.POST("/import-from-folder", h.importFromFolder)
}

func (h *Handler) info(c echo.Context) error {
	resp := dto.AppInfoResponse{ServerTime: h.now().UTC()}
	if prov, ok := h.importer.Provenance(); ok {
		resp.LastImport = toProvenanceDTO(prov)
	}
	return response.New(c).WithData(resp).Build()
}

func (h *Handler) listInbox(c echo.Context) error {
	b := response.New(c)

	_, span := httpTracer.Start(c.Request().Context(), "admin.inbox")
	defer span.End()

	files, err := h.inbox.List()
	if err != nil {
		return b.WithError(errorbank.Internal("failed to read inbox", errorbank.WithCause(err))).Build()
	}

	resp := dto.InboxResponse{Dir: h.inbox.Dir(), Files: make([]dto.InboxFileResponse, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, dto.InboxFileResponse{
			Name:       f.Name,
			Size:       f.Size,
			ModifiedAt: f.ModTime.UTC(),
		})
	}
	return b.WithData(resp).Build()
}

func (h *Handler) importFromFolder(c echo.Context) error {
	b := response.New(c)
	name := strings.TrimSpace(c.QueryParam("file"))

	ctx, span := httpTracer.Start(c.Request().Context(), "admin.importFromFolder", trace.WithAttributes(
		attribute.String("import.requested", name),
	))
	defer span.End()

	prov, err := h.importer.RunFromInbox(ctx, name)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusOK).WithData(toProvenanceDTO(prov)).Build()
}

func toProvenanceDTO(p importer.Provenance) *dto.ProvenanceResponse {
	return &dto.ProvenanceResponse{
		FileName:      p.FileName,
		ImportedCount: p.ImportedCount,
		Timestamp:     p.Timestamp,
	}
}
