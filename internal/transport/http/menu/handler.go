package menu

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/kusina/internal/dto"
	"github.com/Additional-Code/kusina/internal/presentation/http/response"
	"github.com/Additional-Code/kusina/internal/service/pos"
	"github.com/Additional-Code/kusina/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/kusina/transport/http/menu")

// Handler exposes menu endpoints over HTTP.
type Handler struct {
	svc *pos.Service
}

// NewHandler constructs a menu Handler.
func NewHandler(svc *pos.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/menu")
	g.GET("", h.list)
	g.POST("", h.add)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.list")
	defer span.End()

	items, err := h.svc.Menu(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromMenu(items)).WithCount(len(items)).Build()
}

func (h *Handler) add(c echo.Context) error {
	b := response.New(c)

	var payload dto.MenuItemRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.add", trace.WithAttributes(attribute.String("menu.name", payload.Name)))
	defer span.End()

	item, err := h.svc.AddMenuItem(ctx, payload.Name, payload.Price, payload.Category)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromMenuItem(item)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.delete", trace.WithAttributes(attribute.Int64("menu.id", id)))
	defer span.End()

	if err := h.svc.DeleteMenuItem(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.Empty().Build()
}
