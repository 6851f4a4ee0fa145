package order

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

var httpTracer = otel.Tracer("github.com/Additional-Code/kusina/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *pos.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *pos.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("/pending", h.pending)
	g.POST("", h.place)
	g.POST("/complete", h.complete)
	g.POST("/refresh", h.refresh)
	g.GET("/history", h.history)
	g.GET("/next", h.next)
	g.GET("/:id", h.get)
}

func (h *Handler) next(c echo.Context) error {
	b := response.New(c).WithMeta("queue_size", h.svc.QueueSize())
	order, ok := h.svc.NextOrder()
	if !ok {
		return b.WithMeta("empty", true).Build()
	}
	return b.WithData(dto.FromOrder(order, h.svc.Location())).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Order(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrder(order, h.svc.Location())).Build()
}

func (h *Handler) pending(c echo.Context) error {
	orders := h.svc.PendingOrders()
	return response.New(c).
		WithData(dto.FromOrders(orders, h.svc.Location())).
		WithCount(len(orders)).
		Build()
}

func (h *Handler) place(c echo.Context) error {
	b := response.New(c)

	var payload dto.OrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.place", trace.WithAttributes(
		attribute.String("order.customer", payload.CustomerName),
		attribute.Int("order.items", len(payload.Items)),
	))
	defer span.End()

	order, err := h.svc.PlaceOrder(ctx, pos.PlaceOrderInput{
		CustomerName: payload.CustomerName,
		Items:        payload.Items,
		TotalPrice:   payload.TotalPrice,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).
		WithData(dto.FromOrder(order, h.svc.Location())).
		WithMeta("queue_size", h.svc.QueueSize()).
		Build()
}

func (h *Handler) complete(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.complete")
	defer span.End()

	order, ok, err := h.svc.CompleteNextOrder(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	b.WithMeta("queue_size", h.svc.QueueSize())
	if !ok {
		return b.WithMeta("empty", true).Build()
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	return b.WithData(dto.FromOrder(order, h.svc.Location())).Build()
}

func (h *Handler) refresh(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.refresh")
	defer span.End()

	if err := h.svc.RefreshQueue(ctx); err != nil {
		return b.WithError(err).Build()
	}
	orders := h.svc.PendingOrders()
	return b.WithData(dto.FromOrders(orders, h.svc.Location())).WithCount(len(orders)).Build()
}

func (h *Handler) history(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.history")
	defer span.End()

	orders, err := h.svc.Transactions(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrders(orders, h.svc.Location())).WithCount(len(orders)).Build()
}
