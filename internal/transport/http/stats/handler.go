package stats

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/kusina/internal/dto"
	"github.com/Additional-Code/kusina/internal/presentation/http/response"
	"github.com/Additional-Code/kusina/internal/service/pos"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/kusina/transport/http/stats")

// Handler exposes sales summaries over HTTP.
type Handler struct {
	svc *pos.Service
}

// NewHandler constructs a stats Handler.
func NewHandler(svc *pos.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/stats/today", h.today)
}

func (h *Handler) today(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "stats.today")
	defer span.End()

	stats, err := h.svc.TodayStats(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromStats(stats)).Build()
}
