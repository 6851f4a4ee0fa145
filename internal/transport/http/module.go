package http

import (
	"go.uber.org/fx"

	menutransport "github.com/Additional-Code/kusina/internal/transport/http/menu"
	ordertransport "github.com/Additional-Code/kusina/internal/transport/http/order"
	statstransport "github.com/Additional-Code/kusina/internal/transport/http/stats"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	menutransport.Module,
	ordertransport.Module,
	statstransport.Module,
)
