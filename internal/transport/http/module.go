package http

import (
	"go.uber.org/fx"

	admintransport "github.com/Additional-Code/ordenes/internal/transport/http/admin"
	ordertransport "github.com/Additional-Code/ordenes/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	admintransport.Module,
)
