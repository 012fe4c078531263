package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/planwise/backend/api/handler"
)

type Handlers struct {
	Ops    *apiHandler.OpsHandler
	Health *apiHandler.HealthHandler
}

// New wires the HTTP surface: one dispatch route carrying every operation,
// plus the health probe.
func New(handlers Handlers) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	r.POST("/api/v1/ops/{op}", handlers.Ops.Dispatch)

	return r
}
