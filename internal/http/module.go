// Package http holds the contracts between the composition root, the router and
// the feature modules.
package http

import (
	"compliance_backend/internal/events"

	"github.com/gin-gonic/gin"
)

// Module is a feature package that mounts its own endpoints.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// Subscriber is implemented by modules that react to events on the bus,
// such as the audit sink and the dashboard cache.
type Subscriber interface {
	RegisterHandlers(bus events.Bus)
}

// RouterContext carries the route groups a module may mount on.
type RouterContext struct {
	// V1 is /api/v1 without authentication.
	V1 *gin.RouterGroup
	// Protected requires a valid access token and a tenant claim.
	Protected *gin.RouterGroup
	// Admin is /api/v1/admin and additionally requires the admin role.
	Admin *gin.RouterGroup
}

// Subscribe wires every module that implements Subscriber to bus and returns
// how many did.
func Subscribe(bus events.Bus, modules ...Module) int {
	n := 0
	for _, module := range modules {
		if sub, ok := module.(Subscriber); ok {
			sub.RegisterHandlers(bus)
			n++
		}
	}
	return n
}
