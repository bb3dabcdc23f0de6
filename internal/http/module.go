package http

import (
	"homni_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the shared route groups handed to each module.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without authentication.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind a valid access token.
	Protected *gin.RouterGroup
	// Admin is /api/v1/admin, restricted to the admin role.
	Admin          *gin.RouterGroup
	Config         config.JWTConfig
	AuthMiddleware gin.HandlerFunc
}
