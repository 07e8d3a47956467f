package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/thorep/stallplass-sub008/internal/infrastructure/auth"
	authport "github.com/thorep/stallplass-sub008/internal/infrastructure/auth/port"
	bookingHandler "github.com/thorep/stallplass-sub008/internal/pkg/booking/presentation/http"
	messagingHandler "github.com/thorep/stallplass-sub008/internal/pkg/messaging/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1.
// Every endpoint sits behind the session middleware.
func RegisterRoutes(r *gin.Engine, authn authport.Authenticator, deps messagingHandler.Deps) {
	v1 := r.Group("/api/v1")
	v1.Use(auth.Middleware(authn))

	messagingHandler.RegisterRoutes(v1, deps)
	bookingHandler.RegisterRoutes(v1, deps.Pool, deps.Router, deps.Log)
}
