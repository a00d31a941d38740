package router

import (
	"github.com/gin-gonic/gin"

	"rulebook/internal/handler"
	"rulebook/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	rulebookH *handler.RulebookHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Rulebook routes
	rulebooks := v1.Group("/rulebooks")
	rulebooks.POST("/:key/parse", rulebookH.Parse)
	rulebooks.GET("/:key", rulebookH.Get)
	rulebooks.GET("/:key/runs", rulebookH.ListRuns)
	rulebooks.GET("/:key/alignment", rulebookH.Alignment)
	rulebooks.POST("/:key/areas/sync", rulebookH.SyncAreas)
	rulebooks.POST("/:key/people/notify", rulebookH.NotifyPeople)

	// Run lookup by id
	v1.GET("/runs/:id", rulebookH.GetRun)

	return r
}
