package httpapi

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	"github.com/ngs-hydro/reach-metrics/internal/query"
)

// SetupRouter creates and configures the Gin router serving the QueryService's read
// surface, per spec §6. allowedOrigins is comma-separated; an empty string allows all
// origins (development default).
func SetupRouter(svc *query.Service, pool store.PgxIface, allowedOrigins string) *gin.Engine {
	router := gin.Default()
	router.Use(corsMiddleware(allowedOrigins))

	handler := NewHandler(svc, pool)

	reach := router.Group("/reach/:feature_id")
	{
		reach.GET("/hydrology", handler.GetHydrology)
		reach.GET("/species/:species_id", handler.GetSpeciesScore)
		reach.GET("/hatches", handler.GetHatchForecast)
	}

	router.GET("/health", handler.GetHealth)
	router.GET("/metadata", handler.GetMetadata)

	return router
}

func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if allowedOrigins == "" {
		cfg.AllowAllOrigins = true
	} else {
		origins := strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET"}
	return cors.New(cfg)
}
