package server

import (
	"github.com/OFFIS-RIT/twingraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	api := e.Group("/api")

	// Extraction and import pipeline
	api.POST("/extractions", routes.CreateExtractionHandler)
	api.POST("/imports", routes.CreateImportHandler)

	// Analytics
	api.GET("/analysis/quality", routes.GetQualityDistributionHandler)
	api.GET("/analysis/compliance", routes.GetComplianceSummaryHandler)
	api.GET("/analysis/types", routes.GetTypeDistributionHandler)
	api.GET("/analysis/related/:id", routes.GetRelatedHandler)
	api.GET("/analysis/search", routes.SearchHandler)
	api.POST("/query", routes.ExecuteQueryHandler)
}
