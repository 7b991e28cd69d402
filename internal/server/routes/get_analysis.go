package routes

import (
	"net/http"
	"strconv"

	"github.com/OFFIS-RIT/twingraph/internal/server/middleware"
	"github.com/OFFIS-RIT/twingraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Message string `json:"message"`
}

// GetQualityDistributionHandler returns node counts per quality level.
func GetQualityDistributionHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	buckets, err := app.Analytics.QualityDistribution(c.Request().Context())
	if err != nil {
		logger.Error("Failed to query quality distribution", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Internal server error",
		})
	}
	return c.JSON(http.StatusOK, buckets)
}

// GetComplianceSummaryHandler reports metadata completeness over all nodes.
func GetComplianceSummaryHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	summary, err := app.Analytics.ComplianceSummary(c.Request().Context())
	if err != nil {
		logger.Error("Failed to query compliance summary", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Internal server error",
		})
	}
	return c.JSON(http.StatusOK, summary)
}

// GetTypeDistributionHandler returns node counts per label.
func GetTypeDistributionHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	counts, err := app.Analytics.TypeDistribution(c.Request().Context())
	if err != nil {
		logger.Error("Failed to query type distribution", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Internal server error",
		})
	}
	return c.JSON(http.StatusOK, counts)
}

// GetRelatedHandler lists nodes reachable from the given node within
// max_hops edges (default 2).
func GetRelatedHandler(c echo.Context) error {
	nodeID := c.Param("id")
	if nodeID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Message: "Missing node id",
		})
	}

	maxHops := 2
	if raw := c.QueryParam("max_hops"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Message: "max_hops must be a positive integer",
			})
		}
		maxHops = parsed
	}

	app := c.(*middleware.AppContext).App
	related, err := app.Analytics.Related(c.Request().Context(), nodeID, maxHops)
	if err != nil {
		logger.Error("Failed to query related entities", "node_id", nodeID, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Internal server error",
		})
	}
	return c.JSON(http.StatusOK, related)
}

// SearchHandler searches node names, descriptions, and ids.
func SearchHandler(c echo.Context) error {
	term := c.QueryParam("q")
	if term == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Message: "Missing search term",
		})
	}

	limit := 25
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Message: "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	app := c.(*middleware.AppContext).App
	hits, err := app.Analytics.Search(c.Request().Context(), term, limit)
	if err != nil {
		logger.Error("Failed to search graph", "term", term, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Internal server error",
		})
	}
	return c.JSON(http.StatusOK, hits)
}
