package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/twingraph/internal/server/middleware"
	"github.com/OFFIS-RIT/twingraph/pkg/logger"
	"github.com/OFFIS-RIT/twingraph/pkg/query"

	"github.com/labstack/echo/v4"
)

// ExecuteQueryHandler runs one ad-hoc read query against the graph. The
// query runs in a read-only transaction, so writes are rejected by the
// store itself.
func ExecuteQueryHandler(c echo.Context) error {
	type executeQueryBody struct {
		Query string `json:"query" validate:"required"`
		Args  []any  `json:"args"`
	}

	type executeQueryResponse struct {
		Message string           `json:"message,omitempty"`
		Rows    []map[string]any `json:"rows"`
	}

	data := new(executeQueryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, executeQueryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, executeQueryResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	rows, err := app.Analytics.Execute(c.Request().Context(), data.Query, data.Args...)
	if err != nil {
		var execErr *query.ExecutionError
		if errors.As(err, &execErr) {
			return c.JSON(http.StatusBadRequest, executeQueryResponse{
				Message: "Query rejected by the graph store",
			})
		}
		logger.Error("Failed to execute query", "err", err)
		return c.JSON(http.StatusInternalServerError, executeQueryResponse{
			Message: "Internal server error",
		})
	}

	if rows == nil {
		rows = []map[string]any{}
	}
	return c.JSON(http.StatusOK, executeQueryResponse{Rows: rows})
}
