package routes

import (
	"encoding/json"
	"net/http"

	"github.com/OFFIS-RIT/twingraph/internal/queue"
	"github.com/OFFIS-RIT/twingraph/internal/server/middleware"
	"github.com/OFFIS-RIT/twingraph/internal/storage"
	"github.com/OFFIS-RIT/twingraph/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateExtractionHandler accepts twin packages as multipart/form-data,
// stores them, and queues an extraction job covering all of them.
func CreateExtractionHandler(c echo.Context) error {
	type createExtractionBody struct {
		BatchName string `form:"batch_name"`
	}

	type createExtractionResponse struct {
		Message       string   `json:"message"`
		CorrelationID string   `json:"correlation_id,omitempty"`
		PackageKeys   []string `json:"package_keys,omitempty"`
	}

	data := new(createExtractionBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createExtractionResponse{
			Message: "Invalid request body",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, createExtractionResponse{
			Message: "Invalid request body",
		})
	}
	uploads := form.File["packages"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, createExtractionResponse{
			Message: "No packages provided",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	keys := make([]string, 0, len(uploads))
	for _, file := range uploads {
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, createExtractionResponse{
				Message: "Could not open package",
			})
		}
		defer src.Close()

		fileID, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, createExtractionResponse{
				Message: "Internal server error",
			})
		}
		key, err := storage.PutFile(ctx, app.S3, "packages", file.Filename, fileID, src)
		if err != nil {
			logger.Error("Failed to upload package", "err", err)
			return c.JSON(http.StatusInternalServerError, createExtractionResponse{
				Message: "Internal server error",
			})
		}
		keys = append(keys, key)
	}

	correlationID, err := queue.NewCorrelationID()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createExtractionResponse{
			Message: "Internal server error",
		})
	}

	batchName := data.BatchName
	if batchName == "" {
		batchName = correlationID
	}

	msg, err := json.Marshal(queue.ExtractJobMsg{
		CorrelationID: correlationID,
		BatchName:     batchName,
		PackageKeys:   keys,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createExtractionResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.ExtractQueue, msg); err != nil {
		logger.Error("Failed to publish extract job", "err", err)
		return c.JSON(http.StatusInternalServerError, createExtractionResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, createExtractionResponse{
		Message:       "Extraction queued",
		CorrelationID: correlationID,
		PackageKeys:   keys,
	})
}
