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

// CreateImportHandler queues import jobs. The batches either already live
// in the object store (one batch_key, or every batch under batch_prefix),
// or a single batch is uploaded with the request as a multipart file named
// "batch".
func CreateImportHandler(c echo.Context) error {
	type createImportBody struct {
		BatchKey    string `form:"batch_key"`
		BatchPrefix string `form:"batch_prefix"`
	}

	type createImportResponse struct {
		Message       string   `json:"message"`
		CorrelationID string   `json:"correlation_id,omitempty"`
		BatchKeys     []string `json:"batch_keys,omitempty"`
	}

	data := new(createImportBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createImportResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	var batchKeys []string
	switch {
	case data.BatchKey != "":
		batchKeys = []string{data.BatchKey}
	case data.BatchPrefix != "":
		keys, err := storage.ListFilesWithPrefix(ctx, app.S3, data.BatchPrefix)
		if err != nil {
			logger.Error("Failed to list batch files", "prefix", data.BatchPrefix, "err", err)
			return c.JSON(http.StatusInternalServerError, createImportResponse{
				Message: "Internal server error",
			})
		}
		if len(keys) == 0 {
			return c.JSON(http.StatusBadRequest, createImportResponse{
				Message: "No batch files under prefix",
			})
		}
		batchKeys = keys
	default:
		form, err := c.MultipartForm()
		if err != nil {
			return c.JSON(http.StatusBadRequest, createImportResponse{
				Message: "Provide batch_key, batch_prefix, or a batch file",
			})
		}
		uploads := form.File["batch"]
		if len(uploads) != 1 {
			return c.JSON(http.StatusBadRequest, createImportResponse{
				Message: "Provide batch_key, batch_prefix, or exactly one batch file",
			})
		}

		src, err := uploads[0].Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, createImportResponse{
				Message: "Could not open batch file",
			})
		}
		defer src.Close()

		fileID, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, createImportResponse{
				Message: "Internal server error",
			})
		}
		key, err := storage.PutFile(ctx, app.S3, "batches", uploads[0].Filename, fileID, src)
		if err != nil {
			logger.Error("Failed to upload batch file", "err", err)
			return c.JSON(http.StatusInternalServerError, createImportResponse{
				Message: "Internal server error",
			})
		}
		batchKeys = []string{key}
	}

	correlationID, err := queue.NewCorrelationID()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createImportResponse{
			Message: "Internal server error",
		})
	}

	for _, batchKey := range batchKeys {
		msg, err := json.Marshal(queue.ImportJobMsg{
			CorrelationID: correlationID,
			BatchKey:      batchKey,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, createImportResponse{
				Message: "Internal server error",
			})
		}
		if err := queue.PublishFIFO(app.Queue, queue.ImportQueue, msg); err != nil {
			logger.Error("Failed to publish import job", "batch_key", batchKey, "err", err)
			return c.JSON(http.StatusInternalServerError, createImportResponse{
				Message: "Internal server error",
			})
		}
	}

	return c.JSON(http.StatusAccepted, createImportResponse{
		Message:       "Import queued",
		CorrelationID: correlationID,
		BatchKeys:     batchKeys,
	})
}
