// Package middleware carries shared server state into route handlers.
package middleware

import (
	"github.com/OFFIS-RIT/twingraph/internal/storage"
	"github.com/OFFIS-RIT/twingraph/pkg/query"

	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
)

// S3Client is the object store surface handlers use: package and batch
// uploads, and batch discovery by prefix.
type S3Client interface {
	storage.ObjectPutter
	storage.ObjectLister
}

// App bundles the long-lived clients handlers need. Extraction and import
// run in the workers; handlers only upload, enqueue, and read analytics.
type App struct {
	Queue     *amqp091.Channel
	S3        S3Client
	Analytics query.AnalyticsClient
}

// AppContext wraps the echo context with application state.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware injects the App into every request context.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{
				Context: c,
				App:     app,
			})
		}
	}
}
