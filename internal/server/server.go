package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/twingraph/internal/queue"
	mid "github.com/OFFIS-RIT/twingraph/internal/server/middleware"
	"github.com/OFFIS-RIT/twingraph/internal/storage"
	"github.com/OFFIS-RIT/twingraph/internal/util"
	"github.com/OFFIS-RIT/twingraph/pkg/logger"
	querypgx "github.com/OFFIS-RIT/twingraph/pkg/query/pgx"
	"github.com/OFFIS-RIT/twingraph/pkg/store"
	storepgx "github.com/OFFIS-RIT/twingraph/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeCfg := store.Config{
		URI:         util.GetEnv("DATABASE_URL"),
		User:        util.GetEnv("DATABASE_USER"),
		Password:    util.GetEnv("DATABASE_PASSWORD"),
		ReadyWindow: util.GetEnvDuration("DATABASE_READY_WINDOW", 30*time.Second),
	}

	conn, err := pgxpool.New(ctx, storeCfg.URI)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	graphStore := storepgx.NewGraphDBStorageWithConnection(conn)
	if err := store.WaitReady(ctx, graphStore, storeCfg.ReadyWindow); err != nil {
		logger.Fatal("Graph store not reachable", "err", err)
	}
	if err := storepgx.MigrateSchema(storeCfg); err != nil {
		logger.Fatal("Failed to migrate graph schema", "err", err)
	}
	if err := graphStore.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure graph indexes", "err", err)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	if err := queue.SetupQueues(ch, queue.WorkQueues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	app := &mid.App{
		Queue:     ch,
		S3:        s3,
		Analytics: querypgx.NewAnalyticsDBClient(conn),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("4G"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
