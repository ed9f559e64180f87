package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/printerd/internal/server/http/handlers"
	"github.com/polkiloo/printerd/internal/server/http/middleware"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(Setup)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.PrinterFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	statusHandler := handlers.NewStatusHandler(facade)
	commandHandler := handlers.NewCommandHandler(facade)

	engine.GET(middleware.ProbePath, statusHandler.Health)

	printer := engine.Group("/printer")
	printer.GET("/status", statusHandler.Printer)
	printer.GET("/queue", statusHandler.Queue)
	printer.GET("/metrics", statusHandler.Metrics)
	printer.POST("/commands", commandHandler.Submit)

	return engine
}
