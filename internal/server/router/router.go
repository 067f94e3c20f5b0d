package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(reports *handlers.ReportHandler, catalog *handlers.CatalogHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	rep := api.Group("/reports")
	rep.GET("/prices", reports.PriceReport)
	rep.GET("/prices/export", reports.ExportPriceReport)
	rep.GET("/dashboard", reports.Dashboard)
	rep.GET("/archive", reports.Archive)

	surveys := api.Group("/surveys")
	surveys.GET("", catalog.ListSurveys)
	surveys.POST("", catalog.CreateSurvey)
	surveys.GET("/export", reports.ExportSurveys)
	surveys.PUT("/:id", catalog.UpdateSurvey)
	surveys.DELETE("/:id", catalog.DeleteSurvey)

	commodities := api.Group("/commodities")
	commodities.GET("", catalog.ListCommodities)
	commodities.POST("", catalog.CreateCommodity)
	commodities.PUT("/:id", catalog.UpdateCommodity)
	commodities.DELETE("/:id", catalog.DeleteCommodity)

	markets := api.Group("/markets")
	markets.GET("", catalog.ListMarkets)
	markets.POST("", catalog.CreateMarket)
	markets.PUT("/:id", catalog.UpdateMarket)
	markets.DELETE("/:id", catalog.DeleteMarket)

	if logger != nil {
		logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= 500 {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
