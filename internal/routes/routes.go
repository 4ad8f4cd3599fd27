package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tgreceiver/internal/authz"
	"tgreceiver/internal/handlers"
	"tgreceiver/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	botHandler *handlers.BotHandler,
	ratesHandler *handlers.RatesHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/bot/webhook", botHandler.Webhook)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ---- protected
	r.Use(middleware.AuthMiddleware())
	r.Use(middleware.ReadOnlyGuard())

	// RATES (запись — только admin)
	rates := r.Group("/rates")
	{
		rates.GET("/", ratesHandler.List)
		rates.PUT("/", middleware.RequireRoles(authz.RoleAdmin), ratesHandler.Upsert)
	}

	// REPORTS
	reports := r.Group("/reports")
	{
		reports.GET("/summary", reportHandler.GetSummary)
		reports.GET("/verifications", reportHandler.ListVerifications)
		reports.GET("/verifications.pdf", reportHandler.DownloadPDF)
	}

	// повторный экспорт сессии — admin
	r.POST("/verifications/:user_id/export",
		middleware.RequireRoles(authz.RoleAdmin), reportHandler.ExportSession)

	return r
}
