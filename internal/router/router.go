// Package router 提供路由注册
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/vision-eval/internal/config"
	"github.com/ashwinyue/vision-eval/internal/handler"
	"github.com/ashwinyue/vision-eval/internal/middleware"
)

// Setup 创建并配置 gin 引擎
func Setup(cfg *config.Config, handlers *handler.Handlers) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"name":    cfg.App.Name,
			"version": cfg.App.Version,
		})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		// 数据集摄取与校验
		datasets := v1.Group("/datasets")
		{
			datasets.POST("/validate", handlers.Dataset.ValidateJSONL)
			datasets.POST("/scan", handlers.Dataset.ScanFolder)
			datasets.POST("/two-part", handlers.Dataset.TwoPart)
		}

		// 评估运行
		results := v1.Group("/results")
		{
			results.POST("/import", handlers.Result.ImportResults)
			results.GET("", handlers.Result.ListRuns)
			results.POST("/compare", handlers.Comparison.CompareRuns)
			results.GET("/:id", handlers.Result.GetRun)
			results.GET("/:id/detail", handlers.Result.GetRunDetail)
			results.GET("/:id/summary", handlers.Result.GetRunSummary)
			results.DELETE("/:id", handlers.Result.DeleteRun)
		}
	}

	return r
}
