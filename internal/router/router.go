package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habbits/internal/config"
	"github.com/habbits/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, api *handler.API) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.Default()
	r.Use(handler.RequestMetrics())

	// 配置会话中间件，会话里只存当前用户标识
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("habbits_session", store))

	// 静态前端由外部协作方维护，这里只负责托管
	r.Static("/static", cfg.StaticDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		// 凭证网关：前端对远端协议的所有直接访问都走这里
		apiGroup.GET("/notion/*path", api.NotionProxy)
		apiGroup.POST("/notion/*path", api.NotionProxy)
		apiGroup.PATCH("/notion/*path", api.NotionProxy)

		apiGroup.GET("/config", api.GetConfig)
		apiGroup.POST("/user", api.SelectUser)

		apiGroup.GET("/habits", api.GetHabits)
		apiGroup.POST("/habits/reset", api.ResetHabits)
		apiGroup.POST("/habits/toggle", api.ToggleHabit)
		apiGroup.POST("/habits/increment", api.IncrementHabit)
		apiGroup.POST("/habits/decrement", api.DecrementHabit)
		apiGroup.PUT("/habits/record", api.UpsertHabitRecord)

		apiGroup.POST("/energy", api.SelectEnergy)
		apiGroup.DELETE("/energy", api.ClearEnergy)

		apiGroup.POST("/submit", api.SubmitHabits)
		apiGroup.GET("/submissions", api.GetSubmissions)

		apiGroup.GET("/stats/weekly", api.GetWeeklyStats)
	}

	r.POST("/deploy", api.DeployWebhook)

	return r
}
