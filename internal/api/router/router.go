package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genstudio-io/genstudio-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "genstudio-api-service",
		})
	})

	taskHandler := handler.NewTaskHandler(deps)
	draftHandler := handler.NewDraftHandler(deps)
	balanceHandler := handler.NewBalanceHandler(deps)
	catalogHandler := handler.NewCatalogHandler(deps)
	adminHandler := handler.NewAdminHandler(deps)

	v1 := r.Group("/api/v1")
	{
		tasks := v1.Group("/tasks")
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/:task_id", taskHandler.GetTask)
			tasks.POST("/:task_id/repeat", taskHandler.RepeatTask)
			tasks.POST("/:task_id/redeliver", taskHandler.RedeliverTask)
		}

		drafts := v1.Group("/drafts")
		{
			drafts.POST("/events", draftHandler.ApplyEvent)
			drafts.POST("/:section/select", draftHandler.SelectSection)
			drafts.GET("/:section", draftHandler.GetDraft)
			drafts.DELETE("/:section", draftHandler.DeleteDraft)
		}

		balance := v1.Group("/balance")
		{
			balance.GET("", balanceHandler.GetBalance)
			balance.POST("/topup", balanceHandler.TopUp)
		}

		v1.GET("/prices", catalogHandler.ListPrices)
		v1.GET("/voices", catalogHandler.ListVoices)

		admin := v1.Group("/admin")
		admin.Use(AdminMiddleware(deps.Config))
		{
			admin.POST("/users/:external_id/ban", adminHandler.BanUser)
			admin.POST("/users/:external_id/unban", adminHandler.UnbanUser)
			admin.POST("/users/:external_id/grant", adminHandler.GrantBalance)
			admin.PUT("/prices", adminHandler.SetPrice)
			admin.POST("/broadcast/preview", adminHandler.PreviewBroadcast)
			admin.POST("/broadcast/confirm", adminHandler.ConfirmBroadcast)
			admin.GET("/diagnostics", adminHandler.Diagnostics)
		}
	}

	return r
}
