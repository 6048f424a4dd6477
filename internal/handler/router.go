package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/telemetra/fleetquery/internal/middleware"
)

type RouterDeps struct {
	Chat            *ChatHandler
	Feedback        *FeedbackHandler
	Knowledge       *KnowledgeHandler
	QueryRateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	queryGroup := api.Group("")
	queryGroup.Use(middleware.RateLimit(deps.QueryRateWindow))
	queryGroup.POST("/chat/query", deps.Chat.Query)

	api.GET("/chat/history", deps.Chat.History)

	api.POST("/feedback", deps.Feedback.Record)
	api.GET("/feedback/negative", deps.Feedback.ListNegative)
	api.DELETE("/feedback", deps.Feedback.Delete)

	api.GET("/knowledge", deps.Knowledge.List)
	api.POST("/knowledge", deps.Knowledge.Create)
	api.PUT("/knowledge/:id", deps.Knowledge.Update)
	api.DELETE("/knowledge/:id", deps.Knowledge.Delete)
	api.POST("/knowledge/:id/pin", deps.Knowledge.Pin)
	api.POST("/knowledge/reseed", deps.Knowledge.Reseed)
}
