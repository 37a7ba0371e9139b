package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every endpoint on r.
func SetupRoutes(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/login", Login)
		api.POST("/register", Register)

		api.GET("/graph", GetGraph)
		api.GET("/nodes", GetNodes)
		api.GET("/nodes/nearest", GetNearestNode)
		api.GET("/nodes/:id", GetNodeByID)
		api.GET("/pois", GetPOIs)
		api.GET("/pois/search", SearchPOIs)

		api.GET("/navigation/progress", GetProgress)
		api.GET("/navigation/route", GetRoute)
		api.GET("/navigation/events", GetEvents)
		api.GET("/navigation/stream", StreamProgress)

		authorized := api.Group("/")
		authorized.Use(AuthMiddleware())
		{
			authorized.POST("/navigation/start", StartNavigation)
			authorized.POST("/position", PushPosition)
		}
	}
}
