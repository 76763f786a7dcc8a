package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"swap-route.backend/internal/interfaces/http/handlers"
)

type routeDeps struct {
	depositHandler *handlers.DepositHandler
	authMiddleware gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Deposit routes: mutations require a bearer token, reads are open
		// so payers can poll their intent without credentials.
		deposits := v1.Group("/deposits")
		{
			deposits.POST("", d.authMiddleware, d.depositHandler.CreateDeposit)
			deposits.GET("", d.depositHandler.ListDeposits)
			deposits.GET("/:id", d.depositHandler.GetDeposit)
			deposits.GET("/:id/events", d.depositHandler.GetDepositEvents)
			deposits.POST("/:id/cancel", d.authMiddleware, d.depositHandler.CancelDeposit)
		}
	}
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "swap-route-backend",
			"version": "0.1.0",
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
