package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/identity"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/middleware"
)

// NewRouter builds the Gin engine with the full middleware chain and route
// table. It is shared between main and the handler tests.
func NewRouter(store docstore.Store, provider *identity.Local, issuer *identity.TokenIssuer, gate *ledger.SessionGate, coordinator *ledger.Coordinator) *gin.Engine {
	authHandler := NewAuthHandler(provider, issuer, gate)
	accountHandler := NewAccountHandler(store)
	categoryHandler := NewCategoryHandler(store)
	transactionHandler := NewTransactionHandler(store)
	summaryHandler := NewSummaryHandler(store)
	sessionHandler := NewSessionHandler(coordinator)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	protected := v1.Group("/")
	protected.Use(middleware.Auth(issuer))

	protected.GET("/session", sessionHandler.Get)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.Create)
	accounts.GET("", accountHandler.List)
	accounts.PUT("/:id", accountHandler.Update)
	accounts.DELETE("/:id", accountHandler.Delete)
	accounts.POST("/:id/reconcile", accountHandler.Reconcile)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.Create)
	categories.GET("", categoryHandler.List)
	categories.PUT("/:id", categoryHandler.Update)
	categories.DELETE("/:id", categoryHandler.Delete)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.Record)
	transactions.GET("", transactionHandler.List)

	summary := protected.Group("/summary")
	summary.GET("", summaryHandler.Get)

	return router
}
