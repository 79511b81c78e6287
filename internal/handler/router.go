package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"numbers-lottery/internal/notify"
	"numbers-lottery/internal/pkg/db"
)

// RouterDeps holds everything the HTTP router serves.
type RouterDeps struct {
	Tickets *TicketHandler
	Wallet  *WalletHandler
	Results *ResultHandler
	Admin   *AdminHandler
	Hub     *notify.Hub
	Pool    *db.Pool
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps *RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if err := deps.Pool.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ws", deps.Hub.HandleWS)

	api := router.Group("/api")
	{
		accounts := api.Group("/accounts")
		{
			accounts.POST("", deps.Wallet.CreateAccount)
			accounts.GET("/:id", deps.Wallet.GetAccount)
			accounts.GET("/:id/ledger", deps.Wallet.ListLedger)
			accounts.GET("/:id/tickets", deps.Tickets.ListByAccount)
		}

		tickets := api.Group("/tickets")
		{
			tickets.POST("", deps.Tickets.Purchase)
			tickets.POST("/:id/cancel", deps.Tickets.Cancel)
			tickets.POST("/:id/claim", deps.Tickets.Claim)
			tickets.GET("/serial/:serial", deps.Tickets.CheckBySerial)
			tickets.GET("/barcode/:barcode", deps.Tickets.CheckByBarcode)
		}

		results := api.Group("/results")
		{
			results.GET("/latest", deps.Results.ListLatest)
			results.GET("", deps.Results.ListByDate)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/settings", deps.Admin.ListSettings)
			admin.PUT("/settings/:variant", deps.Admin.UpdateSettings)
			admin.PUT("/outcomes", deps.Admin.SetManualOutcome)
			admin.POST("/accounts/:id/adjust", deps.Wallet.Adjust)
			admin.POST("/draws/trigger", deps.Admin.TriggerDraw)
		}
	}

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
