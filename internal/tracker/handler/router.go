package handler

import (
	"net/http"

	"meme-radar/internal/tracker/notify"
	"meme-radar/internal/tracker/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services 路由依赖
type Services struct {
	Tokens      *service.TokenService
	Addresses   *service.AddressService
	Importer    *service.Importer
	Settings    *service.SettingsService
	Portability *service.PortabilityService
	Hub         *notify.Hub
	Prices      PriceRefresher
	Queries     QueryRunner
	RPC         RPCCaller
}

func NewRouter(mode string, svc Services, logger *zap.Logger) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(Tracing())
	router.Use(Metrics())
	router.Use(Logger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	tokens := NewTokenHandler(svc.Tokens, svc.Importer, logger)
	addrs := NewAddressHandler(svc.Addresses, logger)
	streams := NewStreamHandler(svc.Hub, logger)
	settings := NewSettingsHandler(svc.Settings, logger)
	debug := NewDebugHandler(svc.Queries, svc.RPC, logger)
	portability := NewPortabilityHandler(svc.Portability, logger)
	prices := NewPriceHandler(svc.Prices, logger)

	api := router.Group("/api")
	{
		api.GET("/tokens", tokens.ListTokens)
		api.POST("/tokens", tokens.AddToken)
		api.GET("/tokens/stream", streams.Tokens)
		api.POST("/tokens/prices/refresh", prices.Refresh)
		api.GET("/tokens/:id", tokens.GetToken)
		api.DELETE("/tokens/:id", tokens.DeleteToken)
		api.POST("/tokens/:id/import", tokens.ImportBuyers)
		api.GET("/tokens/:id/import", tokens.ImportStatus)

		api.GET("/addresses", addrs.ListAddresses)
		api.GET("/addresses/stats", addrs.Stats)
		api.GET("/addresses/stream", streams.Addresses)
		api.POST("/addresses/:id/toggle", addrs.TogglePromising)
		api.DELETE("/addresses/:id", addrs.DeleteAddress)

		api.GET("/settings/status", settings.Status)

		api.POST("/debug/query", debug.RunQuery)
		api.POST("/debug/rpc", debug.CallRPC)

		api.GET("/export", portability.Export)
		api.POST("/import", portability.Import)

		api.GET("/analysis", Analysis)
	}
	return router
}

// Analysis GET /api/analysis 尚未提供
func Analysis(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "analysis is not available yet"})
}
