package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"brickvest/config"
	"brickvest/scheduler"
	"brickvest/service"
)

// Server owns the HTTP surface of the processor
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
}

// NewServer builds the router and wires every handler. The returned
// server is not listening yet; call Start.
func NewServer(
	cfg *config.Config,
	plans service.PlanService,
	wallets service.WalletService,
	executor service.ExecutorService,
	stats service.StatsService,
	sched *scheduler.Scheduler,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	planHandler := NewPlanHandler(plans, stats)
	walletHandler := NewWalletHandler(wallets, stats)
	processingHandler := NewProcessingHandler(executor, sched)

	api := router.Group("/api", requireUser())
	{
		api.POST("/plans", planHandler.Create)
		api.GET("/plans/:kind", planHandler.Get)
		api.PUT("/plans/:kind", planHandler.Update)
		api.DELETE("/plans/:kind", planHandler.Cancel)
		api.POST("/plans/:kind/toggle", planHandler.Toggle)
		api.GET("/plans/:kind/stats", planHandler.Stats)

		api.GET("/wallet", walletHandler.Get)
		api.POST("/wallet/deposits", walletHandler.Deposit)
		api.POST("/wallet/withdrawals", walletHandler.Withdraw)
		api.GET("/wallet/transactions", walletHandler.Transactions)

		api.POST("/rental-payouts", walletHandler.RecordRentalPayout)
		api.GET("/rental-payouts", walletHandler.RentalHistory)
		api.GET("/rental-payouts/stats", walletHandler.RentalStats)

		api.POST("/processing/autoinvest", processingHandler.RunAutoInvest)
		api.POST("/processing/autoreinvest", processingHandler.RunAutoReinvest)
		api.GET("/scheduler/status", processingHandler.SchedulerStatus)
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Router exposes the underlying handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving and blocks until the listener fails or is shut down
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
