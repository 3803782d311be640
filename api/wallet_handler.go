package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"brickvest/models"
	"brickvest/service"
)

// WalletHandler serves the wallet and rental payout endpoints
type WalletHandler struct {
	wallets service.WalletService
	stats   service.StatsService
}

func NewWalletHandler(wallets service.WalletService, stats service.StatsService) *WalletHandler {
	return &WalletHandler{wallets: wallets, stats: stats}
}

type depositRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency"`
	BalanceType string          `json:"balanceType"`
}

type withdrawRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type rentalPayoutRequest struct {
	ProjectID int64           `json:"projectId" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

func (h *WalletHandler) Get(c *gin.Context) {
	wallet, err := h.wallets.GetOrCreate(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, wallet, "")
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.NewValidationError("invalid request body: %v", err))
		return
	}
	balanceType := models.BalanceType(req.BalanceType)
	if req.BalanceType == "" {
		balanceType = models.BalanceTypeCash
	}
	wallet, err := h.wallets.Deposit(c.Request.Context(), currentUserID(c), req.Amount, req.Currency, balanceType)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, wallet, "Deposit recorded")
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.NewValidationError("invalid request body: %v", err))
		return
	}
	wallet, err := h.wallets.Withdraw(c.Request.Context(), currentUserID(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, wallet, "Withdrawal recorded")
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	txns, err := h.wallets.Transactions(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, txns, "")
}

func (h *WalletHandler) RecordRentalPayout(c *gin.Context) {
	var req rentalPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.NewValidationError("invalid request body: %v", err))
		return
	}
	payout, err := h.wallets.RecordRentalPayout(c.Request.Context(), currentUserID(c), req.ProjectID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, payout, "Rental payout recorded")
}

func (h *WalletHandler) RentalHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	payouts, total, err := h.wallets.RentalHistory(c.Request.Context(), currentUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"payouts": payouts,
		"total":   total,
		"page":    page,
	}, "")
}

func (h *WalletHandler) RentalStats(c *gin.Context) {
	stats, err := h.stats.RentalStats(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats, "")
}
