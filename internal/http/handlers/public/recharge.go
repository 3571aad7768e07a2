package public

import (
	"strconv"
	"strings"

	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const paymentCallbackSecretHeader = "X-Callback-Secret"

// CreateRechargeOrderRequest 在线充值请求，金额单位为元
type CreateRechargeOrderRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// RechargeCallbackRequest 支付回调请求
type RechargeCallbackRequest struct {
	OrderNo       string `json:"order_no" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
}

// GetRechargeOffers 充值档位
func (h *Handler) GetRechargeOffers(c *gin.Context) {
	response.Success(c, h.RechargeService.Offers())
}

// CreateRechargeOrder 创建在线充值订单
func (h *Handler) CreateRechargeOrder(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	var req CreateRechargeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.recharge_amount_invalid", nil)
		return
	}
	order, err := h.RechargeService.CreateOnlineOrder(auth.CustomerID, models.YuanToCents(amount))
	if err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(customerCommonErrorRules, rechargeErrorRules), response.CodeInternal, "error.recharge_failed")
		return
	}
	response.Success(c, order)
}

// ListRechargeRecords 我的充值记录
func (h *Handler) ListRechargeRecords(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := h.RechargeService.ListRecords(auth.CustomerID, limit)
	if err != nil {
		respondError(c, response.CodeInternal, "error.recharge_fetch_failed", err)
		return
	}
	response.Success(c, records)
}

// RechargeCallback 在线充值支付回调
func (h *Handler) RechargeCallback(c *gin.Context) {
	if err := h.RechargeService.VerifyCallbackSecret(c.GetHeader(paymentCallbackSecretHeader)); err != nil {
		requestLog(c).Warnw("recharge_callback_rejected", "client_ip", c.ClientIP(), "error", err)
		respondWithMappedError(c, err, rechargeErrorRules, response.CodeForbidden, "error.payment_callback_invalid")
		return
	}
	var req RechargeCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.RechargeService.CompleteRechargeOrder(req.OrderNo, req.TransactionID)
	if err != nil {
		respondWithMappedError(c, err, rechargeErrorRules, response.CodeInternal, "error.payment_callback_failed")
		return
	}
	response.Success(c, gin.H{"order_no": order.OrderNo, "status": order.Status})
}
