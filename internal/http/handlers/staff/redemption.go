package staff

import (
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
)

// ValidateRequest 扫码校验请求
type ValidateRequest struct {
	Payload string `json:"payload" binding:"required,max=1024"`
}

// SettleRequest 核销提交请求，金额单位为分
type SettleRequest struct {
	CustomerID   uint   `json:"customer_id" binding:"required"`
	DeductAmount int64  `json:"deduct_amount" binding:"gte=0"`
	PrizeIDs     []uint `json:"prize_ids"`
	Remark       string `json:"remark" binding:"max=255"`
	Reference    string `json:"reference" binding:"max=64"`
}

// ValidateRedemption 扫码校验核销码
func (h *Handler) ValidateRedemption(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	view, err := h.RedemptionService.Validate(c.Request.Context(), req.Payload)
	if err != nil {
		requestLog(c).Infow("redemption_validate_rejected", "staff_id", auth.StaffID, "error", err)
		respondWithMappedError(c, err, redemptionErrorRules, response.CodeInternal, "error.redemption_validate_failed")
		return
	}
	response.Success(c, view)
}

// Settle 提交核销：扣减余额并核销奖品
func (h *Handler) Settle(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.SettlementService.Settle(c.Request.Context(), service.SettleInput{
		CustomerID:   req.CustomerID,
		DeductAmount: req.DeductAmount,
		PrizeIDs:     req.PrizeIDs,
		Remark:       req.Remark,
		StaffID:      auth.StaffID,
		StaffName:    auth.StaffName,
		Reference:    req.Reference,
	})
	if err != nil {
		respondWithMappedError(c, err, settlementErrorRules, response.CodeInternal, "error.settlement_failed")
		return
	}
	response.Success(c, result)
}
