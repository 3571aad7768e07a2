package public

import (
	"github.com/optical-member/internal/http/response"

	"github.com/gin-gonic/gin"
)

// IssueRedemptionToken 签发核销二维码
func (h *Handler) IssueRedemptionToken(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	issued, err := h.RedemptionService.Issue(c.Request.Context(), auth.CustomerID)
	if err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(redemptionIssueErrorRules, customerCommonErrorRules), response.CodeInternal, "error.redemption_issue_failed")
		return
	}
	qrcode, err := h.RedemptionService.RenderQRCode(issued.Payload)
	if err != nil {
		// 渲染失败时仍返回 payload
		requestLog(c).Warnw("redemption_qrcode_render_failed", "customer_id", auth.CustomerID, "error", err)
	}
	response.Success(c, gin.H{
		"payload":    issued.Payload,
		"qrcode":     qrcode,
		"expires_in": issued.ExpiresIn,
		"expires_at": issued.ExpiresAt,
	})
}
