package staff

import (
	"github.com/optical-member/internal/http/response"

	"github.com/gin-gonic/gin"
)

// TodayStats 今日业绩
func (h *Handler) TodayStats(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	stats, err := h.StaffService.TodayStats(c.Request.Context(), auth.StaffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stats_fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// MonthlyStats 本月业绩
func (h *Handler) MonthlyStats(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	stats, err := h.StaffService.MonthlyStats(c.Request.Context(), auth.StaffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stats_fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// RecentVerifyRecords 最近核销记录
func (h *Handler) RecentVerifyRecords(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	records, err := h.StaffService.RecentVerifyRecords(auth.StaffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.verify_record_fetch_failed", err)
		return
	}
	response.Success(c, records)
}
