package public

import (
	"strconv"

	"github.com/optical-member/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetLotteryCatalog 奖池配置
func (h *Handler) GetLotteryCatalog(c *gin.Context) {
	response.Success(c, h.LotteryService.Catalog())
}

// DrawLottery 每日抽奖
func (h *Handler) DrawLottery(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	record, err := h.LotteryService.Draw(auth.CustomerID)
	if err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(customerCommonErrorRules, lotteryErrorRules), response.CodeInternal, "error.lottery_draw_failed")
		return
	}
	response.Success(c, record)
}

// CheckTodayLottery 查询今日是否已抽奖
func (h *Handler) CheckTodayLottery(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	today, err := h.LotteryService.CheckToday(auth.CustomerID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.lottery_fetch_failed", err)
		return
	}
	response.Success(c, today)
}

// ListMyPrizes 我的奖品
func (h *Handler) ListMyPrizes(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	prizes, err := h.LotteryService.ListMyPrizes(auth.CustomerID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.lottery_fetch_failed", err)
		return
	}
	response.Success(c, prizes)
}

// UsePrize 会员自助使用奖品
func (h *Handler) UsePrize(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	prizeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || prizeID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	record, err := h.LotteryService.UsePrize(auth.CustomerID, uint(prizeID))
	if err != nil {
		respondWithMappedError(c, err, lotteryErrorRules, response.CodeInternal, "error.prize_use_failed")
		return
	}
	response.Success(c, record)
}
