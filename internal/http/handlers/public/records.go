package public

import (
	"time"

	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
)

// SelfTestRequest 视力自测结果上报
type SelfTestRequest struct {
	Eye         string  `json:"eye" binding:"required"`
	VisionLevel string  `json:"vision_level" binding:"required"`
	CorrectRate float64 `json:"correct_rate"`
	TestTime    int     `json:"test_time"`
}

// ListMyExamRecords 我的验光记录
func (h *Handler) ListMyExamRecords(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	records, err := h.ExamService.ListExamRecords(auth.CustomerID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.exam_record_fetch_failed", err)
		return
	}
	response.Success(c, records)
}

// SaveSelfTest 保存视力自测结果
func (h *Handler) SaveSelfTest(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	var req SelfTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	record, err := h.ExamService.SaveSelfTest(auth.CustomerID, service.SelfTestInput{
		Eye:         req.Eye,
		VisionLevel: req.VisionLevel,
		CorrectRate: req.CorrectRate,
		TestTime:    req.TestTime,
		TestDate:    time.Now(),
	})
	if err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(customerCommonErrorRules, recordErrorRules), response.CodeInternal, "error.self_test_save_failed")
		return
	}
	response.Success(c, record)
}

// LatestSelfTest 最近一次自测结果
func (h *Handler) LatestSelfTest(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	record, err := h.ExamService.LatestSelfTest(auth.CustomerID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.self_test_fetch_failed", err)
		return
	}
	response.Success(c, record)
}
