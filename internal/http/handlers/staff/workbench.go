package staff

import (
	"strings"
	"time"

	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// EyeMeasurementRequest 单眼验光数据
type EyeMeasurementRequest struct {
	Sphere   string `json:"sphere"`
	Cylinder string `json:"cylinder"`
	Axis     int    `json:"axis"`
	VA       string `json:"va"`
}

// ExamRecordRequest 验光记录录入请求
type ExamRecordRequest struct {
	CustomerID  uint                  `json:"customer_id" binding:"required"`
	RightEye    EyeMeasurementRequest `json:"right_eye"`
	LeftEye     EyeMeasurementRequest `json:"left_eye"`
	PD          string                `json:"pd"`
	Add         string                `json:"add"`
	Note        string                `json:"note"`
	Optometrist string                `json:"optometrist"`
	ExamDate    *time.Time            `json:"exam_date"`
}

// RechargeRequest 现场充值请求，金额单位为元
type RechargeRequest struct {
	CustomerID    uint    `json:"customer_id" binding:"required"`
	Amount        string  `json:"amount" binding:"required"`
	GiftAmount    *string `json:"gift_amount"`
	PaymentMethod string  `json:"payment_method"`
	Remark        string  `json:"remark" binding:"max=255"`
}

// AddExamRecord 录入验光记录
func (h *Handler) AddExamRecord(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	var req ExamRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	optometrist := strings.TrimSpace(req.Optometrist)
	if optometrist == "" {
		optometrist = auth.StaffName
	}
	examDate := time.Now()
	if req.ExamDate != nil && !req.ExamDate.IsZero() {
		examDate = *req.ExamDate
	}
	record, err := h.ExamService.AddExamRecord(service.ExamRecordInput{
		CustomerID:    req.CustomerID,
		RightEye:      toEyeInput(req.RightEye),
		LeftEye:       toEyeInput(req.LeftEye),
		PD:            req.PD,
		Add:           req.Add,
		Note:          req.Note,
		Optometrist:   optometrist,
		OptometristID: auth.StaffID,
		ExamDate:      examDate,
	})
	if err != nil {
		respondWithMappedError(c, err, workbenchErrorRules, response.CodeInternal, "error.exam_record_save_failed")
		return
	}
	response.Success(c, record)
}

// Recharge 现场充值
func (h *Handler) Recharge(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.recharge_amount_invalid", nil)
		return
	}
	var gift *int64
	if req.GiftAmount != nil {
		giftYuan, err := decimal.NewFromString(strings.TrimSpace(*req.GiftAmount))
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.recharge_amount_invalid", nil)
			return
		}
		cents := models.YuanToCents(giftYuan)
		gift = &cents
	}
	record, err := h.RechargeService.Recharge(service.StaffRechargeInput{
		CustomerID:    req.CustomerID,
		Amount:        models.YuanToCents(amount),
		GiftAmount:    gift,
		PaymentMethod: req.PaymentMethod,
		Remark:        req.Remark,
		StaffID:       auth.StaffID,
		StaffName:     auth.StaffName,
	})
	if err != nil {
		respondWithMappedError(c, err, workbenchErrorRules, response.CodeInternal, "error.recharge_failed")
		return
	}
	response.Success(c, record)
}

func toEyeInput(req EyeMeasurementRequest) service.EyeMeasurementInput {
	return service.EyeMeasurementInput{
		Sphere:   strings.TrimSpace(req.Sphere),
		Cylinder: strings.TrimSpace(req.Cylinder),
		Axis:     req.Axis,
		VA:       strings.TrimSpace(req.VA),
	}
}
