package public

import (
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	NickName  *string `json:"nick_name" binding:"omitempty,max=64"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=512"`
	Gender    *int    `json:"gender" binding:"omitempty,gte=0,lte=2"`
	Age       *int    `json:"age" binding:"omitempty,gte=0,lte=150"`
}

// PaymentPasswordRequest 设置支付密码请求
type PaymentPasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" binding:"required"`
}

// VerifyPaymentPasswordRequest 校验支付密码请求
type VerifyPaymentPasswordRequest struct {
	Password string `json:"password"`
}

// GetProfile 获取会员资料
func (h *Handler) GetProfile(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	customer, err := h.CustomerService.GetProfile(auth.CustomerID)
	if err != nil {
		respondCustomerError(c, err, "error.customer_fetch_failed")
		return
	}
	response.Success(c, customer)
}

// UpdateProfile 更新会员资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	customer, err := h.CustomerService.UpdateProfile(auth.CustomerID, service.UpdateProfileInput{
		NickName:  req.NickName,
		AvatarURL: req.AvatarURL,
		Gender:    req.Gender,
		Age:       req.Age,
	})
	if err != nil {
		respondCustomerError(c, err, "error.customer_update_failed")
		return
	}
	response.Success(c, customer)
}

// GetPoints 获取积分
func (h *Handler) GetPoints(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	points, err := h.CustomerService.GetPoints(auth.CustomerID)
	if err != nil {
		respondCustomerError(c, err, "error.customer_fetch_failed")
		return
	}
	response.Success(c, gin.H{"points": points})
}

// GetBalance 获取余额
func (h *Handler) GetBalance(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	balance, err := h.CustomerService.GetBalance(auth.CustomerID)
	if err != nil {
		respondCustomerError(c, err, "error.customer_fetch_failed")
		return
	}
	response.Success(c, balance)
}

// SetPaymentPassword 设置或修改支付密码
func (h *Handler) SetPaymentPassword(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	var req PaymentPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CustomerService.SetPaymentPassword(auth.CustomerID, req.OldPassword, req.NewPassword); err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(customerCommonErrorRules, paymentPasswordErrorRules), response.CodeInternal, "error.customer_update_failed")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// VerifyPaymentPassword 校验支付密码
func (h *Handler) VerifyPaymentPassword(c *gin.Context) {
	auth, ok := customerAuth(c)
	if !ok {
		return
	}
	var req VerifyPaymentPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CustomerService.VerifyPaymentPassword(auth.CustomerID, req.Password); err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(customerCommonErrorRules, paymentPasswordErrorRules), response.CodeInternal, "error.customer_fetch_failed")
		return
	}
	response.Success(c, gin.H{"verified": true})
}
