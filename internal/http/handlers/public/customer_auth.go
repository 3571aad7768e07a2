package public

import (
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
)

// WechatLoginRequest 微信登录请求
type WechatLoginRequest struct {
	OpenID    string `json:"openid" binding:"required,max=128"`
	NickName  string `json:"nick_name" binding:"max=64"`
	AvatarURL string `json:"avatar_url" binding:"max=512"`
	Gender    int    `json:"gender" binding:"gte=0,lte=2"`
}

// PhoneLoginRequest 手机号登录请求
type PhoneLoginRequest struct {
	OpenID string `json:"openid" binding:"required,max=128"`
	Phone  string `json:"phone" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// WechatLogin 微信身份登录
func (h *Handler) WechatLogin(c *gin.Context) {
	var req WechatLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	customer, token, expiresAt, err := h.CustomerAuthService.WechatLogin(req.OpenID, service.WechatProfile{
		NickName:  req.NickName,
		AvatarURL: req.AvatarURL,
		Gender:    req.Gender,
	})
	if err != nil {
		respondWithMappedError(c, err, customerLoginErrorRules, response.CodeInternal, "error.login_failed")
		return
	}
	response.Success(c, loginPayload(customer, token, expiresAt.Unix()))
}

// PhoneLogin 手机号登录，已注册手机号会绑定到当前身份
func (h *Handler) PhoneLogin(c *gin.Context) {
	var req PhoneLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	customer, token, expiresAt, err := h.CustomerAuthService.PhoneLogin(req.OpenID, req.Phone, req.Code)
	if err != nil {
		respondWithMappedError(c, err, customerLoginErrorRules, response.CodeInternal, "error.login_failed")
		return
	}
	response.Success(c, loginPayload(customer, token, expiresAt.Unix()))
}

func loginPayload(customer *models.Customer, token string, expiresAt int64) gin.H {
	return gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"customer": gin.H{
			"id":           customer.ID,
			"member_code":  customer.MemberCode,
			"nick_name":    customer.DisplayName(),
			"avatar_url":   customer.AvatarURL,
			"phone":        customer.PhoneValue(),
			"member_level": customer.MemberLevel,
			"balance":      customer.Balance,
			"points":       customer.Points,
		},
	}
}
