package staff

import (
	"time"

	handlershared "github.com/optical-member/internal/http/handlers/shared"
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 店员注册请求
type RegisterRequest struct {
	Name      string `json:"name" binding:"required,max=64"`
	Phone     string `json:"phone" binding:"required"`
	Password  string `json:"password" binding:"required"`
	StaffNo   string `json:"staff_no" binding:"max=32"`
	OpenID    string `json:"openid" binding:"max=128"`
	NickName  string `json:"nick_name" binding:"max=64"`
	AvatarURL string `json:"avatar_url" binding:"max=512"`
}

// LoginRequest 店员登录请求
type LoginRequest struct {
	Phone          string                              `json:"phone" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// WechatLoginRequest 店员微信登录请求
type WechatLoginRequest struct {
	OpenID    string `json:"openid" binding:"required,max=128"`
	NickName  string `json:"nick_name" binding:"max=64"`
	AvatarURL string `json:"avatar_url" binding:"max=512"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// GetCaptcha 获取登录图片验证码
func (h *Handler) GetCaptcha(c *gin.Context) {
	if !h.CaptchaService.Enabled() {
		response.Success(c, gin.H{"enabled": false})
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondWithMappedError(c, err, captchaErrorRules, response.CodeInternal, "error.captcha_generate_failed")
		return
	}
	response.Success(c, gin.H{
		"enabled":      true,
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}

// Register 店员注册，等待管理员审核
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	staff, err := h.StaffAuthService.Register(service.StaffRegisterInput{
		Identity:  req.OpenID,
		Name:      req.Name,
		Phone:     req.Phone,
		Password:  req.Password,
		StaffNo:   req.StaffNo,
		NickName:  req.NickName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		if respondPasswordError(c, err) {
			return
		}
		respondWithMappedError(c, err, staffAuthErrorRules, response.CodeInternal, "error.register_failed")
		return
	}
	response.Success(c, gin.H{
		"id":          staff.ID,
		"name":        staff.Name,
		"phone":       staff.Phone,
		"is_approved": staff.IsApproved,
	})
}

// Login 店员登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	staff, token, expiresAt, err := h.StaffAuthService.Login(req.Phone, req.Password, req.CaptchaPayload.ToServicePayload())
	if err != nil {
		respondWithMappedError(c, err, append(captchaErrorRules, staffAuthErrorRules...), response.CodeInternal, "error.login_failed")
		return
	}
	h.respondStaffLogin(c, staff, token, expiresAt)
}

func (h *Handler) respondStaffLogin(c *gin.Context, staff *models.Staff, token string, expiresAt time.Time) {
	if h.AuthzService != nil {
		if err := h.AuthzService.EnsureStaffRole(staff.ID, staff.Role); err != nil {
			requestLog(c).Warnw("staff_role_sync_failed", "staff_id", staff.ID, "error", err)
		}
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt.Unix(),
		"staff": gin.H{
			"id":         staff.ID,
			"name":       staff.Name,
			"phone":      staff.Phone,
			"staff_no":   staff.StaffNo,
			"role":       staff.Role,
			"nick_name":  staff.NickName,
			"avatar_url": staff.AvatarURL,
		},
	})
}

// WechatLogin 店员微信身份登录
func (h *Handler) WechatLogin(c *gin.Context) {
	var req WechatLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	staff, token, expiresAt, err := h.StaffAuthService.WechatLogin(req.OpenID, service.WechatProfile{
		NickName:  req.NickName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondWithMappedError(c, err, staffAuthErrorRules, response.CodeInternal, "error.login_failed")
		return
	}
	h.respondStaffLogin(c, staff, token, expiresAt)
}

// GetProfile 获取当前店员资料
func (h *Handler) GetProfile(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	staff, err := h.StaffAuthService.GetProfile(auth.StaffID)
	if err != nil {
		respondWithMappedError(c, err, staffAuthErrorRules, response.CodeInternal, "error.staff_fetch_failed")
		return
	}
	roles, err := h.AuthzService.GetStaffRoles(staff.ID)
	if err != nil {
		requestLog(c).Warnw("staff_roles_fetch_failed", "staff_id", staff.ID, "error", err)
		roles = []string{}
	}
	response.Success(c, gin.H{"staff": staff, "roles": roles})
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.StaffAuthService.ChangePassword(auth.StaffID, req.OldPassword, req.NewPassword); err != nil {
		if respondPasswordError(c, err) {
			return
		}
		respondWithMappedError(c, err, staffAuthErrorRules, response.CodeInternal, "error.password_change_failed")
		return
	}
	response.Success(c, gin.H{"updated": true})
}
