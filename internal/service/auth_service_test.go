package service

import (
	"context"
	"errors"
	"testing"

	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerWechatLoginCreatesAndRefreshes(t *testing.T) {
	env := setupServiceTest(t, "auth_wechat")
	svc := NewCustomerAuthService(env.cfg, env.customerRepo)

	customer, token, _, err := svc.WechatLogin(" openid-wx ", WechatProfile{NickName: "小明", Gender: 1})
	require.NoError(t, err)
	assert.Equal(t, "openid-wx", customer.Identity)
	assert.Equal(t, "小明", customer.NickName)
	assert.Equal(t, constants.MemberLevelNormal, customer.MemberLevel)
	assert.NotEmpty(t, customer.MemberCode)

	claims, err := svc.ParseCustomerJWT(token)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, claims.CustomerID)
	state, err := svc.ResolveAuthState(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, state.CustomerID)

	again, _, _, err := svc.WechatLogin("openid-wx", WechatProfile{AvatarURL: "https://img.example.com/a.png"})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, again.ID)
	assert.Equal(t, "小明", again.NickName)
	assert.Equal(t, "https://img.example.com/a.png", again.AvatarURL)

	_, _, _, err = svc.WechatLogin("   ", WechatProfile{})
	assert.ErrorIs(t, err, ErrIdentityInvalid)
}

func TestCustomerPhoneLogin(t *testing.T) {
	env := setupServiceTest(t, "auth_phone")
	svc := NewCustomerAuthService(env.cfg, env.customerRepo)

	_, _, _, err := svc.PhoneLogin("openid-a", "12345", "1234")
	assert.ErrorIs(t, err, ErrPhoneInvalid)
	_, _, _, err = svc.PhoneLogin("openid-a", "13800138000", "12")
	assert.ErrorIs(t, err, ErrVerifyCodeInvalid)

	created, firstToken, _, err := svc.PhoneLogin("openid-a", "13800138000", "123456")
	require.NoError(t, err)
	assert.Equal(t, "13800138000", created.PhoneValue())

	// 同一手机号换设备登录：绑定新身份并使旧令牌失效
	moved, _, _, err := svc.PhoneLogin("openid-b", "13800138000", "654321")
	require.NoError(t, err)
	assert.Equal(t, created.ID, moved.ID)
	assert.Equal(t, "openid-b", moved.Identity)

	oldClaims, err := svc.ParseCustomerJWT(firstToken)
	require.NoError(t, err)
	_, err = svc.ResolveAuthState(context.Background(), oldClaims)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCustomerPhoneLoginBindsExistingIdentity(t *testing.T) {
	env := setupServiceTest(t, "auth_phone_bind")
	svc := NewCustomerAuthService(env.cfg, env.customerRepo)

	wx, _, _, err := svc.WechatLogin("openid-bind", WechatProfile{NickName: "阿花"})
	require.NoError(t, err)
	bound, _, _, err := svc.PhoneLogin("openid-bind", "13900139000", "8888")
	require.NoError(t, err)
	assert.Equal(t, wx.ID, bound.ID)
	assert.Equal(t, "13900139000", bound.PhoneValue())
}

func TestCustomerJWTRejectsForeignSecret(t *testing.T) {
	env := setupServiceTest(t, "auth_customer_secret")
	svc := NewCustomerAuthService(env.cfg, env.customerRepo)
	customer := env.createCustomer(t, "openid-secret", 0)

	staffSvc := NewStaffAuthService(env.cfg, env.staffRepo, NewCaptchaService(config.CaptchaConfig{}))
	staffToken, _, err := staffSvc.GenerateStaffJWT(env.createStaff(t, "13700000001", constants.RoleStaff, true))
	require.NoError(t, err)
	_, err = svc.ParseCustomerJWT(staffToken)
	assert.Error(t, err)

	token, _, err := svc.GenerateCustomerJWT(customer)
	require.NoError(t, err)
	_, err = staffSvc.ParseStaffJWT(token)
	assert.Error(t, err)
}

func TestStaffRegisterAndLoginRequiresApproval(t *testing.T) {
	env := setupServiceTest(t, "auth_staff")
	svc := NewStaffAuthService(env.cfg, env.staffRepo, NewCaptchaService(config.CaptchaConfig{}))

	_, err := svc.Register(StaffRegisterInput{Name: "小王", Phone: "13600000001", Password: "short1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWeakPassword))

	staff, err := svc.Register(StaffRegisterInput{Name: " 小王 ", Phone: "13600000001", Password: "optical123"})
	require.NoError(t, err)
	assert.Equal(t, "小王", staff.Name)
	assert.Equal(t, constants.RoleStaff, staff.Role)
	assert.False(t, staff.IsApproved)
	assert.NotEqual(t, "optical123", staff.PasswordHash)

	_, err = svc.Register(StaffRegisterInput{Name: "小李", Phone: "13600000001", Password: "optical123"})
	assert.ErrorIs(t, err, ErrStaffPhoneExists)

	_, _, _, err = svc.Login("13600000001", "optical123", CaptchaVerifyPayload{})
	assert.ErrorIs(t, err, ErrStaffNotApproved)
	_, _, _, err = svc.Login("13600000001", "wrong-pass1", CaptchaVerifyPayload{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.db.Model(staff).Update("is_approved", true).Error)
	loggedIn, token, _, err := svc.Login("13600000001", "optical123", CaptchaVerifyPayload{})
	require.NoError(t, err)
	require.NotNil(t, loggedIn.LastLoginAt)

	claims, err := svc.ParseStaffJWT(token)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, claims.StaffID)
	assert.Equal(t, constants.RoleStaff, claims.Role)
	_, err = svc.ResolveAuthState(context.Background(), claims)
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(staff.ID, "optical123", "newpass456"))
	_, err = svc.ResolveAuthState(context.Background(), claims)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(staff.ID, "optical123", "another789"), ErrInvalidPassword)
}

func TestCaptchaVerify(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Enabled: true})
	challenge, err := svc.GenerateImageChallenge()
	require.NoError(t, err)
	require.NotEmpty(t, challenge.CaptchaID)
	require.NotEmpty(t, challenge.ImageBase64)

	assert.ErrorIs(t, svc.Verify(CaptchaVerifyPayload{}), ErrCaptchaRequired)
	assert.ErrorIs(t, svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: "!!!!"}), ErrCaptchaInvalid)

	second, err := svc.GenerateImageChallenge()
	require.NoError(t, err)
	answer := svc.ensureStore().Get(second.CaptchaID, false)
	require.NoError(t, svc.Verify(CaptchaVerifyPayload{CaptchaID: second.CaptchaID, CaptchaCode: answer}))
	// 验证通过后即作废
	assert.ErrorIs(t, svc.Verify(CaptchaVerifyPayload{CaptchaID: second.CaptchaID, CaptchaCode: answer}), ErrCaptchaInvalid)

	disabled := NewCaptchaService(config.CaptchaConfig{})
	assert.NoError(t, disabled.Verify(CaptchaVerifyPayload{}))
	_, err = disabled.GenerateImageChallenge()
	assert.ErrorIs(t, err, ErrCaptchaConfigInvalid)
}

func TestStaffWechatLogin(t *testing.T) {
	env := setupServiceTest(t, "auth_staff_wechat")
	svc := NewStaffAuthService(env.cfg, env.staffRepo, NewCaptchaService(config.CaptchaConfig{}))

	staff, err := svc.Register(StaffRegisterInput{
		Identity: "openid-staff",
		Name:     "小周",
		Phone:    "13600000011",
		Password: "optical123",
		NickName: "旧昵称",
	})
	require.NoError(t, err)

	_, _, _, err = svc.WechatLogin("  ", WechatProfile{})
	assert.ErrorIs(t, err, ErrIdentityInvalid)
	_, _, _, err = svc.WechatLogin("openid-nobody", WechatProfile{})
	assert.ErrorIs(t, err, ErrStaffUnbound)
	_, _, _, err = svc.WechatLogin("openid-staff", WechatProfile{NickName: "新昵称"})
	assert.ErrorIs(t, err, ErrStaffNotApproved)

	require.NoError(t, env.db.Model(staff).Update("is_approved", true).Error)
	loggedIn, token, _, err := svc.WechatLogin(" openid-staff ", WechatProfile{AvatarURL: "https://img.example.com/s.png"})
	require.NoError(t, err)
	assert.Equal(t, staff.ID, loggedIn.ID)
	// 未提供昵称时保留原值
	assert.Equal(t, "旧昵称", loggedIn.NickName)
	assert.Equal(t, "https://img.example.com/s.png", loggedIn.AvatarURL)
	require.NotNil(t, loggedIn.LastLoginAt)

	claims, err := svc.ParseStaffJWT(token)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, claims.StaffID)
	_, err = svc.ResolveAuthState(context.Background(), claims)
	require.NoError(t, err)

	var reloaded models.Staff
	require.NoError(t, env.db.First(&reloaded, staff.ID).Error)
	assert.Equal(t, "https://img.example.com/s.png", reloaded.AvatarURL)
	assert.Equal(t, "旧昵称", reloaded.NickName)
}
