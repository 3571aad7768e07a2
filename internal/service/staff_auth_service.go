package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/optical-member/internal/cache"
	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// StaffRegisterInput 店员注册输入
type StaffRegisterInput struct {
	Identity  string
	Name      string
	Phone     string
	Password  string
	StaffNo   string
	NickName  string
	AvatarURL string
}

// StaffAuthService 店员认证服务
type StaffAuthService struct {
	cfg        *config.Config
	staffRepo  repository.StaffRepository
	captchaSvc *CaptchaService
	now        func() time.Time
}

// NewStaffAuthService 创建店员认证服务
func NewStaffAuthService(cfg *config.Config, staffRepo repository.StaffRepository, captchaSvc *CaptchaService) *StaffAuthService {
	return &StaffAuthService{
		cfg:        cfg,
		staffRepo:  staffRepo,
		captchaSvc: captchaSvc,
		now:        time.Now,
	}
}

// StaffJWTClaims 店员 JWT 声明
type StaffJWTClaims struct {
	StaffID      uint   `json:"staff_id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// HashPassword 使用 bcrypt 加密密码
func (s *StaffAuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ValidatePassword 校验密码是否符合策略
func (s *StaffAuthService) ValidatePassword(password string) error {
	if s == nil || s.cfg == nil {
		return nil
	}
	return validatePassword(s.cfg.Security.PasswordPolicy, password)
}

// GenerateStaffJWT 生成店员 JWT
func (s *StaffAuthService) GenerateStaffJWT(staff *models.Staff) (string, time.Time, error) {
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 12
	}
	now := s.now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	claims := StaffJWTClaims{
		StaffID:      staff.ID,
		Name:         staff.Name,
		Role:         staff.Role,
		TokenVersion: staff.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.Role,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseStaffJWT 解析店员 JWT
func (s *StaffAuthService) ParseStaffJWT(tokenString string) (*StaffJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &StaffJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.StaffID == 0 {
		return nil, errors.New("无效的 token")
	}
	return claims, nil
}

// ResolveAuthState 校验店员令牌版本与审核状态
func (s *StaffAuthService) ResolveAuthState(ctx context.Context, claims *StaffJWTClaims) (*cache.StaffAuthState, error) {
	if claims == nil {
		return nil, ErrStaffNotFound
	}
	state, hit, err := cache.GetStaffAuthState(ctx, claims.StaffID)
	if err != nil {
		logger.Warnw("staff_auth_state_cache_get_failed", "staff_id", claims.StaffID, "error", err)
	}
	if !hit || state == nil {
		staff, err := s.staffRepo.GetByID(claims.StaffID)
		if err != nil {
			return nil, err
		}
		if staff == nil {
			return nil, ErrStaffNotFound
		}
		state = cache.BuildStaffAuthState(staff)
		_ = cache.SetStaffAuthState(ctx, state)
	}
	if state.TokenVersion != claims.TokenVersion {
		return nil, ErrInvalidCredentials
	}
	if !state.IsApproved {
		return nil, ErrStaffNotApproved
	}
	return state, nil
}

// Register 店员注册，需管理员审核后方可登录
func (s *StaffAuthService) Register(input StaffRegisterInput) (*models.Staff, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" {
		return nil, ErrInvalidInput
	}
	if !phonePattern.MatchString(phone) {
		return nil, ErrPhoneInvalid
	}
	if err := s.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	existing, err := s.staffRepo.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrStaffPhoneExists
	}
	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	staff := &models.Staff{
		Identity:     strings.TrimSpace(input.Identity),
		Name:         name,
		Phone:        phone,
		PasswordHash: hash,
		StaffNo:      strings.TrimSpace(input.StaffNo),
		NickName:     strings.TrimSpace(input.NickName),
		AvatarURL:    strings.TrimSpace(input.AvatarURL),
		Role:         constants.RoleStaff,
		IsApproved:   false,
	}
	if err := s.staffRepo.Create(staff); err != nil {
		return nil, err
	}
	logger.Infow("staff_registered", "staff_id", staff.ID, "phone", phone)
	return staff, nil
}

// Login 店员登录：校验验证码、密码与审核状态
func (s *StaffAuthService) Login(phone, password string, captcha CaptchaVerifyPayload) (*models.Staff, string, time.Time, error) {
	if err := s.captchaSvc.Verify(captcha); err != nil {
		return nil, "", time.Time{}, err
	}
	staff, err := s.staffRepo.GetByPhone(strings.TrimSpace(phone))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if staff == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !staff.IsApproved {
		return nil, "", time.Time{}, ErrStaffNotApproved
	}

	token, expiresAt, err := s.GenerateStaffJWT(staff)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := s.now()
	staff.LastLoginAt = &now
	if err := s.staffRepo.Update(staff); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetStaffAuthState(context.Background(), cache.BuildStaffAuthState(staff))
	return staff, token, expiresAt, nil
}

// WechatLogin 店员微信身份登录，需已注册并审核通过，登录时刷新昵称与头像
func (s *StaffAuthService) WechatLogin(identity string, profile WechatProfile) (*models.Staff, string, time.Time, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, "", time.Time{}, ErrIdentityInvalid
	}
	staff, err := s.staffRepo.GetByIdentity(identity)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if staff == nil {
		return nil, "", time.Time{}, ErrStaffUnbound
	}
	if !staff.IsApproved {
		return nil, "", time.Time{}, ErrStaffNotApproved
	}

	if nick := strings.TrimSpace(profile.NickName); nick != "" {
		staff.NickName = nick
	}
	if avatar := strings.TrimSpace(profile.AvatarURL); avatar != "" {
		staff.AvatarURL = avatar
	}
	now := s.now()
	staff.LastLoginAt = &now
	if err := s.staffRepo.Update(staff); err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.GenerateStaffJWT(staff)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetStaffAuthState(context.Background(), cache.BuildStaffAuthState(staff))
	logger.Infow("staff_wechat_login", "staff_id", staff.ID)
	return staff, token, expiresAt, nil
}

// GetProfile 获取店员资料
func (s *StaffAuthService) GetProfile(staffID uint) (*models.Staff, error) {
	staff, err := s.staffRepo.GetByID(staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrStaffNotFound
	}
	return staff, nil
}

// ChangePassword 修改店员密码，旧令牌失效
func (s *StaffAuthService) ChangePassword(staffID uint, oldPassword, newPassword string) error {
	staff, err := s.GetProfile(staffID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidPassword
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	staff.PasswordHash = hash
	staff.TokenVersion++
	if err := s.staffRepo.Update(staff); err != nil {
		return err
	}
	_ = cache.SetStaffAuthState(context.Background(), cache.BuildStaffAuthState(staff))
	return nil
}
