package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/optical-member/internal/cache"
	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

var (
	phonePattern      = regexp.MustCompile(`^1\d{10}$`)
	smsCodePattern    = regexp.MustCompile(`^\d{4,6}$`)
	identityMaxLength = 128
)

// WechatProfile 微信登录时携带的资料
type WechatProfile struct {
	NickName  string
	AvatarURL string
	Gender    int
}

// CustomerAuthService 会员认证服务
type CustomerAuthService struct {
	cfg          *config.Config
	customerRepo repository.CustomerRepository
	now          func() time.Time
}

// NewCustomerAuthService 创建会员认证服务
func NewCustomerAuthService(cfg *config.Config, customerRepo repository.CustomerRepository) *CustomerAuthService {
	return &CustomerAuthService{
		cfg:          cfg,
		customerRepo: customerRepo,
		now:          time.Now,
	}
}

// CustomerJWTClaims 会员 JWT 声明
type CustomerJWTClaims struct {
	CustomerID   uint   `json:"customer_id"`
	Identity     string `json:"openid"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateCustomerJWT 生成会员 JWT
func (s *CustomerAuthService) GenerateCustomerJWT(customer *models.Customer) (string, time.Time, error) {
	hours := s.cfg.CustomerJWT.ExpireHours
	if hours <= 0 {
		hours = 168
	}
	now := s.now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	claims := CustomerJWTClaims{
		CustomerID:   customer.ID,
		Identity:     customer.Identity,
		TokenVersion: customer.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   constants.RoleCustomer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.CustomerJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseCustomerJWT 解析会员 JWT
func (s *CustomerAuthService) ParseCustomerJWT(tokenString string) (*CustomerJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &CustomerJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.CustomerJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.CustomerID == 0 {
		return nil, errors.New("无效的 token")
	}
	return claims, nil
}

// ResolveAuthState 校验会员令牌版本，优先读取缓存快照
func (s *CustomerAuthService) ResolveAuthState(ctx context.Context, claims *CustomerJWTClaims) (*cache.CustomerAuthState, error) {
	if claims == nil {
		return nil, ErrCustomerNotFound
	}
	state, hit, err := cache.GetCustomerAuthState(ctx, claims.CustomerID)
	if err != nil {
		logger.Warnw("customer_auth_state_cache_get_failed", "customer_id", claims.CustomerID, "error", err)
	}
	if !hit || state == nil {
		customer, err := s.customerRepo.GetByID(claims.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, ErrCustomerNotFound
		}
		state = cache.BuildCustomerAuthState(customer)
		_ = cache.SetCustomerAuthState(ctx, state)
	}
	if state.TokenVersion != claims.TokenVersion || state.Identity != claims.Identity {
		return nil, ErrInvalidCredentials
	}
	return state, nil
}

// PhoneLogin 手机号登录：已注册则绑定当前身份标识，未注册则创建会员
// 短信验证码仅校验格式，真实下发与核验不在本服务范围内
func (s *CustomerAuthService) PhoneLogin(identity, phone, code string) (*models.Customer, string, time.Time, error) {
	identity, err := normalizeIdentity(identity)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return nil, "", time.Time{}, ErrPhoneInvalid
	}
	if !smsCodePattern.MatchString(strings.TrimSpace(code)) {
		return nil, "", time.Time{}, ErrVerifyCodeInvalid
	}

	now := s.now()
	customer, err := s.customerRepo.GetByPhone(phone)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if customer != nil {
		if customer.Identity != identity {
			owner, err := s.customerRepo.GetByIdentity(identity)
			if err != nil {
				return nil, "", time.Time{}, err
			}
			if owner != nil && owner.ID != customer.ID {
				return nil, "", time.Time{}, ErrIdentityInvalid
			}
			customer.Identity = identity
			customer.TokenVersion++
		}
		customer.LastLoginAt = &now
		if err := s.customerRepo.Update(customer); err != nil {
			return nil, "", time.Time{}, err
		}
	} else {
		existing, err := s.customerRepo.GetByIdentity(identity)
		if err != nil {
			return nil, "", time.Time{}, err
		}
		if existing != nil {
			if existing.Phone != nil && *existing.Phone != phone {
				return nil, "", time.Time{}, ErrIdentityInvalid
			}
			existing.Phone = &phone
			existing.LastLoginAt = &now
			if err := s.customerRepo.Update(existing); err != nil {
				return nil, "", time.Time{}, err
			}
			customer = existing
		} else {
			customer = newCustomer(identity, now)
			customer.Phone = &phone
			if err := s.customerRepo.Create(customer); err != nil {
				return nil, "", time.Time{}, err
			}
			logger.Infow("customer_registered", "customer_id", customer.ID, "channel", "phone")
		}
	}
	return s.issue(customer)
}

// WechatLogin 微信登录：已存在则刷新资料，否则创建会员
func (s *CustomerAuthService) WechatLogin(identity string, profile WechatProfile) (*models.Customer, string, time.Time, error) {
	identity, err := normalizeIdentity(identity)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := s.now()
	customer, err := s.customerRepo.GetByIdentity(identity)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if customer != nil {
		if nick := strings.TrimSpace(profile.NickName); nick != "" {
			customer.NickName = nick
		}
		if avatar := strings.TrimSpace(profile.AvatarURL); avatar != "" {
			customer.AvatarURL = avatar
		}
		if profile.Gender != 0 {
			customer.Gender = profile.Gender
		}
		customer.LastLoginAt = &now
		if err := s.customerRepo.Update(customer); err != nil {
			return nil, "", time.Time{}, err
		}
	} else {
		customer = newCustomer(identity, now)
		customer.NickName = strings.TrimSpace(profile.NickName)
		customer.AvatarURL = strings.TrimSpace(profile.AvatarURL)
		customer.Gender = profile.Gender
		if err := s.customerRepo.Create(customer); err != nil {
			return nil, "", time.Time{}, err
		}
		logger.Infow("customer_registered", "customer_id", customer.ID, "channel", "wechat")
	}
	return s.issue(customer)
}

func (s *CustomerAuthService) issue(customer *models.Customer) (*models.Customer, string, time.Time, error) {
	token, expiresAt, err := s.GenerateCustomerJWT(customer)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetCustomerAuthState(context.Background(), cache.BuildCustomerAuthState(customer))
	return customer, token, expiresAt, nil
}

func newCustomer(identity string, now time.Time) *models.Customer {
	code := newMemberCode()
	return &models.Customer{
		Identity:    identity,
		MemberCode:  code,
		NickName:    "用户" + code,
		MemberLevel: constants.MemberLevelNormal,
		Role:        constants.RoleCustomer,
		LastLoginAt: &now,
	}
}

func newMemberCode() string {
	id := ulid.Make().String()
	return "M" + id[len(id)-10:]
}

func normalizeIdentity(identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || len(identity) > identityMaxLength {
		return "", ErrIdentityInvalid
	}
	return identity, nil
}
