package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/optical-member/internal/cache"
	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	qrcode "github.com/skip2/go-qrcode"
)

const redemptionTokenBytes = 16

// RedemptionPayload 二维码承载的核销数据
type RedemptionPayload struct {
	OpenID    string `json:"openid"`
	Timestamp string `json:"timestamp"`
	Token     string `json:"token"`
}

// IssuedRedemption 核销码签发结果
type IssuedRedemption struct {
	Payload   string    `json:"payload"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedemptionView 扫码后展示的会员可核销状态
type RedemptionView struct {
	CustomerID   uint                   `json:"customer_id"`
	Identity     string                 `json:"openid"`
	CustomerName string                 `json:"customer_name"`
	Phone        string                 `json:"phone"`
	Balance      int64                  `json:"balance"`
	BalanceYuan  string                 `json:"balance_yuan"`
	Points       int64                  `json:"points"`
	Prizes       []models.LotteryRecord `json:"prizes"`
}

// RedemptionService 核销码签发与校验
type RedemptionService struct {
	cfg          config.RedemptionConfig
	tokenRepo    repository.RedemptionTokenRepository
	customerRepo repository.CustomerRepository
	lotteryRepo  repository.LotteryRepository
	now          func() time.Time
}

// NewRedemptionService 创建核销码服务
func NewRedemptionService(
	cfg config.RedemptionConfig,
	tokenRepo repository.RedemptionTokenRepository,
	customerRepo repository.CustomerRepository,
	lotteryRepo repository.LotteryRepository,
) *RedemptionService {
	return &RedemptionService{
		cfg:          cfg,
		tokenRepo:    tokenRepo,
		customerRepo: customerRepo,
		lotteryRepo:  lotteryRepo,
		now:          time.Now,
	}
}

// Issue 为会员签发核销码，每次调用生成新令牌，旧令牌在有效期内仍可用
func (s *RedemptionService) Issue(ctx context.Context, customerID uint) (*IssuedRedemption, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	now := s.now()
	if limit := s.cfg.MaxActiveTokens; limit > 0 {
		active, err := s.tokenRepo.CountActiveByCustomer(customer.ID, now)
		if err != nil {
			return nil, err
		}
		if active >= int64(limit) {
			return nil, ErrRedemptionTokenLimit
		}
	}

	tokenValue, err := generateRedemptionToken()
	if err != nil {
		return nil, err
	}
	ttl := s.cfg.TokenTTL()
	token := &models.RedemptionToken{
		CustomerID: customer.ID,
		Identity:   customer.Identity,
		Token:      tokenValue,
		CreatedAt:  now,
		ExpireAt:   now.Add(ttl),
	}
	if err := s.tokenRepo.Create(token); err != nil {
		return nil, err
	}

	snapshot := cache.NewRedemptionTokenSnapshot(customer.ID, customer.Identity, token.ExpireAt)
	if err := cache.SetRedemptionToken(ctx, tokenValue, snapshot, ttl); err != nil {
		logger.Warnw("redemption_token_cache_set_failed", "customer_id", customer.ID, "error", err)
	}

	raw, err := json.Marshal(RedemptionPayload{
		OpenID:    customer.Identity,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Token:     tokenValue,
	})
	if err != nil {
		return nil, err
	}
	return &IssuedRedemption{
		Payload:   string(raw),
		ExpiresIn: int(ttl / time.Second),
		ExpiresAt: token.ExpireAt,
	}, nil
}

// Validate 校验扫码内容并返回会员可核销状态，不消费令牌
func (s *RedemptionService) Validate(ctx context.Context, rawPayload string) (*RedemptionView, error) {
	payload, issuedAt, err := ParseRedemptionPayload(rawPayload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ttl := s.cfg.TokenTTL()
	elapsed := now.Sub(issuedAt)
	if elapsed > ttl || elapsed < -ttl {
		return nil, ErrRedemptionTokenExpired
	}

	expireAt, err := s.lookupToken(ctx, payload)
	if err != nil {
		return nil, err
	}
	if now.After(expireAt) {
		return nil, ErrRedemptionTokenExpired
	}

	customer, err := s.customerRepo.GetByIdentity(payload.OpenID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	prizes, err := s.lotteryRepo.ListRedeemable(customer.ID, now)
	if err != nil {
		return nil, err
	}
	return &RedemptionView{
		CustomerID:   customer.ID,
		Identity:     customer.Identity,
		CustomerName: customer.DisplayName(),
		Phone:        customer.PhoneValue(),
		Balance:      customer.Balance,
		BalanceYuan:  models.FormatCents(customer.Balance),
		Points:       customer.Points,
		Prizes:       prizes,
	}, nil
}

// PurgeExpiredTokens 删除过期超过保留时长的令牌
func (s *RedemptionService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	before := s.now().Add(-s.cfg.TokenRetention())
	deleted, err := s.tokenRepo.DeleteExpiredBefore(before)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Infow("redemption_tokens_purged", "deleted", deleted, "before", before)
	}
	return deleted, nil
}

// RenderQRCode 将核销数据渲染为 PNG 二维码（data URI）
func (s *RedemptionService) RenderQRCode(payload string) (string, error) {
	size := s.cfg.QRCodeSize
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("render qrcode failed: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// lookupToken 先查缓存再回源数据库，返回令牌过期时间
func (s *RedemptionService) lookupToken(ctx context.Context, payload RedemptionPayload) (time.Time, error) {
	snapshot, hit, err := cache.GetRedemptionToken(ctx, payload.Token)
	if err != nil {
		logger.Warnw("redemption_token_cache_get_failed", "error", err)
	}
	if hit && snapshot != nil && snapshot.ExpireAtMs > 0 && snapshot.Identity == payload.OpenID {
		return snapshot.ExpireAt(), nil
	}

	stored, err := s.tokenRepo.GetByIdentityAndToken(payload.OpenID, payload.Token)
	if err != nil {
		return time.Time{}, err
	}
	if stored == nil {
		return time.Time{}, ErrRedemptionTokenNotFound
	}
	return stored.ExpireAt, nil
}

// ParseRedemptionPayload 解析扫码内容
func ParseRedemptionPayload(raw string) (RedemptionPayload, time.Time, error) {
	var payload RedemptionPayload
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return payload, time.Time{}, ErrRedemptionPayloadInvalid
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, time.Time{}, ErrRedemptionPayloadInvalid
	}
	payload.OpenID = strings.TrimSpace(payload.OpenID)
	payload.Token = strings.ToLower(strings.TrimSpace(payload.Token))
	if payload.OpenID == "" || payload.Token == "" || strings.TrimSpace(payload.Timestamp) == "" {
		return payload, time.Time{}, ErrRedemptionPayloadInvalid
	}
	issuedAt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(payload.Timestamp))
	if err != nil {
		return payload, time.Time{}, ErrRedemptionPayloadInvalid
	}
	return payload, issuedAt, nil
}

func generateRedemptionToken() (string, error) {
	buf := make([]byte, redemptionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
