package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RedemptionTokenSnapshot 核销码缓存快照，过期时间为毫秒时间戳
type RedemptionTokenSnapshot struct {
	CustomerID uint   `json:"customer_id"`
	Identity   string `json:"identity"`
	ExpireAtMs int64  `json:"expire_at_ms"`
}

// NewRedemptionTokenSnapshot 构造快照
func NewRedemptionTokenSnapshot(customerID uint, identity string, expireAt time.Time) *RedemptionTokenSnapshot {
	return &RedemptionTokenSnapshot{
		CustomerID: customerID,
		Identity:   identity,
		ExpireAtMs: expireAt.UnixMilli(),
	}
}

// ExpireAt 快照中的过期时间
func (s *RedemptionTokenSnapshot) ExpireAt() time.Time {
	return time.UnixMilli(s.ExpireAtMs)
}

func redemptionTokenKey(token string) string {
	return fmt.Sprintf("redeem:token:%s", strings.ToLower(strings.TrimSpace(token)))
}

// SetRedemptionToken 缓存核销码，TTL 与有效期一致
func SetRedemptionToken(ctx context.Context, token string, snapshot *RedemptionTokenSnapshot, ttl time.Duration) error {
	if snapshot == nil || strings.TrimSpace(token) == "" || ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, redemptionTokenKey(token), snapshot, ttl)
}

// GetRedemptionToken 读取核销码快照
func GetRedemptionToken(ctx context.Context, token string) (*RedemptionTokenSnapshot, bool, error) {
	if strings.TrimSpace(token) == "" {
		return nil, false, nil
	}
	var snapshot RedemptionTokenSnapshot
	hit, err := GetJSON(ctx, redemptionTokenKey(token), &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

func staffStatsKey(scope string, staffID uint) string {
	return fmt.Sprintf("stats:staff:%s:%d", scope, staffID)
}

// GetStaffStats 读取店员统计缓存
func GetStaffStats(ctx context.Context, scope string, staffID uint, dest interface{}) (bool, error) {
	if staffID == 0 {
		return false, nil
	}
	return GetJSON(ctx, staffStatsKey(scope, staffID), dest)
}

// SetStaffStats 写入店员统计缓存
func SetStaffStats(ctx context.Context, scope string, staffID uint, value interface{}, ttl time.Duration) error {
	if staffID == 0 || ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, staffStatsKey(scope, staffID), value, ttl)
}

// DelStaffStats 清除店员统计缓存
func DelStaffStats(ctx context.Context, staffID uint, scopes ...string) error {
	if staffID == 0 || len(scopes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		keys = append(keys, staffStatsKey(scope, staffID))
	}
	return Del(ctx, keys...)
}
