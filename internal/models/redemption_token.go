package models

import (
	"time"
)

// RedemptionToken 核销码令牌，创建后不再修改
type RedemptionToken struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Identity   string    `gorm:"type:varchar(128);index:idx_redemption_identity_token,priority:1;not null" json:"openid"`
	Token      string    `gorm:"type:varchar(64);uniqueIndex;index:idx_redemption_identity_token,priority:2;not null" json:"token"`
	CreatedAt  time.Time `json:"created_at"`
	ExpireAt   time.Time `gorm:"index;not null" json:"expire_at"`
}

// TableName 指定表名
func (RedemptionToken) TableName() string {
	return "redemption_tokens"
}

// ExpiredAt 判断在给定时间是否已过期
func (t *RedemptionToken) ExpiredAt(now time.Time) bool {
	return t == nil || now.After(t.ExpireAt)
}
