package models

import (
	"time"
)

// LotteryRecord 抽奖记录（奖品实例）
type LotteryRecord struct {
	ID         uint       `gorm:"primarykey" json:"id"`                                                                       // 主键
	CustomerID uint       `gorm:"not null;uniqueIndex:idx_lottery_customer_day,priority:1" json:"customer_id"`                // 会员ID
	Identity   string     `gorm:"type:varchar(128);index;not null" json:"openid"`                                             // 身份标识
	PrizeKind  int        `gorm:"not null" json:"prize_id"`                                                                   // 奖品种类
	Name       string     `gorm:"type:varchar(64);not null" json:"name"`                                                      // 奖品名称
	Icon       string     `gorm:"type:varchar(16);default:''" json:"icon"`                                                    // 图标
	IsUsed     bool       `gorm:"not null;default:false;index" json:"is_used"`                                                // 是否已使用
	UsedAt     *time.Time `json:"used_at"`                                                                                    // 使用时间
	ExpireAt   time.Time  `gorm:"index;not null" json:"expire_at"`                                                            // 过期时间
	DrawDate   string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_lottery_customer_day,priority:2" json:"draw_date"` // 抽奖日期
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`                                                                    // 创建时间
}

// TableName 指定表名
func (LotteryRecord) TableName() string {
	return "lottery_records"
}

// Redeemable 未使用且未过期
func (r *LotteryRecord) Redeemable(now time.Time) bool {
	return r != nil && !r.IsUsed && now.Before(r.ExpireAt)
}
