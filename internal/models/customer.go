package models

import (
	"time"
)

// Customer 会员表
type Customer struct {
	ID                  uint       `gorm:"primarykey" json:"id"`                                     // 主键
	Identity            string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"openid"`     // 身份标识（openid）
	MemberCode          string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"member_code"` // 会员编号
	Phone               *string    `gorm:"type:varchar(32);uniqueIndex" json:"phone"`                // 手机号
	NickName            string     `gorm:"type:varchar(64);default:''" json:"nick_name"`             // 昵称
	AvatarURL           string     `gorm:"type:varchar(512);default:''" json:"avatar_url"`           // 头像
	Gender              int        `gorm:"not null;default:0" json:"gender"`                         // 性别
	Age                 *int       `json:"age"`                                                      // 年龄
	Balance             int64      `gorm:"not null;default:0" json:"balance"`                        // 余额（分）
	Points              int64      `gorm:"not null;default:0" json:"points"`                         // 积分
	MemberLevel         string     `gorm:"type:varchar(32);not null" json:"member_level"`            // 会员等级
	PaymentPasswordHash string     `gorm:"type:varchar(255);default:''" json:"-"`                    // 支付密码哈希
	HasPaymentPassword  bool       `gorm:"not null;default:false" json:"has_payment_password"`       // 是否设置支付密码
	Role                string     `gorm:"type:varchar(16);not null;default:'customer'" json:"role"` // 角色
	TokenVersion        uint64     `gorm:"not null;default:0" json:"-"`                              // Token 版本
	LastExamDate        *time.Time `json:"last_exam_date"`                                           // 最后验光时间
	LastLoginAt         *time.Time `json:"last_login_at"`                                            // 最后登录时间
	CreatedAt           time.Time  `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt           time.Time  `json:"updated_at"`                                               // 更新时间
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// DisplayName 展示名称
func (c *Customer) DisplayName() string {
	if c == nil {
		return ""
	}
	if c.NickName != "" {
		return c.NickName
	}
	return "用户" + c.MemberCode
}

// PhoneValue 手机号（未绑定返回空串）
func (c *Customer) PhoneValue() string {
	if c == nil || c.Phone == nil {
		return ""
	}
	return *c.Phone
}
