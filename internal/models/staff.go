package models

import (
	"time"
)

// Staff 店员表（含管理员）
type Staff struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                        // 主键
	Identity     string     `gorm:"type:varchar(128);index;default:''" json:"-"`                 // 微信身份标识
	Name         string     `gorm:"type:varchar(64);not null" json:"name"`                       // 姓名
	Phone        string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"phone"`          // 手机号
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`                         // 密码哈希
	StaffNo      string     `gorm:"type:varchar(32);default:''" json:"staff_no"`                 // 工号
	NickName     string     `gorm:"type:varchar(64);default:''" json:"nick_name"`                // 昵称
	AvatarURL    string     `gorm:"type:varchar(512);default:''" json:"avatar_url"`              // 头像
	Role         string     `gorm:"type:varchar(16);not null;default:'staff';index" json:"role"` // 角色 staff/admin
	IsApproved   bool       `gorm:"not null;default:false;index" json:"is_approved"`             // 是否审核通过
	ApprovedAt   *time.Time `json:"approved_at"`                                                 // 审核时间
	TokenVersion uint64     `gorm:"not null;default:0" json:"-"`                                 // Token 版本
	LastLoginAt  *time.Time `json:"last_login_at"`                                               // 最后登录时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                                                  // 更新时间
}

// TableName 指定表名
func (Staff) TableName() string {
	return "staff"
}
