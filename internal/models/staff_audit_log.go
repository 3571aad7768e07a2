package models

import "time"

// StaffAuditLog 店员审核与授权审计日志
// 说明：记录管理员对店员的审核、拒绝与角色调整操作。
type StaffAuditLog struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	OperatorStaffID uint      `gorm:"index;not null" json:"operator_staff_id"`
	OperatorName    string    `gorm:"type:varchar(64);not null;default:''" json:"operator_name"`
	TargetStaffID   uint      `gorm:"index;not null" json:"target_staff_id"`
	TargetPhone     string    `gorm:"type:varchar(32);index;not null;default:''" json:"target_phone"`
	Action          string    `gorm:"type:varchar(32);index;not null" json:"action"`
	Roles           string    `gorm:"type:varchar(255);not null;default:''" json:"roles"`
	RequestID       string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (StaffAuditLog) TableName() string {
	return "staff_audit_logs"
}
