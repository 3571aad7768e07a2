package models

import (
	"time"
)

// SettlementIntent 核销预写记录
type SettlementIntent struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                            // 主键
	Reference      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`          // 幂等编号
	CustomerID     uint       `gorm:"index;not null" json:"customer_id"`                               // 会员ID
	StaffID        uint       `gorm:"index;not null" json:"staff_id"`                                  // 店员ID
	StaffName      string     `gorm:"type:varchar(64);default:''" json:"staff_name"`                   // 店员姓名
	DeductAmount   int64      `gorm:"not null;default:0" json:"deduct_amount"`                         // 扣款金额（分）
	PrizeIDs       IDList     `gorm:"type:text" json:"prize_ids"`                                      // 奖品ID
	Remark         string     `gorm:"type:varchar(255);default:''" json:"remark"`                      // 备注
	Status         string     `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"` // 状态
	FailureReason  string     `gorm:"type:varchar(255);default:''" json:"failure_reason"`              // 失败原因
	VerifyRecordID *uint      `gorm:"index" json:"verify_record_id"`                                   // 核销记录ID
	CommittedAt    *time.Time `json:"committed_at"`                                                    // 提交时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                                      // 更新时间
}

// TableName 指定表名
func (SettlementIntent) TableName() string {
	return "settlement_intents"
}

// VerifyRecord 核销记录，只追加不修改
type VerifyRecord struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                   // 主键
	Reference    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"` // 幂等编号
	CustomerID   uint      `gorm:"index;not null" json:"customer_id"`                      // 会员ID
	StaffID      uint      `gorm:"index;not null" json:"staff_id"`                         // 店员ID
	StaffName    string    `gorm:"type:varchar(64);default:''" json:"staff_name"`          // 店员姓名
	DeductAmount int64     `gorm:"not null;default:0" json:"deduct_amount"`                // 扣款金额（分）
	PrizeIDs     IDList    `gorm:"type:text" json:"prize_ids"`                             // 奖品ID
	Remark       string    `gorm:"type:varchar(255);default:''" json:"remark"`             // 备注
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                                // 创建时间
}

// TableName 指定表名
func (VerifyRecord) TableName() string {
	return "verify_records"
}

// ConsumeRecord 余额消费记录
type ConsumeRecord struct {
	ID            uint      `gorm:"primarykey" json:"id"`                             // 主键
	CustomerID    uint      `gorm:"index;not null" json:"customer_id"`                // 会员ID
	StaffID       uint      `gorm:"index;not null" json:"staff_id"`                   // 店员ID
	Amount        int64     `gorm:"not null" json:"amount"`                           // 消费金额（分）
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`                   // 变动前余额
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`                    // 变动后余额
	Remark        string    `gorm:"type:varchar(255);default:''" json:"remark"`       // 备注
	Reference     string    `gorm:"type:varchar(64);index;not null" json:"reference"` // 核销编号
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                          // 创建时间
}

// TableName 指定表名
func (ConsumeRecord) TableName() string {
	return "consume_records"
}
