package models

import (
	"time"
)

// RechargeRecord 充值记录
type RechargeRecord struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                   // 主键
	RecordNo       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"record_no"` // 记录编号
	CustomerID     uint      `gorm:"index;not null" json:"customer_id"`                      // 会员ID
	StaffID        uint      `gorm:"index;not null;default:0" json:"staff_id"`               // 店员ID（线上充值为0）
	StaffName      string    `gorm:"type:varchar(64);default:''" json:"staff_name"`          // 店员姓名
	RechargeAmount int64     `gorm:"not null" json:"recharge_amount"`                        // 实充金额（分）
	GiftAmount     int64     `gorm:"not null;default:0" json:"gift_amount"`                  // 赠送金额（分）
	TotalAmount    int64     `gorm:"not null" json:"total_amount"`                           // 到账金额（分）
	PaymentMethod  string    `gorm:"type:varchar(32);not null" json:"payment_method"`        // 支付方式
	OrderNo        string    `gorm:"type:varchar(64);index;default:''" json:"order_no"`      // 在线订单号
	TransactionID  string    `gorm:"type:varchar(128);default:''" json:"transaction_id"`     // 渠道流水号
	Remark         string    `gorm:"type:varchar(255);default:''" json:"remark"`             // 备注
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                // 创建时间
}

// TableName 指定表名
func (RechargeRecord) TableName() string {
	return "recharge_records"
}

// RechargeOrder 在线充值订单
type RechargeOrder struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	OrderNo       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	CustomerID    uint       `gorm:"index;not null" json:"customer_id"`
	Amount        int64      `gorm:"not null" json:"amount"`
	GiftAmount    int64      `gorm:"not null;default:0" json:"gift_amount"`
	TotalAmount   int64      `gorm:"not null" json:"total_amount"`
	Status        string     `gorm:"type:varchar(16);index;not null" json:"status"`
	TransactionID string     `gorm:"type:varchar(128);default:''" json:"transaction_id"`
	PaidAt        *time.Time `json:"paid_at"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (RechargeOrder) TableName() string {
	return "recharge_orders"
}
