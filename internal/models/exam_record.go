package models

import (
	"time"
)

// EyeMeasurement 单眼验光数据
type EyeMeasurement struct {
	Sphere   string `gorm:"type:varchar(16);default:''" json:"sphere"`   // 球镜
	Cylinder string `gorm:"type:varchar(16);default:''" json:"cylinder"` // 柱镜
	Axis     int    `gorm:"not null;default:0" json:"axis"`              // 轴位
	VA       string `gorm:"type:varchar(16);default:''" json:"va"`       // 矫正视力
}

// ExamRecord 验光记录
type ExamRecord struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	CustomerID    uint           `gorm:"index;not null" json:"customer_id"`
	RightEye      EyeMeasurement `gorm:"embedded;embeddedPrefix:right_" json:"right_eye"`
	LeftEye       EyeMeasurement `gorm:"embedded;embeddedPrefix:left_" json:"left_eye"`
	PD            string         `gorm:"type:varchar(16);default:''" json:"pd"`
	Add           string         `gorm:"column:add_power;type:varchar(16);default:''" json:"add"`
	Note          string         `gorm:"type:varchar(500);default:''" json:"note"`
	Optometrist   string         `gorm:"type:varchar(64);default:''" json:"optometrist"`
	OptometristID uint           `gorm:"index;not null" json:"optometrist_id"`
	ExamDate      time.Time      `gorm:"index;not null" json:"exam_date"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TableName 指定表名
func (ExamRecord) TableName() string {
	return "exam_records"
}

// SelfTestRecord 视力自测记录
type SelfTestRecord struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CustomerID  uint      `gorm:"index;not null" json:"customer_id"`
	Eye         string    `gorm:"type:varchar(8);not null" json:"eye"`
	VisionLevel string    `gorm:"type:varchar(16);not null" json:"vision_level"`
	CorrectRate float64   `gorm:"not null;default:0" json:"correct_rate"`
	TestTime    int       `gorm:"not null;default:0" json:"test_time"`
	TestDate    time.Time `gorm:"index;not null" json:"test_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (SelfTestRecord) TableName() string {
	return "self_test_records"
}
