package repository

import "time"

// CustomerListFilter 查询会员列表的过滤条件
type CustomerListFilter struct {
	Page     int
	PageSize int
	Keyword  string
}

// SettlementIntentListFilter 查询核销意图的过滤条件
type SettlementIntentListFilter struct {
	Page        int
	PageSize    int
	Status      string
	CustomerID  uint
	StaffID     uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// VerifyRecordListFilter 查询核销记录的过滤条件
type VerifyRecordListFilter struct {
	Page        int
	PageSize    int
	CustomerID  uint
	StaffID     uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// StaffAuditLogListFilter 查询店员审计日志的过滤条件
type StaffAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorStaffID uint
	TargetStaffID   uint
	Action          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
