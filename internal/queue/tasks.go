package queue

import (
	"encoding/json"

	"github.com/optical-member/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSettlementCommitted 核销提交后处理任务
	TaskSettlementCommitted = constants.TaskSettlementCommitted
	// TaskRedemptionPurge 过期核销码清理任务
	TaskRedemptionPurge = constants.TaskRedemptionPurge
	// TaskSettlementReconcile 悬挂核销意图对账任务
	TaskSettlementReconcile = constants.TaskSettlementReconcile
)

// SettlementCommittedPayload 核销提交任务载荷
type SettlementCommittedPayload struct {
	Reference      string `json:"reference"`
	VerifyRecordID uint   `json:"verify_record_id"`
	CustomerID     uint   `json:"customer_id"`
	StaffID        uint   `json:"staff_id"`
	DeductAmount   int64  `json:"deduct_amount"`
	PrizeCount     int    `json:"prize_count"`
}

// MaintenancePayload 维护任务载荷
type MaintenancePayload struct {
	TriggeredAt int64 `json:"triggered_at"`
}

// NewSettlementCommittedTask 创建核销提交任务
func NewSettlementCommittedTask(payload SettlementCommittedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementCommitted, body), nil
}

// NewMaintenanceTask 创建维护任务（清理/对账）
func NewMaintenanceTask(taskType string, payload MaintenancePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}
