package worker

import (
	"context"
	"encoding/json"

	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/provider"
	"github.com/optical-member/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSettlementCommitted, c.handleSettlementCommitted)
	mux.HandleFunc(queue.TaskRedemptionPurge, c.handleMaintenance)
	mux.HandleFunc(queue.TaskSettlementReconcile, c.handleMaintenance)
}

func (c *Consumer) handleSettlementCommitted(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_committed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementCommittedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_committed_unmarshal_failed", "error", err)
		return err
	}
	if payload.VerifyRecordID == 0 {
		logger.Debugw("worker_settlement_committed_skip_invalid_payload", "reference", payload.Reference)
		return nil
	}
	if c.SettlementService == nil {
		logger.Warnw("worker_settlement_committed_skip_service_nil", "reference", payload.Reference)
		return nil
	}
	if err := c.SettlementService.HandleCommitted(ctx, payload); err != nil {
		logger.Warnw("worker_settlement_committed_failed",
			"reference", payload.Reference,
			"verify_record_id", payload.VerifyRecordID,
			"staff_id", payload.StaffID,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_settlement_committed_done",
		"reference", payload.Reference,
		"verify_record_id", payload.VerifyRecordID,
		"customer_id", payload.CustomerID,
		"deduct_amount", payload.DeductAmount,
		"prize_count", payload.PrizeCount,
	)
	return nil
}

func (c *Consumer) handleMaintenance(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	return c.RunMaintenance(ctx, task.Type())
}

// RunMaintenance 执行维护任务，队列关闭时由调度器直接调用
func (c *Consumer) RunMaintenance(ctx context.Context, taskType string) error {
	if c == nil || c.Container == nil {
		return nil
	}
	switch taskType {
	case queue.TaskRedemptionPurge:
		if c.RedemptionService == nil {
			return nil
		}
		deleted, err := c.RedemptionService.PurgeExpiredTokens(ctx)
		if err != nil {
			logger.Warnw("worker_redemption_purge_failed", "error", err)
			return err
		}
		logger.Debugw("worker_redemption_purge_done", "deleted", deleted)
	case queue.TaskSettlementReconcile:
		if c.SettlementService == nil {
			return nil
		}
		olderThan := c.Config.Redemption.StaleIntent()
		affected, err := c.SettlementService.ReconcileStaleIntents(ctx, olderThan)
		if err != nil {
			logger.Warnw("worker_settlement_reconcile_failed", "error", err)
			return err
		}
		logger.Debugw("worker_settlement_reconcile_done", "affected", affected)
	default:
		logger.Warnw("worker_maintenance_unknown_task", "task_type", taskType)
	}
	return nil
}
