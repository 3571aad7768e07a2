package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/optical-member/internal/cache"
	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/queue"
	"github.com/optical-member/internal/repository"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

const staleIntentReason = "reconciler: intent not committed in time"

// SettleInput 核销提交输入
type SettleInput struct {
	CustomerID   uint
	DeductAmount int64
	PrizeIDs     []uint
	Remark       string
	StaffID      uint
	StaffName    string
	Reference    string
}

// SettleResult 核销结果
type SettleResult struct {
	Record   *models.VerifyRecord `json:"record"`
	Replayed bool                 `json:"replayed"`
}

// SettlementService 核销结算引擎
// 先写入预写意图，再在单个事务内扣款、核销奖品、写核销记录并提交意图
type SettlementService struct {
	settlementRepo repository.SettlementRepository
	customerRepo   repository.CustomerRepository
	lotteryRepo    repository.LotteryRepository
	queueClient    *queue.Client
	now            func() time.Time
}

// NewSettlementService 创建核销结算服务
func NewSettlementService(
	settlementRepo repository.SettlementRepository,
	customerRepo repository.CustomerRepository,
	lotteryRepo repository.LotteryRepository,
	queueClient *queue.Client,
) *SettlementService {
	return &SettlementService{
		settlementRepo: settlementRepo,
		customerRepo:   customerRepo,
		lotteryRepo:    lotteryRepo,
		queueClient:    queueClient,
		now:            time.Now,
	}
}

// Settle 执行核销；相同 reference 的重复提交返回首次结果
func (s *SettlementService) Settle(ctx context.Context, input SettleInput) (*SettleResult, error) {
	if input.CustomerID == 0 {
		return nil, ErrCustomerNotFound
	}
	if input.StaffID == 0 {
		return nil, ErrOperatorInvalid
	}
	if input.DeductAmount < 0 {
		return nil, ErrSettlementAmountInvalid
	}
	input.PrizeIDs = dedupeIDs(input.PrizeIDs)
	input.Remark = strings.TrimSpace(input.Remark)
	input.StaffName = strings.TrimSpace(input.StaffName)
	input.Reference = strings.TrimSpace(input.Reference)
	if input.Reference == "" {
		input.Reference = newSettlementReference()
	}

	intent, replay, err := s.beginIntent(input)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		logger.Infow("settlement_replayed", "reference", input.Reference, "verify_record_id", replay.ID)
		return &SettleResult{Record: replay, Replayed: true}, nil
	}

	record, err := s.apply(intent)
	if err != nil {
		if markErr := s.settlementRepo.MarkIntentFailed(intent.Reference, err.Error()); markErr != nil {
			logger.Errorw("settlement_intent_mark_failed_error",
				"reference", intent.Reference,
				"error", markErr,
			)
		}
		logger.Warnw("settlement_failed",
			"reference", intent.Reference,
			"customer_id", input.CustomerID,
			"staff_id", input.StaffID,
			"error", err,
		)
		return nil, err
	}

	logger.Infow("settlement_committed",
		"reference", record.Reference,
		"verify_record_id", record.ID,
		"customer_id", record.CustomerID,
		"staff_id", record.StaffID,
		"deduct_amount", record.DeductAmount,
		"prize_count", len(record.PrizeIDs),
	)
	s.afterCommit(ctx, record)
	return &SettleResult{Record: record}, nil
}

// beginIntent 写入预写意图（独立提交），并处理重复 reference
func (s *SettlementService) beginIntent(input SettleInput) (*models.SettlementIntent, *models.VerifyRecord, error) {
	intent := &models.SettlementIntent{
		Reference:    input.Reference,
		CustomerID:   input.CustomerID,
		StaffID:      input.StaffID,
		StaffName:    input.StaffName,
		DeductAmount: input.DeductAmount,
		PrizeIDs:     models.IDList(input.PrizeIDs),
		Remark:       input.Remark,
		Status:       constants.SettlementStatusPending,
	}

	existing, err := s.settlementRepo.GetIntentByReference(input.Reference)
	if err != nil {
		return nil, nil, err
	}
	if existing == nil {
		createErr := s.settlementRepo.CreateIntent(intent)
		if createErr == nil {
			return intent, nil, nil
		}
		// 并发写入同一 reference 时唯一索引冲突，回读已存在的意图
		existing, err = s.settlementRepo.GetIntentByReference(input.Reference)
		if err != nil {
			return nil, nil, err
		}
		if existing == nil {
			return nil, nil, createErr
		}
	}

	if !sameSettlement(existing, input) {
		return nil, nil, ErrSettlementReferenceConflict
	}

	switch existing.Status {
	case constants.SettlementStatusCommitted:
		record, err := s.committedRecord(existing)
		if err != nil {
			return nil, nil, err
		}
		return nil, record, nil
	case constants.SettlementStatusFailed:
		reopened, err := s.settlementRepo.ReopenFailedIntent(existing.Reference)
		if err != nil {
			return nil, nil, err
		}
		if !reopened {
			return nil, nil, ErrSettlementInProgress
		}
		existing.Status = constants.SettlementStatusPending
		existing.FailureReason = ""
		return existing, nil, nil
	default:
		return nil, nil, ErrSettlementInProgress
	}
}

// committedRecord 取已提交意图对应的核销记录，缺少关联时按编号回查
func (s *SettlementService) committedRecord(intent *models.SettlementIntent) (*models.VerifyRecord, error) {
	var (
		record *models.VerifyRecord
		err    error
	)
	if intent.VerifyRecordID != nil {
		record, err = s.settlementRepo.GetVerifyRecordByID(*intent.VerifyRecordID)
	} else {
		record, err = s.settlementRepo.GetVerifyRecordByReference(intent.Reference)
	}
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("verify record missing for committed intent %s", intent.Reference)
	}
	return record, nil
}

// apply 单事务内完成扣款、奖品核销、写核销记录与意图提交
func (s *SettlementService) apply(intent *models.SettlementIntent) (*models.VerifyRecord, error) {
	var record *models.VerifyRecord
	err := s.settlementRepo.Transaction(func(tx *gorm.DB) error {
		customerRepo := s.customerRepo.WithTx(tx)
		lotteryRepo := s.lotteryRepo.WithTx(tx)
		settlementRepo := s.settlementRepo.WithTx(tx)
		now := s.now()

		if intent.DeductAmount > 0 {
			ok, err := customerRepo.DeductBalance(intent.CustomerID, intent.DeductAmount)
			if err != nil {
				return err
			}
			customer, err := customerRepo.GetByID(intent.CustomerID)
			if err != nil {
				return err
			}
			if customer == nil {
				return ErrCustomerNotFound
			}
			if !ok {
				return ErrInsufficientBalance
			}
			consume := &models.ConsumeRecord{
				CustomerID:    intent.CustomerID,
				StaffID:       intent.StaffID,
				Amount:        intent.DeductAmount,
				BalanceBefore: customer.Balance + intent.DeductAmount,
				BalanceAfter:  customer.Balance,
				Remark:        intent.Remark,
				Reference:     intent.Reference,
				CreatedAt:     now,
			}
			if err := settlementRepo.CreateConsumeRecord(consume); err != nil {
				return err
			}
		} else {
			customer, err := customerRepo.GetByID(intent.CustomerID)
			if err != nil {
				return err
			}
			if customer == nil {
				return ErrCustomerNotFound
			}
		}

		for _, prizeID := range intent.PrizeIDs {
			prize, err := lotteryRepo.GetByIDForUpdate(prizeID)
			if err != nil {
				return err
			}
			if prize == nil || prize.CustomerID != intent.CustomerID {
				return fmt.Errorf("%w: %d", ErrPrizeNotFound, prizeID)
			}
			if prize.IsUsed {
				// 已使用的奖品保持原状，不视为错误
				continue
			}
			if !now.Before(prize.ExpireAt) {
				return fmt.Errorf("%w: %d", ErrPrizeExpired, prizeID)
			}
			if err := lotteryRepo.MarkUsed(prizeID, now); err != nil {
				return err
			}
		}

		record = &models.VerifyRecord{
			Reference:    intent.Reference,
			CustomerID:   intent.CustomerID,
			StaffID:      intent.StaffID,
			StaffName:    intent.StaffName,
			DeductAmount: intent.DeductAmount,
			PrizeIDs:     intent.PrizeIDs,
			Remark:       intent.Remark,
			CreatedAt:    now,
		}
		if record.PrizeIDs == nil {
			record.PrizeIDs = models.IDList{}
		}
		if err := settlementRepo.CreateVerifyRecord(record); err != nil {
			return err
		}

		intent.Status = constants.SettlementStatusCommitted
		intent.VerifyRecordID = &record.ID
		intent.CommittedAt = &now
		intent.FailureReason = ""
		return settlementRepo.UpdateIntent(intent)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SettlementService) afterCommit(ctx context.Context, record *models.VerifyRecord) {
	payload := queue.SettlementCommittedPayload{
		Reference:      record.Reference,
		VerifyRecordID: record.ID,
		CustomerID:     record.CustomerID,
		StaffID:        record.StaffID,
		DeductAmount:   record.DeductAmount,
		PrizeCount:     len(record.PrizeIDs),
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueSettlementCommitted(payload); err != nil {
			logger.Warnw("settlement_committed_enqueue_failed", "reference", record.Reference, "error", err)
		} else {
			return
		}
	}
	if err := s.HandleCommitted(ctx, payload); err != nil {
		logger.Warnw("settlement_committed_inline_failed", "reference", record.Reference, "error", err)
	}
}

// HandleCommitted 核销提交后处理：刷新店员统计缓存
func (s *SettlementService) HandleCommitted(ctx context.Context, payload queue.SettlementCommittedPayload) error {
	if payload.StaffID == 0 {
		return nil
	}
	return cache.DelStaffStats(ctx, payload.StaffID, staffStatsScopeToday, staffStatsScopeMonth)
}

// ReconcileStaleIntents 将超时未提交的意图标记为失败，失败意图可按原 reference 重试
func (s *SettlementService) ReconcileStaleIntents(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = 10 * time.Minute
	}
	before := s.now().Add(-olderThan)
	affected, err := s.settlementRepo.MarkStaleIntentsFailed(before, staleIntentReason)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		logger.Warnw("settlement_stale_intents_failed", "count", affected, "before", before)
	}
	return affected, nil
}

func sameSettlement(intent *models.SettlementIntent, input SettleInput) bool {
	if intent.CustomerID != input.CustomerID || intent.DeductAmount != input.DeductAmount {
		return false
	}
	if intent.StaffID != input.StaffID || intent.Remark != input.Remark {
		return false
	}
	if len(intent.PrizeIDs) != len(input.PrizeIDs) {
		return false
	}
	for _, id := range input.PrizeIDs {
		if !intent.PrizeIDs.Contains(id) {
			return false
		}
	}
	return true
}

func dedupeIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{}
	}
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func newSettlementReference() string {
	return constants.SettlementReferencePrefix + ulid.Make().String()
}
