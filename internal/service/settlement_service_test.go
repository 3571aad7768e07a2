package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, env *serviceTestEnv, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(model).Count(&count).Error)
	return count
}

func TestSettleDeductsBalanceAndUsesPrize(t *testing.T) {
	env := setupServiceTest(t, "settle_basic")
	customer := env.createCustomer(t, "openid-settle", 10000)
	prize := env.createPrize(t, customer, "免费清洗", time.Now().Add(72*time.Hour), "2026-02-01")
	svc := env.settlementService()

	result, err := svc.Settle(context.Background(), SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 500,
		PrizeIDs:     []uint{prize.ID, prize.ID},
		Remark:       "  镜片清洗  ",
		StaffID:      7,
		StaffName:    "王店员",
		Reference:    "ref-basic",
	})
	require.NoError(t, err)
	require.False(t, result.Replayed)
	record := result.Record
	assert.Equal(t, "ref-basic", record.Reference)
	assert.Equal(t, int64(500), record.DeductAmount)
	assert.Equal(t, models.IDList{prize.ID}, record.PrizeIDs)
	assert.Equal(t, "镜片清洗", record.Remark)

	assert.Equal(t, int64(9500), env.reloadCustomer(t, customer.ID).Balance)
	reloaded := env.reloadPrize(t, prize.ID)
	assert.True(t, reloaded.IsUsed)
	require.NotNil(t, reloaded.UsedAt)

	var consume models.ConsumeRecord
	require.NoError(t, env.db.Where("reference = ?", "ref-basic").First(&consume).Error)
	assert.Equal(t, int64(10000), consume.BalanceBefore)
	assert.Equal(t, int64(9500), consume.BalanceAfter)
	assert.Equal(t, uint(7), consume.StaffID)

	intent, err := env.settlementRepo.GetIntentByReference("ref-basic")
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, constants.SettlementStatusCommitted, intent.Status)
	require.NotNil(t, intent.VerifyRecordID)
	assert.Equal(t, record.ID, *intent.VerifyRecordID)
}

func TestSettleZeroAmountWritesAuditRecord(t *testing.T) {
	env := setupServiceTest(t, "settle_zero")
	customer := env.createCustomer(t, "openid-zero", 300)
	svc := env.settlementService()

	result, err := svc.Settle(context.Background(), SettleInput{
		CustomerID: customer.ID,
		StaffID:    3,
		StaffName:  "李店员",
		Remark:     "到店登记",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Record.Reference)
	assert.Equal(t, int64(0), result.Record.DeductAmount)
	assert.Empty(t, result.Record.PrizeIDs)

	assert.Equal(t, int64(300), env.reloadCustomer(t, customer.ID).Balance)
	assert.Equal(t, int64(1), countRows(t, env, &models.VerifyRecord{}))
	assert.Equal(t, int64(0), countRows(t, env, &models.ConsumeRecord{}))
}

func TestSettleAlreadyUsedPrizeStaysPinned(t *testing.T) {
	env := setupServiceTest(t, "settle_used_prize")
	customer := env.createCustomer(t, "openid-used", 1000)
	prize := env.createPrize(t, customer, "眼镜布", time.Now().Add(72*time.Hour), "2026-02-02")
	usedAt := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	require.NoError(t, env.lotteryRepo.MarkUsed(prize.ID, usedAt))

	svc := env.settlementService()
	svc.now = fixedClock(time.Now().Add(time.Hour))
	result, err := svc.Settle(context.Background(), SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 100,
		PrizeIDs:     []uint{prize.ID},
		StaffID:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.IDList{prize.ID}, result.Record.PrizeIDs)

	reloaded := env.reloadPrize(t, prize.ID)
	assert.True(t, reloaded.IsUsed)
	require.NotNil(t, reloaded.UsedAt)
	assert.WithinDuration(t, usedAt, *reloaded.UsedAt, time.Second)
	assert.Equal(t, int64(900), env.reloadCustomer(t, customer.ID).Balance)
}

func TestSettleExpiredPrizeRollsBack(t *testing.T) {
	env := setupServiceTest(t, "settle_expired_prize")
	customer := env.createCustomer(t, "openid-expired-prize", 1000)
	valid := env.createPrize(t, customer, "免费清洗", time.Now().Add(72*time.Hour), "2026-02-03")
	expired := env.createPrize(t, customer, "眼镜盒", time.Now().Add(-time.Minute), "2026-02-04")
	svc := env.settlementService()

	_, err := svc.Settle(context.Background(), SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 500,
		PrizeIDs:     []uint{valid.ID, expired.ID},
		StaffID:      1,
		Reference:    "ref-expired",
	})
	require.ErrorIs(t, err, ErrPrizeExpired)

	assert.Equal(t, int64(1000), env.reloadCustomer(t, customer.ID).Balance)
	assert.False(t, env.reloadPrize(t, valid.ID).IsUsed)
	assert.Equal(t, int64(0), countRows(t, env, &models.ConsumeRecord{}))
	assert.Equal(t, int64(0), countRows(t, env, &models.VerifyRecord{}))

	intent, err := env.settlementRepo.GetIntentByReference("ref-expired")
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, constants.SettlementStatusFailed, intent.Status)
	assert.Contains(t, intent.FailureReason, "prize expired")
}

func TestSettleRejectsForeignPrize(t *testing.T) {
	env := setupServiceTest(t, "settle_foreign_prize")
	owner := env.createCustomer(t, "openid-owner", 0)
	other := env.createCustomer(t, "openid-other", 1000)
	prize := env.createPrize(t, owner, "免费清洗", time.Now().Add(time.Hour), "2026-02-05")

	_, err := env.settlementService().Settle(context.Background(), SettleInput{
		CustomerID: other.ID,
		PrizeIDs:   []uint{prize.ID},
		StaffID:    1,
	})
	assert.ErrorIs(t, err, ErrPrizeNotFound)
	assert.False(t, env.reloadPrize(t, prize.ID).IsUsed)
}

func TestSettleInsufficientBalance(t *testing.T) {
	env := setupServiceTest(t, "settle_insufficient")
	customer := env.createCustomer(t, "openid-poor", 100)

	_, err := env.settlementService().Settle(context.Background(), SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 500,
		StaffID:      1,
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int64(100), env.reloadCustomer(t, customer.ID).Balance)
	assert.Equal(t, int64(0), countRows(t, env, &models.VerifyRecord{}))
}

func TestSettleInputValidation(t *testing.T) {
	env := setupServiceTest(t, "settle_validation")
	customer := env.createCustomer(t, "openid-validation", 100)
	svc := env.settlementService()

	cases := []struct {
		name  string
		input SettleInput
		want  error
	}{
		{name: "missing customer", input: SettleInput{StaffID: 1}, want: ErrCustomerNotFound},
		{name: "missing operator", input: SettleInput{CustomerID: customer.ID}, want: ErrOperatorInvalid},
		{name: "negative amount", input: SettleInput{CustomerID: customer.ID, StaffID: 1, DeductAmount: -1}, want: ErrSettlementAmountInvalid},
		{name: "unknown customer", input: SettleInput{CustomerID: 999, StaffID: 1}, want: ErrCustomerNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Settle(context.Background(), tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSettleReferenceReplayAndConflict(t *testing.T) {
	env := setupServiceTest(t, "settle_replay")
	customer := env.createCustomer(t, "openid-replay", 1000)
	svc := env.settlementService()
	input := SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 200,
		StaffID:      5,
		Reference:    "ref-replay",
	}

	first, err := svc.Settle(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Settle(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Record.ID, second.Record.ID)
	assert.Equal(t, int64(800), env.reloadCustomer(t, customer.ID).Balance)

	conflicting := input
	conflicting.DeductAmount = 300
	_, err = svc.Settle(context.Background(), conflicting)
	assert.ErrorIs(t, err, ErrSettlementReferenceConflict)

	// 其他店员复用同一编号不能拿走原记录
	otherStaff := input
	otherStaff.StaffID = 6
	otherStaff.Remark = "different"
	_, err = svc.Settle(context.Background(), otherStaff)
	assert.ErrorIs(t, err, ErrSettlementReferenceConflict)

	otherRemark := input
	otherRemark.Remark = "另一笔"
	_, err = svc.Settle(context.Background(), otherRemark)
	assert.ErrorIs(t, err, ErrSettlementReferenceConflict)

	// 备注首尾空白不影响重放判断
	padded := input
	padded.Remark = "  "
	replayed, err := svc.Settle(context.Background(), padded)
	require.NoError(t, err)
	assert.True(t, replayed.Replayed)
	assert.Equal(t, int64(800), env.reloadCustomer(t, customer.ID).Balance)
}

func TestSettleReplaysCommittedIntentWithoutRecordLink(t *testing.T) {
	env := setupServiceTest(t, "settle_replay_unlinked")
	customer := env.createCustomer(t, "openid-unlinked", 1000)
	record := &models.VerifyRecord{
		Reference:    "ref-unlinked",
		CustomerID:   customer.ID,
		StaffID:      3,
		DeductAmount: 150,
		PrizeIDs:     models.IDList{},
	}
	require.NoError(t, env.db.Create(record).Error)
	committedAt := time.Now()
	require.NoError(t, env.settlementRepo.CreateIntent(&models.SettlementIntent{
		Reference:    "ref-unlinked",
		CustomerID:   customer.ID,
		StaffID:      3,
		DeductAmount: 150,
		PrizeIDs:     models.IDList{},
		Status:       constants.SettlementStatusCommitted,
		CommittedAt:  &committedAt,
	}))

	result, err := env.settlementService().Settle(context.Background(), SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 150,
		StaffID:      3,
		Reference:    "ref-unlinked",
	})
	require.NoError(t, err)
	assert.True(t, result.Replayed)
	assert.Equal(t, record.ID, result.Record.ID)
	assert.Equal(t, int64(1000), env.reloadCustomer(t, customer.ID).Balance)

	// 记录缺失时报错而不是重新扣款
	require.NoError(t, env.settlementRepo.CreateIntent(&models.SettlementIntent{
		Reference:    "ref-orphan",
		CustomerID:   customer.ID,
		StaffID:      3,
		DeductAmount: 150,
		PrizeIDs:     models.IDList{},
		Status:       constants.SettlementStatusCommitted,
		CommittedAt:  &committedAt,
	}))
	_, err = env.settlementService().Settle(context.Background(), SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 150,
		StaffID:      3,
		Reference:    "ref-orphan",
	})
	require.Error(t, err)
	assert.Equal(t, int64(1000), env.reloadCustomer(t, customer.ID).Balance)
}

func TestSettlePendingReferenceInProgress(t *testing.T) {
	env := setupServiceTest(t, "settle_in_progress")
	customer := env.createCustomer(t, "openid-progress", 1000)
	require.NoError(t, env.settlementRepo.CreateIntent(&models.SettlementIntent{
		Reference:    "ref-pending",
		CustomerID:   customer.ID,
		StaffID:      1,
		DeductAmount: 100,
		PrizeIDs:     models.IDList{},
		Status:       constants.SettlementStatusPending,
	}))

	_, err := env.settlementService().Settle(context.Background(), SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 100,
		StaffID:      1,
		Reference:    "ref-pending",
	})
	assert.ErrorIs(t, err, ErrSettlementInProgress)
}

func TestSettleRetryAfterFailureReopensIntent(t *testing.T) {
	env := setupServiceTest(t, "settle_retry")
	customer := env.createCustomer(t, "openid-retry", 100)
	svc := env.settlementService()
	input := SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 500,
		StaffID:      2,
		Reference:    "ref-retry",
	}

	_, err := svc.Settle(context.Background(), input)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, env.customerRepo.AddBalance(customer.ID, 900))
	result, err := svc.Settle(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, int64(500), env.reloadCustomer(t, customer.ID).Balance)

	intent, err := env.settlementRepo.GetIntentByReference("ref-retry")
	require.NoError(t, err)
	assert.Equal(t, constants.SettlementStatusCommitted, intent.Status)
	assert.Empty(t, intent.FailureReason)
}

func TestReconcileStaleIntents(t *testing.T) {
	env := setupServiceTest(t, "settle_reconcile")
	customer := env.createCustomer(t, "openid-reconcile", 1000)
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, env.db.Create(&models.SettlementIntent{
		Reference:    "ref-stale",
		CustomerID:   customer.ID,
		StaffID:      4,
		DeductAmount: 300,
		PrizeIDs:     models.IDList{},
		Status:       constants.SettlementStatusPending,
		CreatedAt:    stale,
		UpdatedAt:    stale,
	}).Error)
	require.NoError(t, env.db.Create(&models.SettlementIntent{
		Reference:  "ref-fresh",
		CustomerID: customer.ID,
		StaffID:    4,
		PrizeIDs:   models.IDList{},
		Status:     constants.SettlementStatusPending,
	}).Error)

	svc := env.settlementService()
	affected, err := svc.ReconcileStaleIntents(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	intent, err := env.settlementRepo.GetIntentByReference("ref-stale")
	require.NoError(t, err)
	assert.Equal(t, constants.SettlementStatusFailed, intent.Status)
	assert.Equal(t, staleIntentReason, intent.FailureReason)

	fresh, err := env.settlementRepo.GetIntentByReference("ref-fresh")
	require.NoError(t, err)
	assert.Equal(t, constants.SettlementStatusPending, fresh.Status)

	// 收敛为失败后可按原 reference 重试
	result, err := svc.Settle(context.Background(), SettleInput{
		CustomerID:   customer.ID,
		DeductAmount: 300,
		StaffID:      4,
		Reference:    "ref-stale",
	})
	require.NoError(t, err)
	assert.Equal(t, "ref-stale", result.Record.Reference)
	assert.Equal(t, int64(700), env.reloadCustomer(t, customer.ID).Balance)
}

func TestSettleConcurrentDeductionsNeverOverdraw(t *testing.T) {
	env := setupServiceTest(t, "settle_concurrent")
	customer := env.createCustomer(t, "openid-concurrent", 1000)
	svc := env.settlementService()

	const workers = 5
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
		unexpected   []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Settle(context.Background(), SettleInput{
				CustomerID:   customer.ID,
				DeductAmount: 300,
				StaffID:      uint(i + 1),
				Reference:    fmt.Sprintf("ref-concurrent-%d", i),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientBalance):
				insufficient++
			default:
				unexpected = append(unexpected, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, unexpected)
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 2, insufficient)
	assert.Equal(t, int64(100), env.reloadCustomer(t, customer.ID).Balance)
	assert.Equal(t, int64(3), countRows(t, env, &models.VerifyRecord{}))
	assert.Equal(t, int64(3), countRows(t, env, &models.ConsumeRecord{}))
}

func TestSettlementListFilters(t *testing.T) {
	env := setupServiceTest(t, "settle_list")
	customer := env.createCustomer(t, "openid-list", 1000)
	svc := env.settlementService()
	for i := 0; i < 3; i++ {
		_, err := svc.Settle(context.Background(), SettleInput{
			CustomerID:   customer.ID,
			DeductAmount: 100,
			StaffID:      uint(1 + i%2),
			Reference:    fmt.Sprintf("ref-list-%d", i),
		})
		require.NoError(t, err)
	}

	admin := newAdminServiceForTest(env, nil)
	records, total, err := admin.VerifyRecords(repository.VerifyRecordListFilter{Page: 1, PageSize: 20, StaffID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, records, 2)

	intents, total, err := admin.SettlementIntents(repository.SettlementIntentListFilter{Page: 1, PageSize: 20, Status: constants.SettlementStatusCommitted})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, intents, 3)
}
