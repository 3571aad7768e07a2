package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var serviceTestSeq atomic.Int64

type serviceTestEnv struct {
	db             *gorm.DB
	cfg            *config.Config
	customerRepo   *repository.GormCustomerRepository
	staffRepo      *repository.GormStaffRepository
	tokenRepo      *repository.GormRedemptionTokenRepository
	lotteryRepo    *repository.GormLotteryRepository
	settlementRepo *repository.GormSettlementRepository
	rechargeRepo   *repository.GormRechargeRepository
	examRepo       *repository.GormExamRepository
	statsRepo      *repository.GormStatsRepository
	auditRepo      *repository.GormStaffAuditLogRepository
}

func setupServiceTest(t *testing.T, name string) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%s_%d_%d?mode=memory&cache=shared", name, time.Now().UnixNano(), serviceTestSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 内存库单连接，事务串行
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		JWT:         config.JWTConfig{SecretKey: "staff-test-secret-0123456789", ExpireHours: 12},
		CustomerJWT: config.JWTConfig{SecretKey: "customer-test-secret-0123456789", ExpireHours: 24},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireLetter: true, RequireNumber: true},
		},
		Redemption: config.RedemptionConfig{TokenTTLSeconds: 300, TokenRetentionHours: 24},
		Lottery:    config.LotteryConfig{PrizeExpireDays: 3, PointsReward: 10},
		Payment:    config.PaymentConfig{CallbackSecret: "callback-secret"},
	}

	return &serviceTestEnv{
		db:             db,
		cfg:            cfg,
		customerRepo:   repository.NewCustomerRepository(db),
		staffRepo:      repository.NewStaffRepository(db),
		tokenRepo:      repository.NewRedemptionTokenRepository(db),
		lotteryRepo:    repository.NewLotteryRepository(db),
		settlementRepo: repository.NewSettlementRepository(db),
		rechargeRepo:   repository.NewRechargeRepository(db),
		examRepo:       repository.NewExamRepository(db),
		statsRepo:      repository.NewStatsRepository(db),
		auditRepo:      repository.NewStaffAuditLogRepository(db),
	}
}

func (e *serviceTestEnv) createCustomer(t *testing.T, identity string, balance int64) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		Identity:    identity,
		MemberCode:  "M" + identity,
		NickName:    "会员" + identity,
		Balance:     balance,
		MemberLevel: constants.MemberLevelNormal,
		Role:        constants.RoleCustomer,
	}
	if err := e.db.Create(customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	return customer
}

func (e *serviceTestEnv) createPrize(t *testing.T, customer *models.Customer, name string, expireAt time.Time, drawDate string) *models.LotteryRecord {
	t.Helper()
	prize := &models.LotteryRecord{
		CustomerID: customer.ID,
		Identity:   customer.Identity,
		PrizeKind:  constants.LotteryPrizeCleaning,
		Name:       name,
		ExpireAt:   expireAt,
		DrawDate:   drawDate,
		CreatedAt:  time.Now(),
	}
	if err := e.db.Create(prize).Error; err != nil {
		t.Fatalf("create prize failed: %v", err)
	}
	return prize
}

func (e *serviceTestEnv) createStaff(t *testing.T, phone, role string, approved bool) *models.Staff {
	t.Helper()
	staff := &models.Staff{
		Name:         "店员" + phone[len(phone)-4:],
		Phone:        phone,
		PasswordHash: "hash",
		Role:         role,
		IsApproved:   approved,
	}
	if err := e.db.Create(staff).Error; err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	return staff
}

func (e *serviceTestEnv) reloadCustomer(t *testing.T, id uint) *models.Customer {
	t.Helper()
	var customer models.Customer
	if err := e.db.First(&customer, id).Error; err != nil {
		t.Fatalf("reload customer failed: %v", err)
	}
	return &customer
}

func (e *serviceTestEnv) reloadPrize(t *testing.T, id uint) *models.LotteryRecord {
	t.Helper()
	var prize models.LotteryRecord
	if err := e.db.First(&prize, id).Error; err != nil {
		t.Fatalf("reload prize failed: %v", err)
	}
	return &prize
}

func (e *serviceTestEnv) settlementService() *SettlementService {
	return NewSettlementService(e.settlementRepo, e.customerRepo, e.lotteryRepo, nil)
}

func (e *serviceTestEnv) redemptionService() *RedemptionService {
	return NewRedemptionService(e.cfg.Redemption, e.tokenRepo, e.customerRepo, e.lotteryRepo)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
