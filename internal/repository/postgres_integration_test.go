//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.SettlementIntent{},
		&models.VerifyRecord{},
		&models.ConsumeRecord{},
		&models.LotteryRecord{},
		&models.Customer{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(cleanupModels...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresConcurrentDeductBalance(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	customer := &models.Customer{
		Identity:    "pg-openid",
		MemberCode:  "MPG0001",
		Balance:     1000,
		MemberLevel: constants.MemberLevelNormal,
		Role:        constants.RoleCustomer,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}

	repo := NewCustomerRepository(db)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.DeductBalance(customer.ID, 300)
			if err != nil {
				t.Errorf("deduct failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 3 {
		t.Fatalf("successful deductions want 3 got %d", success)
	}
	reloaded, err := repo.GetByID(customer.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload customer failed: %v", err)
	}
	if reloaded.Balance != 100 {
		t.Fatalf("balance want 100 got %d", reloaded.Balance)
	}
}

func TestPostgresCustomerKeywordIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	customer := &models.Customer{
		Identity:    "pg-openid-kw",
		MemberCode:  "MPGKEY01",
		NickName:    "Alice",
		MemberLevel: constants.MemberLevelNormal,
		Role:        constants.RoleCustomer,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}

	rows, total, err := NewCustomerRepository(db).List(CustomerListFilter{Page: 1, PageSize: 10, Keyword: "alice"})
	if err != nil {
		t.Fatalf("list customers failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != customer.ID {
		t.Fatalf("keyword search want customer %d, got total=%d", customer.ID, total)
	}
}

func TestPostgresMarkStaleIntentsFailed(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	stale := time.Now().Add(-time.Hour)
	intent := &models.SettlementIntent{
		Reference:  "pg-stale",
		CustomerID: 1,
		StaffID:    1,
		PrizeIDs:   models.IDList{},
		Status:     constants.SettlementStatusPending,
		CreatedAt:  stale,
		UpdatedAt:  stale,
	}
	if err := db.Create(intent).Error; err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	repo := NewSettlementRepository(db)
	affected, err := repo.MarkStaleIntentsFailed(time.Now().Add(-10*time.Minute), "stale")
	if err != nil {
		t.Fatalf("mark stale failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected want 1 got %d", affected)
	}
	reopened, err := repo.ReopenFailedIntent("pg-stale")
	if err != nil || !reopened {
		t.Fatalf("reopen failed: reopened=%v err=%v", reopened, err)
	}
}
