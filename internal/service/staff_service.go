package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/optical-member/internal/cache"
	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"
)

const (
	staffStatsScopeToday = "today"
	staffStatsScopeMonth = "month"
)

// CustomerDetail 会员详情（含验光记录）
type CustomerDetail struct {
	Customer    *models.Customer    `json:"customer"`
	ExamRecords []models.ExamRecord `json:"exam_records"`
}

// FollowUpCustomer 待回访会员
type FollowUpCustomer struct {
	Customer     models.Customer `json:"customer"`
	LastExamDate time.Time       `json:"last_exam_date"`
}

// StaffTodayStats 店员当日统计
type StaffTodayStats struct {
	ExamCount      int64  `json:"exam_count"`
	VerifyCount    int64  `json:"verify_count"`
	RechargeAmount int64  `json:"recharge_amount"`
	ConsumeAmount  int64  `json:"consume_amount"`
	RechargeYuan   string `json:"recharge_yuan"`
	ConsumeYuan    string `json:"consume_yuan"`
}

// StaffMonthlyStats 店员当月统计
type StaffMonthlyStats struct {
	TotalRevenue  int64  `json:"total_revenue"`
	TotalRecharge int64  `json:"total_recharge"`
	ExamCount     int64  `json:"exam_count"`
	CustomerCount int64  `json:"customer_count"`
	RevenueYuan   string `json:"revenue_yuan"`
	RechargeYuan  string `json:"recharge_yuan"`
}

// StaffService 店员工作台服务
type StaffService struct {
	cfg            config.RedemptionConfig
	customerRepo   repository.CustomerRepository
	examRepo       repository.ExamRepository
	settlementRepo repository.SettlementRepository
	statsRepo      repository.StatsRepository
	now            func() time.Time
}

// NewStaffService 创建店员工作台服务
func NewStaffService(
	cfg config.RedemptionConfig,
	customerRepo repository.CustomerRepository,
	examRepo repository.ExamRepository,
	settlementRepo repository.SettlementRepository,
	statsRepo repository.StatsRepository,
) *StaffService {
	return &StaffService{
		cfg:            cfg,
		customerRepo:   customerRepo,
		examRepo:       examRepo,
		settlementRepo: settlementRepo,
		statsRepo:      statsRepo,
		now:            time.Now,
	}
}

// SearchCustomer 按手机号查找会员，未找到时 Customer 为 nil
func (s *StaffService) SearchCustomer(phone string) (*CustomerDetail, error) {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return nil, ErrPhoneInvalid
	}
	customer, err := s.customerRepo.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return &CustomerDetail{ExamRecords: []models.ExamRecord{}}, nil
	}
	records, err := s.examRepo.ListByCustomer(customer.ID)
	if err != nil {
		return nil, err
	}
	return &CustomerDetail{Customer: customer, ExamRecords: records}, nil
}

// GetCustomer 获取会员详情
func (s *StaffService) GetCustomer(customerID uint) (*CustomerDetail, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	records, err := s.examRepo.ListByCustomer(customer.ID)
	if err != nil {
		return nil, err
	}
	return &CustomerDetail{Customer: customer, ExamRecords: records}, nil
}

// ListServedCustomers 店员服务过的会员（以验光记录为准）
func (s *StaffService) ListServedCustomers(staffID uint) ([]models.Customer, error) {
	records, err := s.examRepo.ListByOptometrist(staffID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]struct{}, len(records))
	ids := make([]uint, 0, len(records))
	for _, record := range records {
		if _, ok := seen[record.CustomerID]; ok {
			continue
		}
		seen[record.CustomerID] = struct{}{}
		ids = append(ids, record.CustomerID)
	}
	return s.customerRepo.ListByIDs(ids)
}

// ListFollowUpCustomers 待回访会员，按最后验光时间升序
func (s *StaffService) ListFollowUpCustomers(staffID uint) ([]FollowUpCustomer, error) {
	records, err := s.examRepo.ListByOptometrist(staffID)
	if err != nil {
		return nil, err
	}
	latest := make(map[uint]time.Time, len(records))
	ids := make([]uint, 0, len(records))
	for _, record := range records {
		last, ok := latest[record.CustomerID]
		if !ok {
			ids = append(ids, record.CustomerID)
		}
		if !ok || record.ExamDate.After(last) {
			latest[record.CustomerID] = record.ExamDate
		}
	}
	customers, err := s.customerRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	result := make([]FollowUpCustomer, 0, len(customers))
	for _, customer := range customers {
		result = append(result, FollowUpCustomer{
			Customer:     customer,
			LastExamDate: latest[customer.ID],
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastExamDate.Before(result[j].LastExamDate)
	})
	return result, nil
}

// TodayStats 店员当日统计
func (s *StaffService) TodayStats(ctx context.Context, staffID uint) (*StaffTodayStats, error) {
	var cached StaffTodayStats
	if hit, err := cache.GetStaffStats(ctx, staffStatsScopeToday, staffID, &cached); err == nil && hit {
		return &cached, nil
	}
	now := s.now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	row, err := s.statsRepo.GetStaffStats(staffID, since)
	if err != nil {
		return nil, err
	}
	stats := &StaffTodayStats{
		ExamCount:      row.ExamCount,
		VerifyCount:    row.VerifyCount,
		RechargeAmount: row.RechargeAmount,
		ConsumeAmount:  row.ConsumeAmount,
		RechargeYuan:   models.FormatCents(row.RechargeAmount),
		ConsumeYuan:    models.FormatCents(row.ConsumeAmount),
	}
	s.storeStats(ctx, staffStatsScopeToday, staffID, stats)
	return stats, nil
}

// MonthlyStats 店员当月统计
func (s *StaffService) MonthlyStats(ctx context.Context, staffID uint) (*StaffMonthlyStats, error) {
	var cached StaffMonthlyStats
	if hit, err := cache.GetStaffStats(ctx, staffStatsScopeMonth, staffID, &cached); err == nil && hit {
		return &cached, nil
	}
	now := s.now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	row, err := s.statsRepo.GetStaffStats(staffID, since)
	if err != nil {
		return nil, err
	}
	stats := &StaffMonthlyStats{
		TotalRevenue:  row.ConsumeAmount,
		TotalRecharge: row.RechargeAmount,
		ExamCount:     row.ExamCount,
		CustomerCount: row.CustomerCount,
		RevenueYuan:   models.FormatCents(row.ConsumeAmount),
		RechargeYuan:  models.FormatCents(row.RechargeAmount),
	}
	s.storeStats(ctx, staffStatsScopeMonth, staffID, stats)
	return stats, nil
}

// RecentVerifyRecords 店员最近核销记录
func (s *StaffService) RecentVerifyRecords(staffID uint) ([]models.VerifyRecord, error) {
	limit := s.cfg.RecentVerifyRecordSize
	if limit <= 0 {
		limit = 10
	}
	return s.settlementRepo.ListRecentVerifyRecordsByStaff(staffID, limit)
}

func (s *StaffService) storeStats(ctx context.Context, scope string, staffID uint, value interface{}) {
	ttl := time.Duration(s.cfg.StatsCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := cache.SetStaffStats(ctx, scope, staffID, value, ttl); err != nil {
		logger.Warnw("staff_stats_cache_set_failed", "staff_id", staffID, "scope", scope, "error", err)
	}
}
