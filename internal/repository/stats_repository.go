package repository

import (
	"time"

	"github.com/optical-member/internal/models"

	"gorm.io/gorm"
)

// StatsRepository 统计聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type StatsRepository interface {
	GetStaffStats(staffID uint, since time.Time) (StaffStatsRow, error)
	GetStoreOverview(todayStart time.Time) (StoreOverviewRow, error)
}

// StaffStatsRow 店员在某时间点之后的业务统计
type StaffStatsRow struct {
	ExamCount      int64
	VerifyCount    int64
	RechargeAmount int64
	ConsumeAmount  int64
	CustomerCount  int64
}

// StoreOverviewRow 门店总览统计
type StoreOverviewRow struct {
	TotalCustomers int64
	TotalStaff     int64
	TotalBalance   int64
	TodayExams     int64
}

// GormStatsRepository GORM 统计实现
type GormStatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository 创建统计仓库
func NewStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

// GetStaffStats 获取店员统计
func (r *GormStatsRepository) GetStaffStats(staffID uint, since time.Time) (StaffStatsRow, error) {
	result := StaffStatsRow{}

	if err := r.db.Model(&models.ExamRecord{}).
		Where("optometrist_id = ? AND exam_date >= ?", staffID, since).
		Count(&result.ExamCount).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.VerifyRecord{}).
		Where("staff_id = ? AND created_at >= ?", staffID, since).
		Count(&result.VerifyCount).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.RechargeRecord{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("staff_id = ? AND created_at >= ?", staffID, since).
		Scan(&result.RechargeAmount).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.ConsumeRecord{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("staff_id = ? AND created_at >= ?", staffID, since).
		Scan(&result.ConsumeAmount).Error; err != nil {
		return result, err
	}

	var consumeCustomers []uint
	if err := r.db.Model(&models.ConsumeRecord{}).
		Where("staff_id = ? AND created_at >= ?", staffID, since).
		Distinct().Pluck("customer_id", &consumeCustomers).Error; err != nil {
		return result, err
	}
	var rechargeCustomers []uint
	if err := r.db.Model(&models.RechargeRecord{}).
		Where("staff_id = ? AND created_at >= ?", staffID, since).
		Distinct().Pluck("customer_id", &rechargeCustomers).Error; err != nil {
		return result, err
	}
	seen := make(map[uint]struct{}, len(consumeCustomers)+len(rechargeCustomers))
	for _, id := range consumeCustomers {
		seen[id] = struct{}{}
	}
	for _, id := range rechargeCustomers {
		seen[id] = struct{}{}
	}
	result.CustomerCount = int64(len(seen))
	return result, nil
}

// GetStoreOverview 获取门店总览
func (r *GormStatsRepository) GetStoreOverview(todayStart time.Time) (StoreOverviewRow, error) {
	result := StoreOverviewRow{}
	if err := r.db.Model(&models.Customer{}).Count(&result.TotalCustomers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Staff{}).Where("is_approved = ?", true).Count(&result.TotalStaff).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Customer{}).Select("COALESCE(SUM(balance), 0)").Scan(&result.TotalBalance).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.ExamRecord{}).Where("exam_date >= ?", todayStart).Count(&result.TodayExams).Error; err != nil {
		return result, err
	}
	return result, nil
}
