package repository

import (
	"github.com/optical-member/internal/models"

	"gorm.io/gorm"
)

// StaffAuditLogRepository 店员审计日志数据访问接口
type StaffAuditLogRepository interface {
	Create(log *models.StaffAuditLog) error
	List(filter StaffAuditLogListFilter) ([]models.StaffAuditLog, int64, error)
}

// GormStaffAuditLogRepository GORM 实现
type GormStaffAuditLogRepository struct {
	db *gorm.DB
}

// NewStaffAuditLogRepository 创建店员审计日志仓库
func NewStaffAuditLogRepository(db *gorm.DB) *GormStaffAuditLogRepository {
	return &GormStaffAuditLogRepository{db: db}
}

// Create 创建审计日志
func (r *GormStaffAuditLogRepository) Create(log *models.StaffAuditLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// List 查询审计日志
func (r *GormStaffAuditLogRepository) List(filter StaffAuditLogListFilter) ([]models.StaffAuditLog, int64, error) {
	query := r.db.Model(&models.StaffAuditLog{})
	if filter.OperatorStaffID != 0 {
		query = query.Where("operator_staff_id = ?", filter.OperatorStaffID)
	}
	if filter.TargetStaffID != 0 {
		query = query.Where("target_staff_id = ?", filter.TargetStaffID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	logs := make([]models.StaffAuditLog, 0)
	if err := query.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
