package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/models"

	"gorm.io/gorm"
)

// SettlementRepository 核销数据访问接口
type SettlementRepository interface {
	CreateIntent(intent *models.SettlementIntent) error
	GetIntentByReference(reference string) (*models.SettlementIntent, error)
	UpdateIntent(intent *models.SettlementIntent) error
	MarkIntentFailed(reference, reason string) error
	ReopenFailedIntent(reference string) (bool, error)
	MarkStaleIntentsFailed(before time.Time, reason string) (int64, error)
	ListIntents(filter SettlementIntentListFilter) ([]models.SettlementIntent, int64, error)
	CreateVerifyRecord(record *models.VerifyRecord) error
	GetVerifyRecordByID(id uint) (*models.VerifyRecord, error)
	GetVerifyRecordByReference(reference string) (*models.VerifyRecord, error)
	ListVerifyRecords(filter VerifyRecordListFilter) ([]models.VerifyRecord, int64, error)
	ListRecentVerifyRecordsByStaff(staffID uint, limit int) ([]models.VerifyRecord, error)
	CreateConsumeRecord(record *models.ConsumeRecord) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormSettlementRepository
}

// GormSettlementRepository GORM 实现
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建核销仓库
func NewSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSettlementRepository) WithTx(tx *gorm.DB) *GormSettlementRepository {
	if tx == nil {
		return r
	}
	return &GormSettlementRepository{db: tx}
}

// Transaction 开启事务
func (r *GormSettlementRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// CreateIntent 写入核销意图
func (r *GormSettlementRepository) CreateIntent(intent *models.SettlementIntent) error {
	return r.db.Create(intent).Error
}

// GetIntentByReference 按幂等编号获取核销意图
func (r *GormSettlementRepository) GetIntentByReference(reference string) (*models.SettlementIntent, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var intent models.SettlementIntent
	if err := r.db.Where("reference = ?", reference).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// UpdateIntent 更新核销意图
func (r *GormSettlementRepository) UpdateIntent(intent *models.SettlementIntent) error {
	return r.db.Save(intent).Error
}

// MarkIntentFailed 将待处理的核销意图标记为失败
func (r *GormSettlementRepository) MarkIntentFailed(reference, reason string) error {
	return r.db.Model(&models.SettlementIntent{}).
		Where("reference = ? AND status = ?", reference, constants.SettlementStatusPending).
		Updates(map[string]interface{}{
			"status":         constants.SettlementStatusFailed,
			"failure_reason": truncateReason(reason),
			"updated_at":     time.Now(),
		}).Error
}

// ReopenFailedIntent 将失败的核销意图重新置为待处理，仅一个调用方能成功
func (r *GormSettlementRepository) ReopenFailedIntent(reference string) (bool, error) {
	result := r.db.Model(&models.SettlementIntent{}).
		Where("reference = ? AND status = ?", reference, constants.SettlementStatusFailed).
		Updates(map[string]interface{}{
			"status":         constants.SettlementStatusPending,
			"failure_reason": "",
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkStaleIntentsFailed 将超时仍未提交的核销意图标记为失败（以最近一次置为待处理的时间计）
func (r *GormSettlementRepository) MarkStaleIntentsFailed(before time.Time, reason string) (int64, error) {
	result := r.db.Model(&models.SettlementIntent{}).
		Where("status = ? AND updated_at < ?", constants.SettlementStatusPending, before).
		Updates(map[string]interface{}{
			"status":         constants.SettlementStatusFailed,
			"failure_reason": truncateReason(reason),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListIntents 分页查询核销意图
func (r *GormSettlementRepository) ListIntents(filter SettlementIntentListFilter) ([]models.SettlementIntent, int64, error) {
	query := r.db.Model(&models.SettlementIntent{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.StaffID != 0 {
		query = query.Where("staff_id = ?", filter.StaffID)
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

	var intents []models.SettlementIntent
	if err := query.Order("id desc").Find(&intents).Error; err != nil {
		return nil, 0, err
	}
	return intents, total, nil
}

// CreateVerifyRecord 写入核销记录
func (r *GormSettlementRepository) CreateVerifyRecord(record *models.VerifyRecord) error {
	return r.db.Create(record).Error
}

// GetVerifyRecordByID 根据 ID 获取核销记录
func (r *GormSettlementRepository) GetVerifyRecordByID(id uint) (*models.VerifyRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.VerifyRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetVerifyRecordByReference 按幂等编号获取核销记录
func (r *GormSettlementRepository) GetVerifyRecordByReference(reference string) (*models.VerifyRecord, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var record models.VerifyRecord
	if err := r.db.Where("reference = ?", reference).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListVerifyRecords 分页查询核销记录
func (r *GormSettlementRepository) ListVerifyRecords(filter VerifyRecordListFilter) ([]models.VerifyRecord, int64, error) {
	query := r.db.Model(&models.VerifyRecord{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.StaffID != 0 {
		query = query.Where("staff_id = ?", filter.StaffID)
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

	var records []models.VerifyRecord
	if err := query.Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListRecentVerifyRecordsByStaff 查询店员最近的核销记录
func (r *GormSettlementRepository) ListRecentVerifyRecordsByStaff(staffID uint, limit int) ([]models.VerifyRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var records []models.VerifyRecord
	if err := r.db.Where("staff_id = ?", staffID).
		Order("created_at desc").Order("id desc").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CreateConsumeRecord 写入消费记录
func (r *GormSettlementRepository) CreateConsumeRecord(record *models.ConsumeRecord) error {
	return r.db.Create(record).Error
}

func truncateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) > 250 {
		return string([]rune(reason)[:250])
	}
	return reason
}
