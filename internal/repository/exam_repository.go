package repository

import (
	"errors"

	"github.com/optical-member/internal/models"

	"gorm.io/gorm"
)

// ExamRepository 验光与自测记录数据访问接口
type ExamRepository interface {
	CreateExamRecord(record *models.ExamRecord) error
	ListByCustomer(customerID uint) ([]models.ExamRecord, error)
	ListByCustomerIDs(customerIDs []uint) ([]models.ExamRecord, error)
	ListByOptometrist(staffID uint) ([]models.ExamRecord, error)
	ListLatest(limit int) ([]models.ExamRecord, error)
	CreateSelfTest(record *models.SelfTestRecord) error
	GetLatestSelfTest(customerID uint) (*models.SelfTestRecord, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormExamRepository
}

// GormExamRepository GORM 实现
type GormExamRepository struct {
	db *gorm.DB
}

// NewExamRepository 创建验光记录仓库
func NewExamRepository(db *gorm.DB) *GormExamRepository {
	return &GormExamRepository{db: db}
}

// WithTx 绑定事务
func (r *GormExamRepository) WithTx(tx *gorm.DB) *GormExamRepository {
	if tx == nil {
		return r
	}
	return &GormExamRepository{db: tx}
}

// Transaction 开启事务
func (r *GormExamRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// CreateExamRecord 写入验光记录
func (r *GormExamRepository) CreateExamRecord(record *models.ExamRecord) error {
	return r.db.Create(record).Error
}

// ListByCustomer 查询会员验光记录（按验光日期倒序）
func (r *GormExamRepository) ListByCustomer(customerID uint) ([]models.ExamRecord, error) {
	var records []models.ExamRecord
	if err := r.db.Where("customer_id = ?", customerID).
		Order("exam_date desc").Order("id desc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByCustomerIDs 批量查询会员验光记录
func (r *GormExamRepository) ListByCustomerIDs(customerIDs []uint) ([]models.ExamRecord, error) {
	if len(customerIDs) == 0 {
		return []models.ExamRecord{}, nil
	}
	var records []models.ExamRecord
	if err := r.db.Where("customer_id IN ?", customerIDs).
		Order("exam_date desc").Order("id desc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByOptometrist 查询验光师的验光记录
func (r *GormExamRepository) ListByOptometrist(staffID uint) ([]models.ExamRecord, error) {
	var records []models.ExamRecord
	if err := r.db.Where("optometrist_id = ?", staffID).
		Order("exam_date desc").Order("id desc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListLatest 查询最近的验光记录
func (r *GormExamRepository) ListLatest(limit int) ([]models.ExamRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []models.ExamRecord
	if err := r.db.Order("exam_date desc").Order("id desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CreateSelfTest 写入自测记录
func (r *GormExamRepository) CreateSelfTest(record *models.SelfTestRecord) error {
	return r.db.Create(record).Error
}

// GetLatestSelfTest 查询最近一次自测
func (r *GormExamRepository) GetLatestSelfTest(customerID uint) (*models.SelfTestRecord, error) {
	var record models.SelfTestRecord
	if err := r.db.Where("customer_id = ?", customerID).
		Order("test_date desc").Order("id desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
