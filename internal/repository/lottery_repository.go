package repository

import (
	"errors"
	"time"

	"github.com/optical-member/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LotteryRepository 抽奖记录数据访问接口
type LotteryRepository interface {
	Create(record *models.LotteryRecord) error
	GetByID(id uint) (*models.LotteryRecord, error)
	GetByIDForUpdate(id uint) (*models.LotteryRecord, error)
	GetByCustomerAndDate(customerID uint, drawDate string) (*models.LotteryRecord, error)
	ListRedeemable(customerID uint, now time.Time) ([]models.LotteryRecord, error)
	ListByCustomer(customerID uint, limit int) ([]models.LotteryRecord, error)
	MarkUsed(id uint, usedAt time.Time) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormLotteryRepository
}

// GormLotteryRepository GORM 实现
type GormLotteryRepository struct {
	db *gorm.DB
}

// NewLotteryRepository 创建抽奖记录仓库
func NewLotteryRepository(db *gorm.DB) *GormLotteryRepository {
	return &GormLotteryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLotteryRepository) WithTx(tx *gorm.DB) *GormLotteryRepository {
	if tx == nil {
		return r
	}
	return &GormLotteryRepository{db: tx}
}

// Transaction 开启事务
func (r *GormLotteryRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建抽奖记录
func (r *GormLotteryRepository) Create(record *models.LotteryRecord) error {
	return r.db.Create(record).Error
}

// GetByID 根据 ID 获取
func (r *GormLotteryRepository) GetByID(id uint) (*models.LotteryRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.LotteryRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByIDForUpdate 加锁获取
func (r *GormLotteryRepository) GetByIDForUpdate(id uint) (*models.LotteryRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.LotteryRecord
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByCustomerAndDate 查询会员某日的抽奖记录
func (r *GormLotteryRepository) GetByCustomerAndDate(customerID uint, drawDate string) (*models.LotteryRecord, error) {
	var record models.LotteryRecord
	if err := r.db.Where("customer_id = ? AND draw_date = ?", customerID, drawDate).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListRedeemable 查询可核销奖品（未使用且未过期）
func (r *GormLotteryRepository) ListRedeemable(customerID uint, now time.Time) ([]models.LotteryRecord, error) {
	var records []models.LotteryRecord
	if err := r.db.Where("customer_id = ? AND is_used = ? AND expire_at > ?", customerID, false, now).
		Order("expire_at asc").Order("id asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByCustomer 查询会员最近的抽奖记录
func (r *GormLotteryRepository) ListByCustomer(customerID uint, limit int) ([]models.LotteryRecord, error) {
	query := r.db.Where("customer_id = ?", customerID).Order("created_at desc").Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []models.LotteryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkUsed 标记奖品已使用
func (r *GormLotteryRepository) MarkUsed(id uint, usedAt time.Time) error {
	return r.db.Model(&models.LotteryRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_used": true,
			"used_at": usedAt,
		}).Error
}
