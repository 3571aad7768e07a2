package repository

import (
	"errors"
	"strings"

	"github.com/optical-member/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RechargeRepository 充值数据访问接口
type RechargeRepository interface {
	CreateRecord(record *models.RechargeRecord) error
	CreateOrder(order *models.RechargeOrder) error
	GetOrderByNo(orderNo string) (*models.RechargeOrder, error)
	GetOrderByNoForUpdate(orderNo string) (*models.RechargeOrder, error)
	UpdateOrder(order *models.RechargeOrder) error
	ListRecordsByCustomer(customerID uint, limit int) ([]models.RechargeRecord, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormRechargeRepository
}

// GormRechargeRepository GORM 实现
type GormRechargeRepository struct {
	db *gorm.DB
}

// NewRechargeRepository 创建充值仓库
func NewRechargeRepository(db *gorm.DB) *GormRechargeRepository {
	return &GormRechargeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRechargeRepository) WithTx(tx *gorm.DB) *GormRechargeRepository {
	if tx == nil {
		return r
	}
	return &GormRechargeRepository{db: tx}
}

// Transaction 开启事务
func (r *GormRechargeRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// CreateRecord 写入充值记录
func (r *GormRechargeRepository) CreateRecord(record *models.RechargeRecord) error {
	return r.db.Create(record).Error
}

// CreateOrder 创建在线充值订单
func (r *GormRechargeRepository) CreateOrder(order *models.RechargeOrder) error {
	return r.db.Create(order).Error
}

// GetOrderByNo 按订单号查询
func (r *GormRechargeRepository) GetOrderByNo(orderNo string) (*models.RechargeOrder, error) {
	return r.getOrder(r.db, orderNo)
}

// GetOrderByNoForUpdate 按订单号加锁查询
func (r *GormRechargeRepository) GetOrderByNoForUpdate(orderNo string) (*models.RechargeOrder, error) {
	return r.getOrder(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), orderNo)
}

func (r *GormRechargeRepository) getOrder(db *gorm.DB, orderNo string) (*models.RechargeOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.RechargeOrder
	if err := db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// UpdateOrder 更新在线充值订单
func (r *GormRechargeRepository) UpdateOrder(order *models.RechargeOrder) error {
	return r.db.Save(order).Error
}

// ListRecordsByCustomer 查询会员最近的充值记录
func (r *GormRechargeRepository) ListRecordsByCustomer(customerID uint, limit int) ([]models.RechargeRecord, error) {
	query := r.db.Where("customer_id = ?", customerID).Order("created_at desc").Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []models.RechargeRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
