package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/optical-member/internal/models"

	"gorm.io/gorm"
)

// RedemptionTokenRepository 核销码数据访问接口
type RedemptionTokenRepository interface {
	Create(token *models.RedemptionToken) error
	GetByIdentityAndToken(identity, token string) (*models.RedemptionToken, error)
	CountActiveByCustomer(customerID uint, now time.Time) (int64, error)
	DeleteExpiredBefore(before time.Time) (int64, error)
}

// GormRedemptionTokenRepository GORM 实现
type GormRedemptionTokenRepository struct {
	db *gorm.DB
}

// NewRedemptionTokenRepository 创建核销码仓库
func NewRedemptionTokenRepository(db *gorm.DB) *GormRedemptionTokenRepository {
	return &GormRedemptionTokenRepository{db: db}
}

// Create 保存核销码
func (r *GormRedemptionTokenRepository) Create(token *models.RedemptionToken) error {
	return r.db.Create(token).Error
}

// GetByIdentityAndToken 按身份与令牌查询
func (r *GormRedemptionTokenRepository) GetByIdentityAndToken(identity, token string) (*models.RedemptionToken, error) {
	identity = strings.TrimSpace(identity)
	token = strings.TrimSpace(token)
	if identity == "" || token == "" {
		return nil, nil
	}
	var row models.RedemptionToken
	if err := r.db.Where("identity = ? AND token = ?", identity, token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// CountActiveByCustomer 统计会员当前有效的核销码数量
func (r *GormRedemptionTokenRepository) CountActiveByCustomer(customerID uint, now time.Time) (int64, error) {
	var total int64
	if err := r.db.Model(&models.RedemptionToken{}).
		Where("customer_id = ? AND expire_at >= ?", customerID, now).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// DeleteExpiredBefore 删除在指定时间前已过期的核销码
func (r *GormRedemptionTokenRepository) DeleteExpiredBefore(before time.Time) (int64, error) {
	result := r.db.Where("expire_at < ?", before).Delete(&models.RedemptionToken{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
