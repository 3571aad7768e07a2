package repository

import (
	"errors"
	"strings"

	"github.com/optical-member/internal/models"

	"gorm.io/gorm"
)

// StaffRepository 店员数据访问接口
type StaffRepository interface {
	GetByID(id uint) (*models.Staff, error)
	GetByPhone(phone string) (*models.Staff, error)
	GetByIdentity(identity string) (*models.Staff, error)
	ListByApproval(approved bool) ([]models.Staff, error)
	CountByApproval(approved bool) (int64, error)
	Create(staff *models.Staff) error
	Update(staff *models.Staff) error
	Delete(id uint) error
}

// GormStaffRepository GORM 实现
type GormStaffRepository struct {
	db *gorm.DB
}

// NewStaffRepository 创建店员仓库
func NewStaffRepository(db *gorm.DB) *GormStaffRepository {
	return &GormStaffRepository{db: db}
}

// GetByID 根据 ID 获取店员
func (r *GormStaffRepository) GetByID(id uint) (*models.Staff, error) {
	if id == 0 {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.First(&staff, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// GetByPhone 根据手机号获取店员
func (r *GormStaffRepository) GetByPhone(phone string) (*models.Staff, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.Where("phone = ?", phone).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// GetByIdentity 根据微信身份获取店员
func (r *GormStaffRepository) GetByIdentity(identity string) (*models.Staff, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, nil
	}
	var staff models.Staff
	if err := r.db.Where("identity = ?", identity).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// ListByApproval 按审核状态查询店员
func (r *GormStaffRepository) ListByApproval(approved bool) ([]models.Staff, error) {
	var staff []models.Staff
	if err := r.db.Where("is_approved = ?", approved).Order("created_at desc").Order("id desc").Find(&staff).Error; err != nil {
		return nil, err
	}
	return staff, nil
}

// CountByApproval 按审核状态统计店员
func (r *GormStaffRepository) CountByApproval(approved bool) (int64, error) {
	var total int64
	if err := r.db.Model(&models.Staff{}).Where("is_approved = ?", approved).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Create 创建店员
func (r *GormStaffRepository) Create(staff *models.Staff) error {
	return r.db.Create(staff).Error
}

// Update 更新店员
func (r *GormStaffRepository) Update(staff *models.Staff) error {
	return r.db.Save(staff).Error
}

// Delete 删除店员记录
func (r *GormStaffRepository) Delete(id uint) error {
	return r.db.Delete(&models.Staff{}, id).Error
}
