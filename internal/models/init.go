package models

import (
	"strings"
	"time"

	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

const defaultAdminPassword = "admin12345"

// InitDefaultAdmin 初始化默认管理员店员账号
func InitDefaultAdmin(phone, password string) error {
	var count int64
	if err := DB.Model(&Staff{}).Where("role = ?", constants.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		phone = "13800000000"
	}
	if password == "" {
		password = defaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := Staff{
		Name:         "管理员",
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         constants.RoleAdmin,
		IsApproved:   true,
		ApprovedAt:   &now,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == defaultAdminPassword {
		logger.Warnw("default_admin_created_with_default_password", "phone", phone)
		logger.Warnw("default_admin_password_change_required", "phone", phone)
	} else {
		logger.Warnw("default_admin_created", "phone", phone, "password_hidden", true)
	}
	return nil
}
