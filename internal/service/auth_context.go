package service

import (
	"strings"

	"github.com/optical-member/internal/constants"
)

// AuthContext 显式会话上下文，由中间件从 JWT 声明构建后传入服务
type AuthContext struct {
	Role       string
	CustomerID uint
	Identity   string
	StaffID    uint
	StaffName  string
}

// CustomerAuth 构建会员会话
func CustomerAuth(customerID uint, identity string) AuthContext {
	return AuthContext{
		Role:       constants.RoleCustomer,
		CustomerID: customerID,
		Identity:   strings.TrimSpace(identity),
	}
}

// StaffAuth 构建店员会话
func StaffAuth(staffID uint, name, role string) AuthContext {
	role = strings.TrimSpace(role)
	if role == "" {
		role = constants.RoleStaff
	}
	return AuthContext{
		Role:      role,
		StaffID:   staffID,
		StaffName: strings.TrimSpace(name),
	}
}

// IsCustomer 是否为会员会话
func (a AuthContext) IsCustomer() bool {
	return a.Role == constants.RoleCustomer && a.CustomerID > 0
}

// IsStaff 是否为店员会话（管理员同样具备店员权限）
func (a AuthContext) IsStaff() bool {
	return (a.Role == constants.RoleStaff || a.Role == constants.RoleAdmin) && a.StaffID > 0
}

// IsAdmin 是否为管理员会话
func (a AuthContext) IsAdmin() bool {
	return a.Role == constants.RoleAdmin && a.StaffID > 0
}
