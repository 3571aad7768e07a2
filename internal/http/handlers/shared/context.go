package shared

import (
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// 鉴权中间件写入的上下文键
const (
	ContextCustomerID       = "customer_id"
	ContextCustomerIdentity = "customer_identity"
	ContextStaffID          = "staff_id"
	ContextStaffName        = "staff_name"
	ContextStaffRole        = "staff_role"
)

// CustomerAuthContext 从上下文构建会员鉴权信息。
func CustomerAuthContext(c *gin.Context) (service.AuthContext, bool) {
	customerID, ok := GetContextUintWithKeys(c, ContextCustomerID, "error.customer_id_invalid", "error.customer_id_type_invalid")
	if !ok {
		return service.AuthContext{}, false
	}
	return service.CustomerAuth(customerID, c.GetString(ContextCustomerIdentity)), true
}

// StaffAuthContext 从上下文构建店员鉴权信息。
func StaffAuthContext(c *gin.Context) (service.AuthContext, bool) {
	staffID, ok := GetContextUintWithKeys(c, ContextStaffID, "error.staff_id_invalid", "error.staff_id_type_invalid")
	if !ok {
		return service.AuthContext{}, false
	}
	return service.StaffAuth(staffID, c.GetString(ContextStaffName), c.GetString(ContextStaffRole)), true
}
