package staff

import (
	"strings"

	"github.com/optical-member/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SearchCustomer 按手机号查找会员
func (h *Handler) SearchCustomer(c *gin.Context) {
	detail, err := h.StaffService.SearchCustomer(strings.TrimSpace(c.Query("phone")))
	if err != nil {
		respondWithMappedError(c, err, customerLookupErrorRules, response.CodeInternal, "error.customer_fetch_failed")
		return
	}
	response.Success(c, detail)
}

// GetCustomer 会员详情
func (h *Handler) GetCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.StaffService.GetCustomer(customerID)
	if err != nil {
		respondWithMappedError(c, err, customerLookupErrorRules, response.CodeInternal, "error.customer_fetch_failed")
		return
	}
	response.Success(c, detail)
}

// ListServedCustomers 我服务过的会员
func (h *Handler) ListServedCustomers(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	customers, err := h.StaffService.ListServedCustomers(auth.StaffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}
	response.Success(c, customers)
}

// ListFollowUpCustomers 待回访会员
func (h *Handler) ListFollowUpCustomers(c *gin.Context) {
	auth, ok := staffAuth(c)
	if !ok {
		return
	}
	customers, err := h.StaffService.ListFollowUpCustomers(auth.StaffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}
	response.Success(c, customers)
}

// ListCustomerRechargeRecords 会员充值记录
func (h *Handler) ListCustomerRechargeRecords(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	records, err := h.RechargeService.ListRecords(customerID, 50)
	if err != nil {
		respondError(c, response.CodeInternal, "error.recharge_fetch_failed", err)
		return
	}
	response.Success(c, records)
}
