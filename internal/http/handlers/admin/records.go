package admin

import (
	"strings"

	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListCustomers 最近会员及验光记录
func (h *Handler) ListCustomers(c *gin.Context) {
	customers, err := h.AdminService.Customers()
	if err != nil {
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}
	response.Success(c, customers)
}

// ListExamRecords 最近验光记录
func (h *Handler) ListExamRecords(c *gin.Context) {
	records, err := h.AdminService.ExamRecords()
	if err != nil {
		respondError(c, response.CodeInternal, "error.exam_record_fetch_failed", err)
		return
	}
	response.Success(c, records)
}

// ListSettlementIntents 核销意图列表，用于排查未完成的核销
func (h *Handler) ListSettlementIntents(c *gin.Context) {
	page, pageSize := queryPagination(c)
	customerID, ok := queryUint(c, "customer_id")
	if !ok {
		return
	}
	staffID, ok := queryUint(c, "staff_id")
	if !ok {
		return
	}
	createdFrom, createdTo, ok := queryTimeRange(c)
	if !ok {
		return
	}
	items, total, err := h.AdminService.SettlementIntents(repository.SettlementIntentListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      strings.TrimSpace(c.Query("status")),
		CustomerID:  customerID,
		StaffID:     staffID,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.settlement_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// ListVerifyRecords 核销记录列表
func (h *Handler) ListVerifyRecords(c *gin.Context) {
	page, pageSize := queryPagination(c)
	customerID, ok := queryUint(c, "customer_id")
	if !ok {
		return
	}
	staffID, ok := queryUint(c, "staff_id")
	if !ok {
		return
	}
	createdFrom, createdTo, ok := queryTimeRange(c)
	if !ok {
		return
	}
	items, total, err := h.AdminService.VerifyRecords(repository.VerifyRecordListFilter{
		Page:        page,
		PageSize:    pageSize,
		CustomerID:  customerID,
		StaffID:     staffID,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.verify_record_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}
