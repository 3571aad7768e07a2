package admin

import (
	"github.com/optical-member/internal/http/response"

	"github.com/gin-gonic/gin"
)

type approveStaffPayload struct {
	Approved *bool `json:"approved" binding:"required"`
}

type setStaffRolesPayload struct {
	Roles []string `json:"roles" binding:"required"`
}

// GetStats 门店总览
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.AdminService.Stats()
	if err != nil {
		respondError(c, response.CodeInternal, "error.stats_fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// ListPendingStaff 待审核店员
func (h *Handler) ListPendingStaff(c *gin.Context) {
	staffList, err := h.AdminService.PendingStaff()
	if err != nil {
		respondError(c, response.CodeInternal, "error.staff_fetch_failed", err)
		return
	}
	response.Success(c, staffList)
}

// CountPendingStaff 待审核店员数量
func (h *Handler) CountPendingStaff(c *gin.Context) {
	count, err := h.AdminService.PendingStaffCount()
	if err != nil {
		respondError(c, response.CodeInternal, "error.staff_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// ListStaff 已审核店员及其角色
func (h *Handler) ListStaff(c *gin.Context) {
	staffList, err := h.AdminService.ApprovedStaff()
	if err != nil {
		respondError(c, response.CodeInternal, "error.staff_fetch_failed", err)
		return
	}
	items := make([]gin.H, 0, len(staffList))
	for _, staff := range staffList {
		roles, roleErr := h.AuthzService.GetStaffRoles(staff.ID)
		if roleErr != nil {
			respondError(c, response.CodeInternal, "error.staff_fetch_failed", roleErr)
			return
		}
		items = append(items, gin.H{
			"id":            staff.ID,
			"name":          staff.Name,
			"phone":         staff.Phone,
			"staff_no":      staff.StaffNo,
			"role":          staff.Role,
			"approved_at":   staff.ApprovedAt,
			"last_login_at": staff.LastLoginAt,
			"roles":         roles,
		})
	}
	response.Success(c, items)
}

// ApproveStaff 审核店员（approved=false 时拒绝并删除）
func (h *Handler) ApproveStaff(c *gin.Context) {
	operator, ok := operatorAuth(c)
	if !ok {
		return
	}
	staffID, ok := parseStaffIDParam(c)
	if !ok {
		return
	}
	var req approveStaffPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	staff, err := h.AdminService.ApproveStaff(c.Request.Context(), operator, currentRequestID(c), staffID, *req.Approved)
	if err != nil {
		respondWithMappedError(c, err, staffManageErrorRules, response.CodeInternal, "error.staff_update_failed")
		return
	}
	requestLog(c).Infow("admin_staff_reviewed",
		"operator_staff_id", operator.StaffID,
		"target_staff_id", staffID,
		"approved", *req.Approved,
	)
	if staff == nil {
		response.Success(c, gin.H{"id": staffID, "deleted": true})
		return
	}
	response.Success(c, staff)
}

// GetStaffRoles 获取店员授权角色
func (h *Handler) GetStaffRoles(c *gin.Context) {
	staffID, ok := parseStaffIDParam(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetStaffRoles(staffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.staff_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"staff_id": staffID, "roles": roles})
}

// SetStaffRoles 覆盖店员授权角色
func (h *Handler) SetStaffRoles(c *gin.Context) {
	operator, ok := operatorAuth(c)
	if !ok {
		return
	}
	staffID, ok := parseStaffIDParam(c)
	if !ok {
		return
	}
	var req setStaffRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	roles, err := h.AdminService.SetStaffRoles(c.Request.Context(), operator, currentRequestID(c), staffID, req.Roles)
	if err != nil {
		respondWithMappedError(c, err, staffManageErrorRules, response.CodeInternal, "error.staff_update_failed")
		return
	}
	response.Success(c, gin.H{"staff_id": staffID, "roles": roles})
}
