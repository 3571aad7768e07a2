package service

import (
	"context"
	"strings"
	"time"

	"github.com/optical-member/internal/cache"
	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"
)

const adminListLimit = 100

// StaffRoleBinder 店员角色授权同步接口
type StaffRoleBinder interface {
	SetStaffRoles(staffID uint, roles []string) error
	GetStaffRoles(staffID uint) ([]string, error)
	RemoveStaff(staffID uint) error
}

// StoreOverview 门店总览
type StoreOverview struct {
	TotalCustomers int64  `json:"total_customers"`
	TotalStaff     int64  `json:"total_staff"`
	TotalBalance   int64  `json:"total_balance"`
	TotalYuan      string `json:"total_balance_yuan"`
	TodayExams     int64  `json:"today_exams"`
	PendingStaff   int64  `json:"pending_staff"`
}

// CustomerWithExams 会员及其验光记录
type CustomerWithExams struct {
	models.Customer
	ExamRecords []models.ExamRecord `json:"exam_records"`
}

// AdminService 管理后台服务
type AdminService struct {
	staffRepo      repository.StaffRepository
	customerRepo   repository.CustomerRepository
	examRepo       repository.ExamRepository
	settlementRepo repository.SettlementRepository
	statsRepo      repository.StatsRepository
	auditRepo      repository.StaffAuditLogRepository
	roleBinder     StaffRoleBinder
	now            func() time.Time
}

// NewAdminService 创建管理后台服务
func NewAdminService(
	staffRepo repository.StaffRepository,
	customerRepo repository.CustomerRepository,
	examRepo repository.ExamRepository,
	settlementRepo repository.SettlementRepository,
	statsRepo repository.StatsRepository,
	auditRepo repository.StaffAuditLogRepository,
	roleBinder StaffRoleBinder,
) *AdminService {
	return &AdminService{
		staffRepo:      staffRepo,
		customerRepo:   customerRepo,
		examRepo:       examRepo,
		settlementRepo: settlementRepo,
		statsRepo:      statsRepo,
		auditRepo:      auditRepo,
		roleBinder:     roleBinder,
		now:            time.Now,
	}
}

// Stats 门店总览统计
func (s *AdminService) Stats() (*StoreOverview, error) {
	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	row, err := s.statsRepo.GetStoreOverview(todayStart)
	if err != nil {
		return nil, err
	}
	pending, err := s.staffRepo.CountByApproval(false)
	if err != nil {
		return nil, err
	}
	return &StoreOverview{
		TotalCustomers: row.TotalCustomers,
		TotalStaff:     row.TotalStaff,
		TotalBalance:   row.TotalBalance,
		TotalYuan:      models.FormatCents(row.TotalBalance),
		TodayExams:     row.TodayExams,
		PendingStaff:   pending,
	}, nil
}

// PendingStaffCount 待审核店员数量
func (s *AdminService) PendingStaffCount() (int64, error) {
	return s.staffRepo.CountByApproval(false)
}

// PendingStaff 待审核店员列表
func (s *AdminService) PendingStaff() ([]models.Staff, error) {
	return s.staffRepo.ListByApproval(false)
}

// ApprovedStaff 已审核店员列表
func (s *AdminService) ApprovedStaff() ([]models.Staff, error) {
	return s.staffRepo.ListByApproval(true)
}

// ApproveStaff 审核店员；拒绝时删除该店员
func (s *AdminService) ApproveStaff(ctx context.Context, operator AuthContext, requestID string, staffID uint, approved bool) (*models.Staff, error) {
	if !operator.IsAdmin() {
		return nil, ErrForbidden
	}
	staff, err := s.staffRepo.GetByID(staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrStaffNotFound
	}
	if staff.Role == constants.RoleAdmin {
		return nil, ErrForbidden
	}

	if !approved {
		if err := s.staffRepo.Delete(staff.ID); err != nil {
			return nil, err
		}
		if s.roleBinder != nil {
			if err := s.roleBinder.RemoveStaff(staff.ID); err != nil {
				logger.Warnw("staff_role_remove_failed", "staff_id", staff.ID, "error", err)
			}
		}
		if err := cache.DelStaffAuthState(ctx, staff.ID); err != nil {
			logger.Warnw("staff_auth_state_delete_failed", "staff_id", staff.ID, "error", err)
		}
		s.audit(operator, requestID, staff, constants.StaffAuditReject, nil)
		logger.Infow("staff_rejected", "staff_id", staff.ID, "phone", staff.Phone)
		return nil, nil
	}

	if staff.IsApproved {
		return nil, ErrStaffAlreadyActive
	}
	now := s.now()
	staff.IsApproved = true
	staff.ApprovedAt = &now
	if err := s.staffRepo.Update(staff); err != nil {
		return nil, err
	}
	if s.roleBinder != nil {
		if err := s.roleBinder.SetStaffRoles(staff.ID, []string{staff.Role}); err != nil {
			return nil, err
		}
	}
	if err := cache.SetStaffAuthState(ctx, cache.BuildStaffAuthState(staff)); err != nil {
		logger.Warnw("staff_auth_state_set_failed", "staff_id", staff.ID, "error", err)
	}
	s.audit(operator, requestID, staff, constants.StaffAuditApprove, []string{staff.Role})
	logger.Infow("staff_approved", "staff_id", staff.ID, "phone", staff.Phone)
	return staff, nil
}

// SetStaffRoles 调整已审核店员的授权角色
func (s *AdminService) SetStaffRoles(ctx context.Context, operator AuthContext, requestID string, staffID uint, roles []string) ([]string, error) {
	if !operator.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.roleBinder == nil {
		return nil, ErrForbidden
	}
	staff, err := s.staffRepo.GetByID(staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrStaffNotFound
	}
	if !staff.IsApproved {
		return nil, ErrStaffNotApproved
	}
	if staff.ID == operator.StaffID {
		return nil, ErrForbidden
	}
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		normalized = append(normalized, role)
	}
	if len(normalized) == 0 {
		return nil, ErrInvalidInput
	}
	if err := s.roleBinder.SetStaffRoles(staff.ID, normalized); err != nil {
		return nil, err
	}
	s.audit(operator, requestID, staff, constants.StaffAuditSetRoles, normalized)
	return s.roleBinder.GetStaffRoles(staff.ID)
}

// AuditLogs 查询店员审计日志
func (s *AdminService) AuditLogs(filter repository.StaffAuditLogListFilter) ([]models.StaffAuditLog, int64, error) {
	if s.auditRepo == nil {
		return []models.StaffAuditLog{}, 0, nil
	}
	return s.auditRepo.List(filter)
}

func (s *AdminService) audit(operator AuthContext, requestID string, target *models.Staff, action string, roles []string) {
	if s.auditRepo == nil || target == nil {
		return
	}
	entry := &models.StaffAuditLog{
		OperatorStaffID: operator.StaffID,
		OperatorName:    operator.StaffName,
		TargetStaffID:   target.ID,
		TargetPhone:     target.Phone,
		Action:          action,
		Roles:           strings.Join(roles, ","),
		RequestID:       strings.TrimSpace(requestID),
	}
	if err := s.auditRepo.Create(entry); err != nil {
		logger.Warnw("staff_audit_log_create_failed", "target_staff_id", target.ID, "action", action, "error", err)
	}
}

// Customers 最近注册的会员及其验光记录
func (s *AdminService) Customers() ([]CustomerWithExams, error) {
	customers, _, err := s.customerRepo.List(repository.CustomerListFilter{Page: 1, PageSize: adminListLimit})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(customers))
	for _, customer := range customers {
		ids = append(ids, customer.ID)
	}
	records, err := s.examRepo.ListByCustomerIDs(ids)
	if err != nil {
		return nil, err
	}
	grouped := make(map[uint][]models.ExamRecord, len(customers))
	for _, record := range records {
		grouped[record.CustomerID] = append(grouped[record.CustomerID], record)
	}
	result := make([]CustomerWithExams, 0, len(customers))
	for _, customer := range customers {
		exams := grouped[customer.ID]
		if exams == nil {
			exams = []models.ExamRecord{}
		}
		result = append(result, CustomerWithExams{Customer: customer, ExamRecords: exams})
	}
	return result, nil
}

// ExamRecords 最近的验光记录
func (s *AdminService) ExamRecords() ([]models.ExamRecord, error) {
	return s.examRepo.ListLatest(adminListLimit)
}

// SettlementIntents 按状态查询核销意图
func (s *AdminService) SettlementIntents(filter repository.SettlementIntentListFilter) ([]models.SettlementIntent, int64, error) {
	return s.settlementRepo.ListIntents(filter)
}

// VerifyRecords 查询核销记录
func (s *AdminService) VerifyRecords(filter repository.VerifyRecordListFilter) ([]models.VerifyRecord, int64, error) {
	return s.settlementRepo.ListVerifyRecords(filter)
}
