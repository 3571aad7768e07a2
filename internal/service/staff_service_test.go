package service

import (
	"context"
	"testing"
	"time"

	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoleBinder struct {
	roles   map[uint][]string
	removed []uint
}

func newFakeRoleBinder() *fakeRoleBinder {
	return &fakeRoleBinder{roles: map[uint][]string{}}
}

func (f *fakeRoleBinder) SetStaffRoles(staffID uint, roles []string) error {
	f.roles[staffID] = append([]string(nil), roles...)
	return nil
}

func (f *fakeRoleBinder) GetStaffRoles(staffID uint) ([]string, error) {
	return f.roles[staffID], nil
}

func (f *fakeRoleBinder) RemoveStaff(staffID uint) error {
	delete(f.roles, staffID)
	f.removed = append(f.removed, staffID)
	return nil
}

func newStaffServiceForTest(env *serviceTestEnv) *StaffService {
	return NewStaffService(env.cfg.Redemption, env.customerRepo, env.examRepo, env.settlementRepo, env.statsRepo)
}

func TestStaffSearchCustomer(t *testing.T) {
	env := setupServiceTest(t, "staff_search")
	customer := env.createCustomer(t, "openid-search", 0)
	require.NoError(t, env.db.Model(customer).Update("phone", "13500000001").Error)
	svc := newStaffServiceForTest(env)

	_, err := svc.SearchCustomer("abc")
	assert.ErrorIs(t, err, ErrPhoneInvalid)

	miss, err := svc.SearchCustomer("13500000009")
	require.NoError(t, err)
	assert.Nil(t, miss.Customer)
	assert.Empty(t, miss.ExamRecords)

	hit, err := svc.SearchCustomer(" 13500000001 ")
	require.NoError(t, err)
	require.NotNil(t, hit.Customer)
	assert.Equal(t, customer.ID, hit.Customer.ID)

	_, err = svc.GetCustomer(404)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestStaffServedAndFollowUpCustomers(t *testing.T) {
	env := setupServiceTest(t, "staff_follow_up")
	first := env.createCustomer(t, "openid-first", 0)
	second := env.createCustomer(t, "openid-second", 0)
	other := env.createCustomer(t, "openid-other-staff", 0)
	exams := NewExamService(env.examRepo, env.customerRepo)
	base := time.Date(2026, 1, 10, 10, 0, 0, 0, time.Local)

	add := func(customerID, staffID uint, at time.Time) {
		_, err := exams.AddExamRecord(ExamRecordInput{CustomerID: customerID, OptometristID: staffID, ExamDate: at})
		require.NoError(t, err)
	}
	add(first.ID, 3, base)
	add(first.ID, 3, base.AddDate(0, 2, 0))
	add(second.ID, 3, base.AddDate(0, 1, 0))
	add(other.ID, 4, base)

	svc := newStaffServiceForTest(env)
	served, err := svc.ListServedCustomers(3)
	require.NoError(t, err)
	assert.Len(t, served, 2)

	followUp, err := svc.ListFollowUpCustomers(3)
	require.NoError(t, err)
	require.Len(t, followUp, 2)
	assert.Equal(t, second.ID, followUp[0].Customer.ID)
	assert.Equal(t, first.ID, followUp[1].Customer.ID)
	assert.WithinDuration(t, base.AddDate(0, 2, 0), followUp[1].LastExamDate, time.Second)
}

func TestStaffTodayAndMonthlyStats(t *testing.T) {
	env := setupServiceTest(t, "staff_stats")
	customer := env.createCustomer(t, "openid-stats", 0)
	const staffID = uint(6)

	_, err := NewExamService(env.examRepo, env.customerRepo).AddExamRecord(ExamRecordInput{CustomerID: customer.ID, OptometristID: staffID})
	require.NoError(t, err)
	recharge := NewRechargeService(env.cfg.Payment, env.rechargeRepo, env.customerRepo)
	_, err = recharge.Recharge(StaffRechargeInput{CustomerID: customer.ID, Amount: 20000, StaffID: staffID})
	require.NoError(t, err)
	_, err = env.settlementService().Settle(context.Background(), SettleInput{CustomerID: customer.ID, DeductAmount: 1500, StaffID: staffID})
	require.NoError(t, err)

	svc := newStaffServiceForTest(env)
	today, err := svc.TodayStats(context.Background(), staffID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), today.ExamCount)
	assert.Equal(t, int64(1), today.VerifyCount)
	assert.Equal(t, int64(20000), today.RechargeAmount)
	assert.Equal(t, "15.00", today.ConsumeYuan)

	month, err := svc.MonthlyStats(context.Background(), staffID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), month.TotalRevenue)
	assert.Equal(t, int64(1), month.CustomerCount)

	recent, err := svc.RecentVerifyRecords(staffID)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(1500), recent[0].DeductAmount)
}

func newAdminServiceForTest(env *serviceTestEnv, binder StaffRoleBinder) *AdminService {
	return NewAdminService(env.staffRepo, env.customerRepo, env.examRepo, env.settlementRepo, env.statsRepo, env.auditRepo, binder)
}

func TestAdminApproveStaff(t *testing.T) {
	env := setupServiceTest(t, "admin_approve")
	admin := env.createStaff(t, "13100000001", constants.RoleAdmin, true)
	pending := env.createStaff(t, "13100000002", constants.RoleStaff, false)
	binder := newFakeRoleBinder()
	svc := newAdminServiceForTest(env, binder)
	operator := StaffAuth(admin.ID, admin.Name, constants.RoleAdmin)

	count, err := svc.PendingStaffCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.ApproveStaff(context.Background(), StaffAuth(pending.ID, "", constants.RoleStaff), "req-0", pending.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := svc.ApproveStaff(context.Background(), operator, "req-1", pending.ID, true)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, []string{constants.RoleStaff}, binder.roles[pending.ID])

	_, err = svc.ApproveStaff(context.Background(), operator, "req-2", pending.ID, true)
	assert.ErrorIs(t, err, ErrStaffAlreadyActive)
	_, err = svc.ApproveStaff(context.Background(), operator, "req-3", admin.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	logs, total, err := svc.AuditLogs(repository.StaffAuditLogListFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, constants.StaffAuditApprove, logs[0].Action)
	assert.Equal(t, "req-1", logs[0].RequestID)
	assert.Equal(t, admin.ID, logs[0].OperatorStaffID)
}

func TestAdminRejectStaffDeletesRegistration(t *testing.T) {
	env := setupServiceTest(t, "admin_reject")
	admin := env.createStaff(t, "13200000001", constants.RoleAdmin, true)
	pending := env.createStaff(t, "13200000002", constants.RoleStaff, false)
	binder := newFakeRoleBinder()
	svc := newAdminServiceForTest(env, binder)

	rejected, err := svc.ApproveStaff(context.Background(), StaffAuth(admin.ID, admin.Name, constants.RoleAdmin), "req-r", pending.ID, false)
	require.NoError(t, err)
	assert.Nil(t, rejected)
	assert.Equal(t, []uint{pending.ID}, binder.removed)

	var count int64
	require.NoError(t, env.db.Model(&models.Staff{}).Where("id = ?", pending.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	_, err = svc.ApproveStaff(context.Background(), StaffAuth(admin.ID, admin.Name, constants.RoleAdmin), "req-r2", pending.ID, true)
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestAdminSetStaffRoles(t *testing.T) {
	env := setupServiceTest(t, "admin_roles")
	admin := env.createStaff(t, "13300000001", constants.RoleAdmin, true)
	staff := env.createStaff(t, "13300000002", constants.RoleStaff, true)
	pending := env.createStaff(t, "13300000003", constants.RoleStaff, false)
	svc := newAdminServiceForTest(env, newFakeRoleBinder())
	operator := StaffAuth(admin.ID, admin.Name, constants.RoleAdmin)

	roles, err := svc.SetStaffRoles(context.Background(), operator, "req-roles", staff.ID, []string{" staff ", "", "auditor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"staff", "auditor"}, roles)

	_, err = svc.SetStaffRoles(context.Background(), operator, "req-self", admin.ID, []string{"staff"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.SetStaffRoles(context.Background(), operator, "req-pending", pending.ID, []string{"staff"})
	assert.ErrorIs(t, err, ErrStaffNotApproved)
	_, err = svc.SetStaffRoles(context.Background(), operator, "req-empty", staff.ID, []string{" "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdminStatsAndCustomers(t *testing.T) {
	env := setupServiceTest(t, "admin_stats")
	env.createStaff(t, "13400000001", constants.RoleAdmin, true)
	env.createStaff(t, "13400000002", constants.RoleStaff, false)
	first := env.createCustomer(t, "openid-admin-1", 10000)
	env.createCustomer(t, "openid-admin-2", 2550)
	_, err := NewExamService(env.examRepo, env.customerRepo).AddExamRecord(ExamRecordInput{CustomerID: first.ID, OptometristID: 1})
	require.NoError(t, err)

	svc := newAdminServiceForTest(env, nil)
	overview, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.TotalCustomers)
	assert.Equal(t, int64(1), overview.TotalStaff)
	assert.Equal(t, int64(12550), overview.TotalBalance)
	assert.Equal(t, "125.50", overview.TotalYuan)
	assert.Equal(t, int64(1), overview.TodayExams)
	assert.Equal(t, int64(1), overview.PendingStaff)

	customers, err := svc.Customers()
	require.NoError(t, err)
	require.Len(t, customers, 2)
	for _, item := range customers {
		if item.ID == first.ID {
			assert.Len(t, item.ExamRecords, 1)
		} else {
			assert.Empty(t, item.ExamRecords)
		}
	}
}
