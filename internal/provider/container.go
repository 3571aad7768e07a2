package provider

import (
	"github.com/optical-member/internal/authz"
	"github.com/optical-member/internal/cache"
	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/queue"
	"github.com/optical-member/internal/repository"
	"github.com/optical-member/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	CustomerRepo        repository.CustomerRepository
	StaffRepo           repository.StaffRepository
	RedemptionTokenRepo repository.RedemptionTokenRepository
	LotteryRepo         repository.LotteryRepository
	SettlementRepo      repository.SettlementRepository
	RechargeRepo        repository.RechargeRepository
	ExamRepo            repository.ExamRepository
	StatsRepo           repository.StatsRepository
	StaffAuditLogRepo   repository.StaffAuditLogRepository

	// Services
	AuthzService        *authz.Service
	CaptchaService      *service.CaptchaService
	CustomerAuthService *service.CustomerAuthService
	CustomerService     *service.CustomerService
	StaffAuthService    *service.StaffAuthService
	StaffService        *service.StaffService
	AdminService        *service.AdminService
	RedemptionService   *service.RedemptionService
	SettlementService   *service.SettlementService
	LotteryService      *service.LotteryService
	RechargeService     *service.RechargeService
	ExamService         *service.ExamService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	// 3. 同步已审核店员的基础角色
	c.syncStaffRoles()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.StaffRepo = repository.NewStaffRepository(db)
	c.RedemptionTokenRepo = repository.NewRedemptionTokenRepository(db)
	c.LotteryRepo = repository.NewLotteryRepository(db)
	c.SettlementRepo = repository.NewSettlementRepository(db)
	c.RechargeRepo = repository.NewRechargeRepository(db)
	c.ExamRepo = repository.NewExamRepository(db)
	c.StatsRepo = repository.NewStatsRepository(db)
	c.StaffAuditLogRepo = repository.NewStaffAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.CustomerAuthService = service.NewCustomerAuthService(c.Config, c.CustomerRepo)
	c.CustomerService = service.NewCustomerService(c.CustomerRepo)
	c.StaffAuthService = service.NewStaffAuthService(c.Config, c.StaffRepo, c.CaptchaService)
	c.StaffService = service.NewStaffService(c.Config.Redemption, c.CustomerRepo, c.ExamRepo, c.SettlementRepo, c.StatsRepo)
	c.AdminService = service.NewAdminService(c.StaffRepo, c.CustomerRepo, c.ExamRepo, c.SettlementRepo, c.StatsRepo, c.StaffAuditLogRepo, c.AuthzService)
	c.RedemptionService = service.NewRedemptionService(c.Config.Redemption, c.RedemptionTokenRepo, c.CustomerRepo, c.LotteryRepo)
	c.SettlementService = service.NewSettlementService(c.SettlementRepo, c.CustomerRepo, c.LotteryRepo, c.QueueClient)
	c.LotteryService = service.NewLotteryService(c.Config.Lottery, c.LotteryRepo, c.CustomerRepo)
	c.RechargeService = service.NewRechargeService(c.Config.Payment, c.RechargeRepo, c.CustomerRepo)
	c.ExamService = service.NewExamService(c.ExamRepo, c.CustomerRepo)
}

func (c *Container) syncStaffRoles() {
	staffList, err := c.StaffRepo.ListByApproval(true)
	if err != nil {
		logger.Warnw("provider_list_approved_staff_failed", "error", err)
		return
	}
	for _, staff := range staffList {
		if err := c.AuthzService.EnsureStaffRole(staff.ID, staff.Role); err != nil {
			logger.Warnw("provider_sync_staff_role_failed", "staff_id", staff.ID, "role", staff.Role, "error", err)
		}
	}
}
