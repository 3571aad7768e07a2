package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/optical-member/internal/authz"
	"github.com/optical-member/internal/cache"
	"github.com/optical-member/internal/config"
	adminhandlers "github.com/optical-member/internal/http/handlers/admin"
	publichandlers "github.com/optical-member/internal/http/handlers/public"
	staffhandlers "github.com/optical-member/internal/http/handlers/staff"
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（会员端 / 店员端 / 管理端）
	publicHandler := publichandlers.New(c)
	staffHandler := staffhandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "om"
	}
	redisClient := cache.Client()
	customerLoginRule := RuleFromConfig(fmt.Sprintf("%s:rate:customer_login", redisPrefix), cfg.Security.LoginRateLimit)
	staffLoginRule := RuleFromConfig(fmt.Sprintf("%s:rate:staff_login", redisPrefix), cfg.Security.LoginRateLimit)
	scanRule := RuleFromConfig(fmt.Sprintf("%s:rate:scan", redisPrefix), cfg.Security.ScanRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 会员认证
		auth := apiV1.Group("/auth/customer")
		{
			auth.POST("/wechat-login", RateLimitMiddleware(redisClient, customerLoginRule, KeyByIPAndJSONField("openid")), publicHandler.WechatLogin)
			auth.POST("/phone-login", RateLimitMiddleware(redisClient, customerLoginRule, KeyByIPAndJSONField("phone")), publicHandler.PhoneLogin)
		}

		// 公开接口
		apiV1.GET("/lottery/catalog", publicHandler.GetLotteryCatalog)
		apiV1.GET("/recharge/offers", publicHandler.GetRechargeOffers)
		apiV1.POST("/payments/recharge/callback", publicHandler.RechargeCallback)

		// 会员接口（需鉴权）
		customer := apiV1.Group("")
		customer.Use(CustomerJWTAuthMiddleware(cfg.CustomerJWT.SecretKey, c.CustomerAuthService))
		{
			customer.POST("/redemption/tokens", publicHandler.IssueRedemptionToken)

			customer.GET("/customer/profile", publicHandler.GetProfile)
			customer.PUT("/customer/profile", publicHandler.UpdateProfile)
			customer.GET("/customer/points", publicHandler.GetPoints)
			customer.GET("/customer/balance", publicHandler.GetBalance)
			customer.PUT("/customer/payment-password", publicHandler.SetPaymentPassword)
			customer.POST("/customer/payment-password/verify", publicHandler.VerifyPaymentPassword)

			customer.POST("/lottery/draw", publicHandler.DrawLottery)
			customer.GET("/lottery/today", publicHandler.CheckTodayLottery)
			customer.GET("/lottery/prizes", publicHandler.ListMyPrizes)
			customer.POST("/lottery/prizes/:id/use", publicHandler.UsePrize)

			customer.POST("/recharge/orders", publicHandler.CreateRechargeOrder)
			customer.GET("/recharge/records", publicHandler.ListRechargeRecords)

			customer.GET("/exam-records", publicHandler.ListMyExamRecords)
			customer.POST("/self-tests", publicHandler.SaveSelfTest)
			customer.GET("/self-tests/latest", publicHandler.LatestSelfTest)
		}

		// 店员认证
		staffAuth := apiV1.Group("/staff/auth")
		{
			staffAuth.GET("/captcha", staffHandler.GetCaptcha)
			staffAuth.POST("/register", staffHandler.Register)
			staffAuth.POST("/login", RateLimitMiddleware(redisClient, staffLoginRule, KeyByIPAndJSONField("phone")), staffHandler.Login)
			staffAuth.POST("/wechat-login", RateLimitMiddleware(redisClient, staffLoginRule, KeyByIPAndJSONField("openid")), staffHandler.WechatLogin)
		}

		// 店员与管理端共用鉴权链：JWT -> RBAC
		staffJWT := StaffJWTAuthMiddleware(cfg.JWT.SecretKey, c.StaffAuthService)
		rbac := StaffRBACMiddleware(c.AuthzService)

		staff := apiV1.Group("/staff")
		staff.Use(staffJWT, rbac)
		{
			staff.GET("/profile", staffHandler.GetProfile)
			staff.PUT("/password", staffHandler.ChangePassword)

			// 扫码核销
			staff.POST("/redemption/validate", RateLimitMiddleware(redisClient, scanRule, KeyByStaffID), staffHandler.ValidateRedemption)
			staff.POST("/redemption/settle", staffHandler.Settle)

			// 会员查询
			staff.GET("/customers/search", staffHandler.SearchCustomer)
			staff.GET("/customers/served", staffHandler.ListServedCustomers)
			staff.GET("/customers/follow-up", staffHandler.ListFollowUpCustomers)
			staff.GET("/customers/:id", staffHandler.GetCustomer)
			staff.GET("/customers/:id/recharges", staffHandler.ListCustomerRechargeRecords)

			// 工作台
			staff.GET("/stats/today", staffHandler.TodayStats)
			staff.GET("/stats/monthly", staffHandler.MonthlyStats)
			staff.GET("/verify-records/recent", staffHandler.RecentVerifyRecords)
			staff.POST("/exam-records", staffHandler.AddExamRecord)
			staff.POST("/recharges", staffHandler.Recharge)
		}

		admin := apiV1.Group("/admin")
		admin.Use(staffJWT, rbac)
		{
			admin.GET("/stats", adminHandler.GetStats)

			// 店员管理
			admin.GET("/staff", adminHandler.ListStaff)
			admin.GET("/staff/pending", adminHandler.ListPendingStaff)
			admin.GET("/staff/pending/count", adminHandler.CountPendingStaff)
			admin.POST("/staff/:id/approve", adminHandler.ApproveStaff)
			admin.GET("/staff/:id/roles", adminHandler.GetStaffRoles)
			admin.PUT("/staff/:id/roles", adminHandler.SetStaffRoles)

			// 业务数据
			admin.GET("/customers", adminHandler.ListCustomers)
			admin.GET("/exam-records", adminHandler.ListExamRecords)
			admin.GET("/settlement-intents", adminHandler.ListSettlementIntents)
			admin.GET("/verify-records", adminHandler.ListVerifyRecords)

			// 权限
			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/roles/:role/policies", adminHandler.GrantAuthzPolicy)
			admin.GET("/authz/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildPermissionCatalog(r))
			})
			admin.GET("/audit-logs", adminHandler.ListStaffAuditLogs)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := models.Ping(); err != nil {
			status = "degraded"
		}
		c.JSON(200, gin.H{"status": status})
	})

	return r
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !isAuthorizedPath(item.Path) {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" && segments[0] != "staff" {
		return segments[0]
	}
	return segments[0] + "." + segments[1]
}

// isAuthorizedPath 受 RBAC 约束的路由（店员公开认证接口除外）
func isAuthorizedPath(path string) bool {
	if strings.HasPrefix(path, "/api/v1/staff/auth/") {
		return false
	}
	return strings.HasPrefix(path, "/api/v1/staff/") || strings.HasPrefix(path, "/api/v1/admin/")
}
