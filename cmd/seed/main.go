package main

import (
	"time"

	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const demoStaffPassword = "staff12345"

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	now := time.Now()

	// 演示店员（已审核）
	hash, err := bcrypt.GenerateFromPassword([]byte(demoStaffPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash staff password: %v", err)
	}
	staff := models.Staff{
		Name:         "验光师小王",
		Phone:        "13900000001",
		PasswordHash: string(hash),
		StaffNo:      "S001",
		Role:         constants.RoleStaff,
		IsApproved:   true,
		ApprovedAt:   &now,
	}
	if err := models.DB.Where("phone = ?", staff.Phone).FirstOrCreate(&staff).Error; err != nil {
		stdLog.Fatalf("Failed to create staff: %v", err)
	}
	stdLog.Printf("Staff ready: %s (%s / %s)", staff.Name, staff.Phone, demoStaffPassword)

	// 演示会员：余额以元给出，入库为分
	customers := []struct {
		identity string
		phone    string
		nickName string
		balance  string
		points   int64
	}{
		{identity: "demo-openid-001", phone: "13700000001", nickName: "张三", balance: "100.00", points: 120},
		{identity: "demo-openid-002", phone: "13700000002", nickName: "李四", balance: "10.00", points: 0},
		{identity: "demo-openid-003", phone: "13700000003", nickName: "王五", balance: "0", points: 30},
	}
	for i, item := range customers {
		phone := item.phone
		customer := models.Customer{
			Identity:    item.identity,
			MemberCode:  "M" + item.phone[len(item.phone)-6:],
			Phone:       &phone,
			NickName:    item.nickName,
			Balance:     models.YuanToCents(decimal.RequireFromString(item.balance)),
			Points:      item.points,
			MemberLevel: constants.MemberLevelNormal,
			Role:        constants.RoleCustomer,
		}
		if err := models.DB.Where("identity = ?", customer.Identity).FirstOrCreate(&customer).Error; err != nil {
			stdLog.Printf("Failed to create customer %s: %v", item.identity, err)
			continue
		}
		stdLog.Printf("Customer ready: %s balance=%s", customer.DisplayName(), models.FormatCents(customer.Balance))

		examDate := now.AddDate(0, -(i+1)*4, 0)
		exam := models.ExamRecord{
			CustomerID:    customer.ID,
			RightEye:      models.EyeMeasurement{Sphere: "-2.25", Cylinder: "-0.50", Axis: 180, VA: "1.0"},
			LeftEye:       models.EyeMeasurement{Sphere: "-2.00", Cylinder: "-0.75", Axis: 175, VA: "1.0"},
			PD:            "63",
			Optometrist:   staff.Name,
			OptometristID: staff.ID,
			ExamDate:      examDate,
		}
		var examCount int64
		models.DB.Model(&models.ExamRecord{}).Where("customer_id = ?", customer.ID).Count(&examCount)
		if examCount == 0 {
			if err := models.DB.Create(&exam).Error; err != nil {
				stdLog.Printf("Failed to create exam record for %s: %v", item.identity, err)
			} else {
				models.DB.Model(&customer).Update("last_exam_date", examDate)
			}
		}

		if i == 0 {
			prize := models.LotteryRecord{
				CustomerID: customer.ID,
				Identity:   customer.Identity,
				PrizeKind:  constants.LotteryPrizeCleaning,
				Name:       "免费清洗眼镜",
				Icon:       "🧽",
				ExpireAt:   now.AddDate(0, 0, 30),
				DrawDate:   now.AddDate(0, 0, -1).Format("2006-01-02"),
			}
			if err := models.DB.Where("customer_id = ? AND draw_date = ?", prize.CustomerID, prize.DrawDate).FirstOrCreate(&prize).Error; err != nil {
				stdLog.Printf("Failed to create prize: %v", err)
			}
		}
	}

	stdLog.Printf("Seed completed")
}
