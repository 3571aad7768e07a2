package service

import (
	"math/rand/v2"
	"time"

	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const drawDateLayout = "2006-01-02"

// LotteryPrize 奖品目录项
type LotteryPrize struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Icon        string          `json:"icon"`
	Probability decimal.Decimal `json:"probability"`
}

// DefaultLotteryCatalog 默认奖品目录，概率之和为 1
func DefaultLotteryCatalog() []LotteryPrize {
	return []LotteryPrize{
		{ID: constants.LotteryPrizeDiscount, Name: "8折券", Icon: "🎫", Probability: decimal.RequireFromString("0.10")},
		{ID: constants.LotteryPrizeCleaning, Name: "免费清洗", Icon: "🧽", Probability: decimal.RequireFromString("0.25")},
		{ID: constants.LotteryPrizeCloth, Name: "眼镜布", Icon: "🧻", Probability: decimal.RequireFromString("0.25")},
		{ID: constants.LotteryPrizeCase, Name: "眼镜盒", Icon: "👓", Probability: decimal.RequireFromString("0.15")},
		{ID: constants.LotteryPrizePoints, Name: "10积分", Icon: "⭐", Probability: decimal.RequireFromString("0.15")},
		{ID: constants.LotteryPrizeNone, Name: "谢谢参与", Icon: "🍀", Probability: decimal.RequireFromString("0.10")},
	}
}

// TodayDraw 今日抽奖状态
type TodayDraw struct {
	HasDrawn bool                  `json:"has_drawn"`
	Record   *models.LotteryRecord `json:"record,omitempty"`
}

// LotteryService 每日抽奖
type LotteryService struct {
	cfg          config.LotteryConfig
	lotteryRepo  repository.LotteryRepository
	customerRepo repository.CustomerRepository
	catalog      []LotteryPrize
	now          func() time.Time
	roll         func() float64
}

// NewLotteryService 创建抽奖服务
func NewLotteryService(cfg config.LotteryConfig, lotteryRepo repository.LotteryRepository, customerRepo repository.CustomerRepository) *LotteryService {
	return &LotteryService{
		cfg:          cfg,
		lotteryRepo:  lotteryRepo,
		customerRepo: customerRepo,
		catalog:      DefaultLotteryCatalog(),
		now:          time.Now,
		roll:         rand.Float64,
	}
}

// Catalog 奖品目录
func (s *LotteryService) Catalog() []LotteryPrize {
	out := make([]LotteryPrize, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Draw 抽奖，每位会员每天一次
func (s *LotteryService) Draw(customerID uint) (*models.LotteryRecord, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	now := s.now()
	drawDate := now.Format(drawDateLayout)
	existing, err := s.lotteryRepo.GetByCustomerAndDate(customerID, drawDate)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrLotteryAlreadyDrawn
	}

	prize, err := s.pick()
	if err != nil {
		return nil, err
	}
	record := &models.LotteryRecord{
		CustomerID: customer.ID,
		Identity:   customer.Identity,
		PrizeKind:  prize.ID,
		Name:       prize.Name,
		Icon:       prize.Icon,
		ExpireAt:   now.AddDate(0, 0, s.prizeExpireDays()),
		DrawDate:   drawDate,
		CreatedAt:  now,
	}

	err = s.lotteryRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.lotteryRepo.WithTx(tx).Create(record); err != nil {
			return err
		}
		if prize.ID == constants.LotteryPrizePoints {
			return s.customerRepo.WithTx(tx).AddPoints(customer.ID, int64(s.pointsReward()))
		}
		return nil
	})
	if err != nil {
		// 唯一索引兜底并发重复抽奖
		if again, getErr := s.lotteryRepo.GetByCustomerAndDate(customerID, drawDate); getErr == nil && again != nil {
			return nil, ErrLotteryAlreadyDrawn
		}
		return nil, err
	}
	logger.Infow("lottery_drawn", "customer_id", customer.ID, "prize_id", prize.ID, "record_id", record.ID)
	return record, nil
}

// CheckToday 查询今日是否已抽奖
func (s *LotteryService) CheckToday(customerID uint) (*TodayDraw, error) {
	record, err := s.lotteryRepo.GetByCustomerAndDate(customerID, s.now().Format(drawDateLayout))
	if err != nil {
		return nil, err
	}
	return &TodayDraw{HasDrawn: record != nil, Record: record}, nil
}

// ListMyPrizes 查询我的奖品（不含谢谢参与）
func (s *LotteryService) ListMyPrizes(customerID uint) ([]models.LotteryRecord, error) {
	limit := s.cfg.MyPrizesLimit
	if limit <= 0 {
		limit = 50
	}
	records, err := s.lotteryRepo.ListByCustomer(customerID, limit)
	if err != nil {
		return nil, err
	}
	prizes := make([]models.LotteryRecord, 0, len(records))
	for _, record := range records {
		if record.PrizeKind == constants.LotteryPrizeNone {
			continue
		}
		prizes = append(prizes, record)
	}
	return prizes, nil
}

// UsePrize 会员自助使用奖品
func (s *LotteryService) UsePrize(customerID, prizeID uint) (*models.LotteryRecord, error) {
	var used *models.LotteryRecord
	err := s.lotteryRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.lotteryRepo.WithTx(tx)
		record, err := repo.GetByIDForUpdate(prizeID)
		if err != nil {
			return err
		}
		if record == nil || record.CustomerID != customerID {
			return ErrPrizeNotFound
		}
		if record.IsUsed {
			return ErrPrizeAlreadyUsed
		}
		now := s.now()
		if !now.Before(record.ExpireAt) {
			return ErrPrizeExpired
		}
		if err := repo.MarkUsed(record.ID, now); err != nil {
			return err
		}
		record.IsUsed = true
		record.UsedAt = &now
		used = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return used, nil
}

// pick 按累计概率抽取奖品
func (s *LotteryService) pick() (LotteryPrize, error) {
	if len(s.catalog) == 0 {
		return LotteryPrize{}, ErrLotteryCatalogEmpty
	}
	target := decimal.NewFromFloat(s.roll())
	cumulative := decimal.Zero
	for _, prize := range s.catalog {
		cumulative = cumulative.Add(prize.Probability)
		if target.LessThan(cumulative) {
			return prize, nil
		}
	}
	return s.catalog[len(s.catalog)-1], nil
}

func (s *LotteryService) prizeExpireDays() int {
	if s.cfg.PrizeExpireDays <= 0 {
		return 3
	}
	return s.cfg.PrizeExpireDays
}

func (s *LotteryService) pointsReward() int {
	if s.cfg.PointsReward <= 0 {
		return 10
	}
	return s.cfg.PointsReward
}
