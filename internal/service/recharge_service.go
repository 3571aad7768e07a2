package service

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RechargeOffer 充值优惠档位
type RechargeOffer struct {
	ID          int    `json:"id"`
	Amount      int64  `json:"amount"`
	GiftAmount  int64  `json:"gift_amount"`
	TotalAmount int64  `json:"total_amount"`
	Description string `json:"description"`
}

// DefaultRechargeOffers 默认充值档位（金额单位：分）
func DefaultRechargeOffers() []RechargeOffer {
	tiers := []struct {
		amount string
		gift   string
		desc   string
	}{
		{"200", "0", "充200得200"},
		{"500", "100", "充500送100"},
		{"1000", "250", "充1000送250"},
		{"2000", "600", "充2000送600"},
	}
	offers := make([]RechargeOffer, 0, len(tiers))
	for i, tier := range tiers {
		amount := models.YuanToCents(decimal.RequireFromString(tier.amount))
		gift := models.YuanToCents(decimal.RequireFromString(tier.gift))
		offers = append(offers, RechargeOffer{
			ID:          i + 1,
			Amount:      amount,
			GiftAmount:  gift,
			TotalAmount: amount + gift,
			Description: tier.desc,
		})
	}
	return offers
}

// StaffRechargeInput 店员现场充值输入
type StaffRechargeInput struct {
	CustomerID    uint
	Amount        int64
	GiftAmount    *int64
	PaymentMethod string
	Remark        string
	StaffID       uint
	StaffName     string
}

// RechargeService 充值服务
type RechargeService struct {
	cfg          config.PaymentConfig
	rechargeRepo repository.RechargeRepository
	customerRepo repository.CustomerRepository
	offers       []RechargeOffer
	now          func() time.Time
}

// NewRechargeService 创建充值服务
func NewRechargeService(cfg config.PaymentConfig, rechargeRepo repository.RechargeRepository, customerRepo repository.CustomerRepository) *RechargeService {
	return &RechargeService{
		cfg:          cfg,
		rechargeRepo: rechargeRepo,
		customerRepo: customerRepo,
		offers:       DefaultRechargeOffers(),
		now:          time.Now,
	}
}

// Offers 充值档位
func (s *RechargeService) Offers() []RechargeOffer {
	out := make([]RechargeOffer, len(s.offers))
	copy(out, s.offers)
	return out
}

// Recharge 店员为会员充值，余额与充值记录同事务写入
func (s *RechargeService) Recharge(input StaffRechargeInput) (*models.RechargeRecord, error) {
	if input.Amount <= 0 {
		return nil, ErrRechargeAmountInvalid
	}
	if input.StaffID == 0 {
		return nil, ErrOperatorInvalid
	}
	method := strings.TrimSpace(input.PaymentMethod)
	if method == "" {
		method = constants.RechargeMethodCash
	}
	if !isRechargeMethodSupported(method) {
		return nil, ErrRechargeMethodInvalid
	}
	gift := s.giftFor(input.Amount)
	if input.GiftAmount != nil {
		if *input.GiftAmount < 0 {
			return nil, ErrRechargeAmountInvalid
		}
		gift = *input.GiftAmount
	}

	record := &models.RechargeRecord{
		RecordNo:       newRechargeNo(constants.RechargeRecordPrefix),
		CustomerID:     input.CustomerID,
		StaffID:        input.StaffID,
		StaffName:      strings.TrimSpace(input.StaffName),
		RechargeAmount: input.Amount,
		GiftAmount:     gift,
		TotalAmount:    input.Amount + gift,
		PaymentMethod:  method,
		Remark:         strings.TrimSpace(input.Remark),
		CreatedAt:      s.now(),
	}
	err := s.rechargeRepo.Transaction(func(tx *gorm.DB) error {
		customerRepo := s.customerRepo.WithTx(tx)
		customer, err := customerRepo.GetByIDForUpdate(input.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}
		if err := customerRepo.AddBalance(customer.ID, record.TotalAmount); err != nil {
			return err
		}
		return s.rechargeRepo.WithTx(tx).CreateRecord(record)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("recharge_completed",
		"record_no", record.RecordNo,
		"customer_id", record.CustomerID,
		"staff_id", record.StaffID,
		"total_amount", record.TotalAmount,
		"payment_method", record.PaymentMethod,
	)
	return record, nil
}

// CreateOnlineOrder 会员发起在线充值，生成待支付订单
func (s *RechargeService) CreateOnlineOrder(customerID uint, amount int64) (*models.RechargeOrder, error) {
	if amount <= 0 {
		return nil, ErrRechargeAmountInvalid
	}
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	gift := s.giftFor(amount)
	order := &models.RechargeOrder{
		OrderNo:     newRechargeNo(constants.RechargeOrderPrefix),
		CustomerID:  customer.ID,
		Amount:      amount,
		GiftAmount:  gift,
		TotalAmount: amount + gift,
		Status:      constants.RechargeOrderStatusPending,
	}
	if err := s.rechargeRepo.CreateOrder(order); err != nil {
		return nil, err
	}
	logger.Infow("recharge_order_created", "order_no", order.OrderNo, "customer_id", customer.ID, "amount", amount)
	return order, nil
}

// VerifyCallbackSecret 校验支付回调共享密钥
func (s *RechargeService) VerifyCallbackSecret(provided string) error {
	secret := strings.TrimSpace(s.cfg.CallbackSecret)
	if secret == "" {
		return ErrPaymentCallbackDisabled
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(strings.TrimSpace(provided))) != 1 {
		return ErrPaymentCallbackInvalid
	}
	return nil
}

// CompleteRechargeOrder 支付回调入账，已支付订单重复回调直接返回
func (s *RechargeService) CompleteRechargeOrder(orderNo, transactionID string) (*models.RechargeOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrRechargeOrderNotFound
	}
	var completed *models.RechargeOrder
	credited := false
	err := s.rechargeRepo.Transaction(func(tx *gorm.DB) error {
		rechargeRepo := s.rechargeRepo.WithTx(tx)
		order, err := rechargeRepo.GetOrderByNoForUpdate(orderNo)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrRechargeOrderNotFound
		}
		completed = order
		if order.Status == constants.RechargeOrderStatusPaid {
			return nil
		}
		now := s.now()
		order.Status = constants.RechargeOrderStatusPaid
		order.TransactionID = strings.TrimSpace(transactionID)
		order.PaidAt = &now
		if err := rechargeRepo.UpdateOrder(order); err != nil {
			return err
		}
		if err := s.customerRepo.WithTx(tx).AddBalance(order.CustomerID, order.TotalAmount); err != nil {
			return err
		}
		credited = true
		return rechargeRepo.CreateRecord(&models.RechargeRecord{
			RecordNo:       newRechargeNo(constants.RechargeRecordPrefix),
			CustomerID:     order.CustomerID,
			RechargeAmount: order.Amount,
			GiftAmount:     order.GiftAmount,
			TotalAmount:    order.TotalAmount,
			PaymentMethod:  constants.RechargeMethodWechatPay,
			OrderNo:        order.OrderNo,
			TransactionID:  order.TransactionID,
			CreatedAt:      now,
		})
	})
	if err != nil {
		return nil, err
	}
	if credited {
		logger.Infow("recharge_order_paid", "order_no", completed.OrderNo, "customer_id", completed.CustomerID, "total_amount", completed.TotalAmount)
	}
	return completed, nil
}

// ListRecords 会员充值记录
func (s *RechargeService) ListRecords(customerID uint, limit int) ([]models.RechargeRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.rechargeRepo.ListRecordsByCustomer(customerID, limit)
}

func (s *RechargeService) giftFor(amount int64) int64 {
	for _, offer := range s.offers {
		if offer.Amount == amount {
			return offer.GiftAmount
		}
	}
	return 0
}

func isRechargeMethodSupported(method string) bool {
	switch method {
	case constants.RechargeMethodCash, constants.RechargeMethodWechatPay, constants.RechargeMethodAlipay, constants.RechargeMethodCard:
		return true
	default:
		return false
	}
}

func newRechargeNo(prefix string) string {
	return prefix + ulid.Make().String()
}
