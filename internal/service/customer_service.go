package service

import (
	"regexp"
	"strings"

	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var paymentPasswordPattern = regexp.MustCompile(`^\d{6}$`)

// UpdateProfileInput 会员资料更新
type UpdateProfileInput struct {
	NickName  *string
	AvatarURL *string
	Gender    *int
	Age       *int
}

// CustomerBalance 会员余额
type CustomerBalance struct {
	Balance     int64  `json:"balance"`
	BalanceYuan string `json:"balance_yuan"`
}

// CustomerService 会员资料与支付密码
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService 创建会员服务
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// GetProfile 获取会员资料
func (s *CustomerService) GetProfile(customerID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// UpdateProfile 更新会员资料
func (s *CustomerService) UpdateProfile(customerID uint, input UpdateProfileInput) (*models.Customer, error) {
	customer, err := s.GetProfile(customerID)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if input.NickName != nil {
		nick := strings.TrimSpace(*input.NickName)
		if nick == "" || len([]rune(nick)) > 64 {
			return nil, ErrInvalidInput
		}
		fields["nick_name"] = nick
	}
	if input.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}
	if input.Gender != nil {
		if *input.Gender < 0 || *input.Gender > 2 {
			return nil, ErrInvalidInput
		}
		fields["gender"] = *input.Gender
	}
	if input.Age != nil {
		if *input.Age < 0 || *input.Age > 150 {
			return nil, ErrInvalidInput
		}
		fields["age"] = *input.Age
	}
	if len(fields) == 0 {
		return customer, nil
	}
	if err := s.customerRepo.UpdateFields(customer.ID, fields); err != nil {
		return nil, err
	}
	return s.GetProfile(customer.ID)
}

// GetPoints 获取积分
func (s *CustomerService) GetPoints(customerID uint) (int64, error) {
	customer, err := s.GetProfile(customerID)
	if err != nil {
		return 0, err
	}
	return customer.Points, nil
}

// GetBalance 获取余额
func (s *CustomerService) GetBalance(customerID uint) (*CustomerBalance, error) {
	customer, err := s.GetProfile(customerID)
	if err != nil {
		return nil, err
	}
	return &CustomerBalance{
		Balance:     customer.Balance,
		BalanceYuan: models.FormatCents(customer.Balance),
	}, nil
}

// SetPaymentPassword 设置或修改支付密码，已设置时需校验旧密码
func (s *CustomerService) SetPaymentPassword(customerID uint, oldPassword, newPassword string) error {
	customer, err := s.GetProfile(customerID)
	if err != nil {
		return err
	}
	if !paymentPasswordPattern.MatchString(newPassword) {
		return ErrPaymentPasswordFormat
	}
	if customer.HasPaymentPassword {
		if err := bcrypt.CompareHashAndPassword([]byte(customer.PaymentPasswordHash), []byte(oldPassword)); err != nil {
			return ErrPaymentPasswordMismatch
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.customerRepo.UpdateFields(customer.ID, map[string]interface{}{
		"payment_password_hash": string(hash),
		"has_payment_password":  true,
	}); err != nil {
		return err
	}
	logger.Infow("customer_payment_password_set", "customer_id", customer.ID)
	return nil
}

// VerifyPaymentPassword 校验支付密码，未设置时直接通过
func (s *CustomerService) VerifyPaymentPassword(customerID uint, password string) error {
	customer, err := s.GetProfile(customerID)
	if err != nil {
		return err
	}
	if !customer.HasPaymentPassword {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(customer.PaymentPasswordHash), []byte(password)); err != nil {
		return ErrPaymentPasswordMismatch
	}
	return nil
}
