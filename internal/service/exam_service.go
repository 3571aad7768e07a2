package service

import (
	"strings"
	"time"

	"github.com/optical-member/internal/constants"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/models"
	"github.com/optical-member/internal/repository"

	"gorm.io/gorm"
)

// EyeMeasurementInput 单眼验光数据输入
type EyeMeasurementInput struct {
	Sphere   string `validate:"omitempty,diopter"`
	Cylinder string `validate:"omitempty,diopter"`
	Axis     int    `validate:"gte=0,lte=180"`
	VA       string `validate:"max=16"`
}

// ExamRecordInput 店员录入验光记录
type ExamRecordInput struct {
	CustomerID    uint `validate:"required"`
	RightEye      EyeMeasurementInput
	LeftEye       EyeMeasurementInput
	PD            string `validate:"max=16"`
	Add           string `validate:"omitempty,diopter"`
	Note          string `validate:"max=500"`
	Optometrist   string `validate:"max=64"`
	OptometristID uint   `validate:"required"`
	ExamDate      time.Time
}

// SelfTestInput 视力自测结果
type SelfTestInput struct {
	Eye         string  `validate:"required,oneof=left right both"`
	VisionLevel string  `validate:"required,max=16"`
	CorrectRate float64 `validate:"gte=0,lte=100"`
	TestTime    int     `validate:"gte=0"`
	TestDate    time.Time
}

// ExamService 验光与自测记录
type ExamService struct {
	examRepo     repository.ExamRepository
	customerRepo repository.CustomerRepository
	now          func() time.Time
}

// NewExamService 创建验光记录服务
func NewExamService(examRepo repository.ExamRepository, customerRepo repository.CustomerRepository) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		customerRepo: customerRepo,
		now:          time.Now,
	}
}

// AddExamRecord 录入验光记录并更新会员最后验光时间
func (s *ExamService) AddExamRecord(input ExamRecordInput) (*models.ExamRecord, error) {
	if err := validateStruct(input, ErrExamRecordInvalid); err != nil {
		return nil, err
	}
	now := s.now()
	examDate := input.ExamDate
	if examDate.IsZero() {
		examDate = now
	}
	record := &models.ExamRecord{
		CustomerID:    input.CustomerID,
		RightEye:      toEyeMeasurement(input.RightEye),
		LeftEye:       toEyeMeasurement(input.LeftEye),
		PD:            strings.TrimSpace(input.PD),
		Add:           strings.TrimSpace(input.Add),
		Note:          strings.TrimSpace(input.Note),
		Optometrist:   strings.TrimSpace(input.Optometrist),
		OptometristID: input.OptometristID,
		ExamDate:      examDate,
		CreatedAt:     now,
	}
	err := s.examRepo.Transaction(func(tx *gorm.DB) error {
		customerRepo := s.customerRepo.WithTx(tx)
		customer, err := customerRepo.GetByID(input.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}
		if err := s.examRepo.WithTx(tx).CreateExamRecord(record); err != nil {
			return err
		}
		return customerRepo.UpdateFields(customer.ID, map[string]interface{}{"last_exam_date": examDate})
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("exam_record_created", "record_id", record.ID, "customer_id", record.CustomerID, "optometrist_id", record.OptometristID)
	return record, nil
}

// ListExamRecords 会员验光记录，按验光日期倒序
func (s *ExamService) ListExamRecords(customerID uint) ([]models.ExamRecord, error) {
	return s.examRepo.ListByCustomer(customerID)
}

// SaveSelfTest 保存视力自测结果
func (s *ExamService) SaveSelfTest(customerID uint, input SelfTestInput) (*models.SelfTestRecord, error) {
	input.Eye = strings.ToLower(strings.TrimSpace(input.Eye))
	if err := validateStruct(input, ErrSelfTestInvalid); err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	now := s.now()
	testDate := input.TestDate
	if testDate.IsZero() {
		testDate = now
	}
	record := &models.SelfTestRecord{
		CustomerID:  customer.ID,
		Eye:         normalizeEye(input.Eye),
		VisionLevel: strings.TrimSpace(input.VisionLevel),
		CorrectRate: input.CorrectRate,
		TestTime:    input.TestTime,
		TestDate:    testDate,
		CreatedAt:   now,
	}
	if err := s.examRepo.CreateSelfTest(record); err != nil {
		return nil, err
	}
	return record, nil
}

// LatestSelfTest 最近一次自测结果
func (s *ExamService) LatestSelfTest(customerID uint) (*models.SelfTestRecord, error) {
	return s.examRepo.GetLatestSelfTest(customerID)
}

func toEyeMeasurement(input EyeMeasurementInput) models.EyeMeasurement {
	return models.EyeMeasurement{
		Sphere:   strings.TrimSpace(input.Sphere),
		Cylinder: strings.TrimSpace(input.Cylinder),
		Axis:     input.Axis,
		VA:       strings.TrimSpace(input.VA),
	}
}

func normalizeEye(eye string) string {
	switch eye {
	case constants.EyeLeft, constants.EyeRight:
		return eye
	default:
		return constants.EyeBoth
	}
}
