package service

import "errors"

// 通用错误
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("weak password")
)

// 验证码错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
)

// 会员错误
var (
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrPhoneInvalid            = errors.New("phone invalid")
	ErrVerifyCodeInvalid       = errors.New("verify code invalid")
	ErrIdentityInvalid         = errors.New("identity invalid")
	ErrPaymentPasswordFormat   = errors.New("payment password must be 6 digits")
	ErrPaymentPasswordMismatch = errors.New("payment password mismatch")
)

// 店员错误
var (
	ErrStaffNotFound      = errors.New("staff not found")
	ErrStaffUnbound       = errors.New("no staff bound to identity")
	ErrStaffPhoneExists   = errors.New("staff phone already registered")
	ErrStaffNotApproved   = errors.New("staff not approved")
	ErrStaffAlreadyActive = errors.New("staff already approved")
)

// 核销码与核销错误
var (
	ErrRedemptionPayloadInvalid    = errors.New("redemption payload invalid")
	ErrRedemptionTokenExpired      = errors.New("redemption token expired")
	ErrRedemptionTokenNotFound     = errors.New("redemption token not found")
	ErrRedemptionTokenLimit        = errors.New("too many active redemption tokens")
	ErrSettlementAmountInvalid     = errors.New("settlement amount invalid")
	ErrOperatorInvalid             = errors.New("settlement operator invalid")
	ErrSettlementInProgress        = errors.New("settlement in progress")
	ErrSettlementReferenceConflict = errors.New("settlement reference conflict")
	ErrInsufficientBalance         = errors.New("insufficient balance")
	ErrPrizeNotFound               = errors.New("prize not found")
	ErrPrizeExpired                = errors.New("prize expired")
	ErrPrizeAlreadyUsed            = errors.New("prize already used")
)

// 抽奖错误
var (
	ErrLotteryAlreadyDrawn = errors.New("lottery already drawn today")
	ErrLotteryCatalogEmpty = errors.New("lottery catalog empty")
)

// 充值错误
var (
	ErrRechargeAmountInvalid   = errors.New("recharge amount invalid")
	ErrRechargeMethodInvalid   = errors.New("recharge payment method invalid")
	ErrRechargeOrderNotFound   = errors.New("recharge order not found")
	ErrRechargeOrderMismatch   = errors.New("recharge order amount mismatch")
	ErrPaymentCallbackInvalid  = errors.New("payment callback signature invalid")
	ErrPaymentCallbackDisabled = errors.New("payment callback disabled")
)

// 验光记录错误
var (
	ErrExamRecordInvalid = errors.New("exam record invalid")
	ErrSelfTestInvalid   = errors.New("self test record invalid")
)
