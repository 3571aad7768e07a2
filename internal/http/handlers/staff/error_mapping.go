package staff

import (
	"errors"

	handlershared "github.com/optical-member/internal/http/handlers/shared"
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/i18n"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

var captchaErrorRules = []mappedHandlerError{
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid"},
	{Target: service.ErrCaptchaConfigInvalid, Code: response.CodeInternal, Key: "error.captcha_config_invalid"},
}

var staffAuthErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidInput, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrPhoneInvalid, Code: response.CodeBadRequest, Key: "error.phone_invalid"},
	{Target: service.ErrStaffPhoneExists, Code: response.CodeConflict, Key: "error.staff_phone_exists"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.login_invalid"},
	{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.password_old_invalid"},
	{Target: service.ErrStaffNotApproved, Code: response.CodeStaffNotApproved, Key: "error.staff_not_approved"},
	{Target: service.ErrStaffNotFound, Code: response.CodeNotFound, Key: "error.staff_not_found"},
	{Target: service.ErrStaffUnbound, Code: response.CodeNotFound, Key: "error.staff_unbound"},
	{Target: service.ErrIdentityInvalid, Code: response.CodeBadRequest, Key: "error.bad_request"},
}

var redemptionErrorRules = []mappedHandlerError{
	{Target: service.ErrRedemptionPayloadInvalid, Code: response.CodeBadRequest, Key: "error.redemption_payload_invalid"},
	{Target: service.ErrRedemptionTokenExpired, Code: response.CodeRedemptionExpired, Key: "error.redemption_token_expired"},
	{Target: service.ErrRedemptionTokenNotFound, Code: response.CodeRedemptionNotFound, Key: "error.redemption_token_not_found"},
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
}

var settlementErrorRules = []mappedHandlerError{
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrSettlementAmountInvalid, Code: response.CodeBadRequest, Key: "error.settlement_amount_invalid"},
	{Target: service.ErrOperatorInvalid, Code: response.CodeBadRequest, Key: "error.settlement_operator_invalid"},
	{Target: service.ErrInsufficientBalance, Code: response.CodeInsufficientBalance, Key: "error.insufficient_balance"},
	{Target: service.ErrPrizeNotFound, Code: response.CodePrizeUnavailable, Key: "error.prize_not_found"},
	{Target: service.ErrPrizeExpired, Code: response.CodePrizeUnavailable, Key: "error.prize_expired"},
	{Target: service.ErrSettlementInProgress, Code: response.CodeSettlementBusy, Key: "error.settlement_in_progress"},
	{Target: service.ErrSettlementReferenceConflict, Code: response.CodeConflict, Key: "error.settlement_reference_conflict"},
}

var customerLookupErrorRules = []mappedHandlerError{
	{Target: service.ErrPhoneInvalid, Code: response.CodeBadRequest, Key: "error.phone_invalid"},
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
}

var workbenchErrorRules = []mappedHandlerError{
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrExamRecordInvalid, Code: response.CodeBadRequest, Key: "error.exam_record_invalid"},
	{Target: service.ErrRechargeAmountInvalid, Code: response.CodeBadRequest, Key: "error.recharge_amount_invalid"},
	{Target: service.ErrRechargeMethodInvalid, Code: response.CodeBadRequest, Key: "error.recharge_method_invalid"},
	{Target: service.ErrOperatorInvalid, Code: response.CodeBadRequest, Key: "error.settlement_operator_invalid"},
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, fallbackCode, fallbackKey)
}

// respondPasswordError 弱密码按策略参数返回本地化提示
func respondPasswordError(c *gin.Context, err error) bool {
	if !errors.Is(err, service.ErrWeakPassword) {
		return false
	}
	locale := i18n.ResolveLocale(c)
	if perr, ok := err.(interface {
		Key() string
		Args() []interface{}
	}); ok {
		respondErrorWithMsg(c, response.CodeBadRequest, i18n.Sprintf(locale, perr.Key(), perr.Args()...), nil)
		return true
	}
	respondError(c, response.CodeBadRequest, "error.password_weak", nil)
	return true
}
