package public

import (
	handlershared "github.com/optical-member/internal/http/handlers/shared"
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

var customerCommonErrorRules = []mappedHandlerError{
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrInvalidInput, Code: response.CodeBadRequest, Key: "error.bad_request"},
}

var redemptionIssueErrorRules = []mappedHandlerError{
	{Target: service.ErrRedemptionTokenLimit, Code: response.CodeTooManyRequests, Key: "error.redemption_token_limit"},
}

var customerLoginErrorRules = []mappedHandlerError{
	{Target: service.ErrPhoneInvalid, Code: response.CodeBadRequest, Key: "error.phone_invalid"},
	{Target: service.ErrVerifyCodeInvalid, Code: response.CodeBadRequest, Key: "error.verify_code_invalid"},
	{Target: service.ErrIdentityInvalid, Code: response.CodeBadRequest, Key: "error.identity_invalid"},
}

var paymentPasswordErrorRules = []mappedHandlerError{
	{Target: service.ErrPaymentPasswordFormat, Code: response.CodeBadRequest, Key: "error.payment_password_format"},
	{Target: service.ErrPaymentPasswordMismatch, Code: response.CodeBadRequest, Key: "error.payment_password_mismatch"},
}

var lotteryErrorRules = []mappedHandlerError{
	{Target: service.ErrLotteryAlreadyDrawn, Code: response.CodeLotteryDrawn, Key: "error.lottery_already_drawn"},
	{Target: service.ErrLotteryCatalogEmpty, Code: response.CodeInternal, Key: "error.lottery_catalog_empty"},
	{Target: service.ErrPrizeNotFound, Code: response.CodeNotFound, Key: "error.prize_not_found"},
	{Target: service.ErrPrizeExpired, Code: response.CodePrizeUnavailable, Key: "error.prize_expired"},
	{Target: service.ErrPrizeAlreadyUsed, Code: response.CodePrizeUnavailable, Key: "error.prize_already_used"},
}

var rechargeErrorRules = []mappedHandlerError{
	{Target: service.ErrRechargeAmountInvalid, Code: response.CodeBadRequest, Key: "error.recharge_amount_invalid"},
	{Target: service.ErrRechargeOrderNotFound, Code: response.CodeNotFound, Key: "error.recharge_order_not_found"},
	{Target: service.ErrRechargeOrderMismatch, Code: response.CodeBadRequest, Key: "error.recharge_order_mismatch"},
	{Target: service.ErrPaymentCallbackInvalid, Code: response.CodeForbidden, Key: "error.payment_callback_invalid"},
	{Target: service.ErrPaymentCallbackDisabled, Code: response.CodeForbidden, Key: "error.payment_callback_disabled"},
}

var recordErrorRules = []mappedHandlerError{
	{Target: service.ErrSelfTestInvalid, Code: response.CodeBadRequest, Key: "error.self_test_invalid"},
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, fallbackCode, fallbackKey)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	return handlershared.ConcatMappedErrors(groups...)
}

func respondCustomerError(c *gin.Context, err error, fallbackKey string) {
	respondWithMappedError(c, err, customerCommonErrorRules, response.CodeInternal, fallbackKey)
}
