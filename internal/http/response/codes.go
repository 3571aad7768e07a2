package response

const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternal        = 500
)

// 业务错误码，客户端按码区分核销与余额类失败
const (
	CodeRedemptionExpired   = 1001
	CodeRedemptionNotFound  = 1002
	CodeInsufficientBalance = 1003
	CodePrizeUnavailable    = 1004
	CodeSettlementBusy      = 1005
	CodeLotteryDrawn        = 1101
	CodeStaffNotApproved    = 1201
)
