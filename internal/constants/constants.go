package constants

// 角色常量
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// 会员等级常量
const (
	MemberLevelNormal = "普通会员"
)

// 核销意图状态常量
const (
	SettlementStatusPending   = "pending"
	SettlementStatusCommitted = "committed"
	SettlementStatusFailed    = "failed"
)

// 充值支付方式常量
const (
	RechargeMethodCash      = "cash"
	RechargeMethodWechatPay = "wechat_pay"
	RechargeMethodAlipay    = "alipay"
	RechargeMethodCard      = "card"
)

// 在线充值订单状态常量
const (
	RechargeOrderStatusPending = "pending"
	RechargeOrderStatusPaid    = "paid"
)

// 抽奖奖品常量
const (
	LotteryPrizeDiscount = 1
	LotteryPrizeCleaning = 2
	LotteryPrizeCloth    = 3
	LotteryPrizeCase     = 4
	LotteryPrizePoints   = 5
	LotteryPrizeNone     = 6
)

// 自测眼别常量
const (
	EyeLeft  = "left"
	EyeRight = "right"
	EyeBoth  = "both"
)

// 编号前缀常量
const (
	SettlementReferencePrefix = "STL"
	RechargeOrderPrefix       = "OPT"
	RechargeRecordPrefix      = "RCG"
)

// 队列常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskSettlementCommitted = "settlement:committed"
	TaskRedemptionPurge     = "redemption:purge_tokens"
	TaskSettlementReconcile = "settlement:reconcile"
)

// 店员审计动作常量
const (
	StaffAuditApprove  = "approve"
	StaffAuditReject   = "reject"
	StaffAuditSetRoles = "set_roles"
)
