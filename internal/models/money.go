package models

import (
	"github.com/shopspring/decimal"
)

// 金额统一以分为单位存储，展示时换算为元

var centsPerYuan = decimal.NewFromInt(100)

// CentsToYuan 分转元
func CentsToYuan(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(centsPerYuan).Round(2)
}

// YuanToCents 元转分（四舍五入到分）
func YuanToCents(yuan decimal.Decimal) int64 {
	return yuan.Mul(centsPerYuan).Round(0).IntPart()
}

// FormatCents 以两位小数格式展示金额
func FormatCents(cents int64) string {
	return CentsToYuan(cents).StringFixed(2)
}
