package staff

import "github.com/optical-member/internal/provider"

// Handler 店员工作台接口处理器入口
// 说明：扫码核销、会员查询、验光录入与现场充值。
type Handler struct {
	*provider.Container
}

// New 创建店员处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
