package public

import "github.com/optical-member/internal/provider"

// Handler 会员端与公开接口处理器入口
// 说明：该处理器仅用于会员、游客与支付回调 API。
type Handler struct {
	*provider.Container
}

// New 创建会员端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
