package admin

import "github.com/optical-member/internal/provider"

// Handler 管理后台接口处理器入口
// 说明：该处理器仅用于 /admin 路由，调用前已完成店员鉴权与角色校验。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
