package widget

import "github.com/checkout-widget/internal/provider"

// Handler 组件托管页面与组件 API 处理器
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
