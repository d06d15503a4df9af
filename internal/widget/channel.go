package widget

import (
	"errors"
	"sync"

	"github.com/checkout-widget/internal/constants"

	"github.com/samber/lo"
)

var (
	ErrChannelGroupInvalid = errors.New("channel group invalid")
	ErrChannelNotOffered   = errors.New("channel not offered in group")
)

// Selection 当前渠道选择；Method 为空表示未选择
type Selection struct {
	Group  string `json:"group"`
	Method string `json:"method,omitempty"`
}

// HasMethod 是否已选择具体渠道
func (s Selection) HasMethod() bool {
	return s.Method != ""
}

// ChannelSelector 渠道选择状态机。
// 每个分组各自记住已选渠道，同一时刻只有 activeGroup 对应的面板可交互。
type ChannelSelector struct {
	mu          sync.Mutex
	ewallets    []string
	banks       []string
	activeGroup string
	methods     map[string]string
	listeners   []func(Selection)
}

// NewChannelSelector 按配置创建选择器，初始为默认分组且未选渠道
func NewChannelSelector(cfg Configuration) *ChannelSelector {
	s := &ChannelSelector{}
	s.Reset(cfg)
	return s
}

// Reset 重新应用配置：回到默认分组并清空所有已选渠道
func (s *ChannelSelector) Reset(cfg Configuration) {
	s.mu.Lock()
	s.ewallets = append([]string(nil), cfg.EwalletChannels...)
	s.banks = append([]string(nil), cfg.BankChannels...)
	s.activeGroup = normalizeChannelGroup(cfg.DefaultGroup)
	s.methods = make(map[string]string, 2)
	current := s.currentLocked()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, current)
}

// SelectGroup 切换分组，不清除另一分组已选的渠道
func (s *ChannelSelector) SelectGroup(group string) error {
	if !isChannelGroup(group) {
		return ErrChannelGroupInvalid
	}
	s.mu.Lock()
	s.activeGroup = group
	current := s.currentLocked()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, current)
	return nil
}

// SelectMethod 在指定分组内选择渠道，value 必须是该分组配置中的渠道
func (s *ChannelSelector) SelectMethod(group, value string) error {
	if !isChannelGroup(group) {
		return ErrChannelGroupInvalid
	}
	s.mu.Lock()
	if !lo.Contains(s.offeredLocked(group), value) {
		s.mu.Unlock()
		return ErrChannelNotOffered
	}
	s.methods[group] = value
	current := s.currentLocked()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, current)
	return nil
}

// CurrentSelection 返回当前分组及其已选渠道
func (s *ChannelSelector) CurrentSelection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// MethodFor 返回指定分组记住的渠道
func (s *ChannelSelector) MethodFor(group string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.methods[group]
}

// Subscribe 订阅状态变化，渲染层据此刷新
func (s *ChannelSelector) Subscribe(fn func(Selection)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *ChannelSelector) currentLocked() Selection {
	return Selection{Group: s.activeGroup, Method: s.methods[s.activeGroup]}
}

func (s *ChannelSelector) offeredLocked(group string) []string {
	if group == constants.ChannelGroupBank {
		return s.banks
	}
	return s.ewallets
}

func isChannelGroup(group string) bool {
	return group == constants.ChannelGroupEwallets || group == constants.ChannelGroupBank
}

func notify(listeners []func(Selection), current Selection) {
	for _, fn := range listeners {
		fn(current)
	}
}
