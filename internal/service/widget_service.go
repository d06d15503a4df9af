package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/checkout-widget/internal/cache"
	"github.com/checkout-widget/internal/config"
	"github.com/checkout-widget/internal/logger"
	"github.com/checkout-widget/internal/widget"

	"github.com/google/uuid"
)

// WidgetService 组件托管服务：配置归一化、实例创建与提交结果查询
type WidgetService struct {
	cfg        *config.Config
	policy     *WebhookPolicy
	httpClient widget.HTTPDoer
	guard      widget.InFlightGuard
	publisher  widget.OutcomePublisher
}

// NewWidgetService 创建组件服务。guard 为空时使用进程内互斥，publisher 可为空。
func NewWidgetService(cfg *config.Config, guard widget.InFlightGuard, publisher widget.OutcomePublisher) *WidgetService {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if guard == nil {
		guard = cache.NewInFlightGuard(nil)
	}
	policy := NewWebhookPolicy(cfg.Webhook)
	return &WidgetService{
		cfg:        cfg,
		policy:     policy,
		httpClient: policy.HTTPClient(cfg.Webhook.Timeout()),
		guard:      guard,
		publisher:  publisher,
	}
}

// WithHTTPClient 替换 webhook 客户端
func (s *WidgetService) WithHTTPClient(client widget.HTTPDoer) *WidgetService {
	if client != nil {
		s.httpClient = client
	}
	return s
}

// 将 errors.Join 合并的告警拆成单条文案
func warningMessages(warn error) []string {
	if warn == nil {
		return []string{}
	}
	if joined, ok := warn.(interface{ Unwrap() []error }); ok {
		messages := make([]string, 0, len(joined.Unwrap()))
		for _, err := range joined.Unwrap() {
			messages = append(messages, err.Error())
		}
		return messages
	}
	return []string{warn.Error()}
}

// NormalizeResult 归一化结果
type NormalizeResult struct {
	Config       widget.Configuration `json:"config"`
	Fragment     string               `json:"fragment"`
	EmbedSnippet string               `json:"embed_snippet"`
	Warnings     []string             `json:"warnings"`
}

// Normalize 归一化原始配置并生成托管片段与嵌入代码
func (s *WidgetService) Normalize(raw widget.RawConfig) (*NormalizeResult, error) {
	cfg, warn := widget.Normalize(raw, nil)
	warnings := warningMessages(warn)
	if cfg.HasWebhook() {
		if err := s.policy.CheckURL(cfg.WebhookURL); err != nil {
			return nil, err
		}
	}
	fragment, err := widget.EncodeConfigFragment(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWidgetConfigInvalid, err)
	}
	if err := s.checkFragmentSize(fragment); err != nil {
		return nil, err
	}
	snippet, err := widget.EmbedSnippet(cfg, s.cfg.Widget.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWidgetConfigInvalid, err)
	}
	return &NormalizeResult{
		Config:       cfg,
		Fragment:     fragment,
		EmbedSnippet: snippet,
		Warnings:     warnings,
	}, nil
}

// ResolveFragment 解析并归一化托管片段
func (s *WidgetService) ResolveFragment(fragment string) (widget.Configuration, error) {
	if err := s.checkFragmentSize(fragment); err != nil {
		return widget.Configuration{}, err
	}
	raw, err := widget.DecodeConfigFragment(fragment)
	if err != nil {
		return widget.Configuration{}, fmt.Errorf("%w: %v", ErrWidgetConfigInvalid, err)
	}
	cfg, warn := widget.Normalize(raw, nil)
	if warn != nil {
		logger.Debugw("widget_fragment_warning", "warning", warn)
	}
	return cfg, nil
}

// NewRuntime 为配置创建组件实例；instanceID 为空时生成新 ID。
// webhook 不在允许范围内时返回 ErrWebhookNotAllowed。
func (s *WidgetService) NewRuntime(cfg widget.Configuration, instanceID string) (*widget.Runtime, error) {
	if id := strings.TrimSpace(instanceID); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return nil, ErrInstanceIDInvalid
		}
	}
	if cfg.HasWebhook() {
		if err := s.policy.CheckURL(cfg.WebhookURL); err != nil {
			logger.Warnw("widget_webhook_rejected", "webhook_url", cfg.WebhookURL, "error", err)
			return nil, err
		}
	}
	opts := []widget.ControllerOption{
		widget.WithInstanceID(instanceID),
		widget.WithHTTPClient(s.httpClient),
		widget.WithWebhookTimeout(s.cfg.Webhook.Timeout()),
		widget.WithMaxResponseBytes(int64(s.cfg.Webhook.MaxResponseBodySize)),
	}
	opts = append(opts, widget.WithInFlightGuard(s.guard, s.cfg.Webhook.InFlightTTL()))
	if s.publisher != nil {
		opts = append(opts, widget.WithOutcomePublisher(s.publisher))
	}
	return widget.NewRuntime(cfg, opts...), nil
}

// OpenFragment 解析片段并创建实例
func (s *WidgetService) OpenFragment(fragment, instanceID string) (*widget.Runtime, error) {
	cfg, err := s.ResolveFragment(fragment)
	if err != nil {
		return nil, err
	}
	return s.NewRuntime(cfg, instanceID)
}

// LookupSubmission 查询已记录的提交结果
func (s *WidgetService) LookupSubmission(ctx context.Context, submissionID string) (*widget.OutcomeEvent, error) {
	id := strings.TrimSpace(submissionID)
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSubmissionNotFound
	}
	var event widget.OutcomeEvent
	found, err := cache.LoadSubmissionOutcome(ctx, id, &event)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSubmissionNotFound
	}
	return &event, nil
}

func (s *WidgetService) checkFragmentSize(fragment string) error {
	limit := s.cfg.Widget.MaxConfigBytes
	if limit > 0 && len(fragment) > limit {
		return fmt.Errorf("%w: %d bytes", ErrWidgetConfigTooLarge, len(fragment))
	}
	return nil
}

// ResolveConfig 优先使用原始配置，否则解析片段
func (s *WidgetService) ResolveConfig(raw *widget.RawConfig, fragment string) (widget.Configuration, error) {
	if raw != nil {
		cfg, warn := widget.Normalize(*raw, nil)
		if warn != nil {
			logger.Debugw("widget_config_warning", "warning", warn)
		}
		return cfg, nil
	}
	if strings.TrimSpace(fragment) == "" {
		return widget.Configuration{}, fmt.Errorf("%w: config or fragment required", ErrWidgetConfigInvalid)
	}
	return s.ResolveFragment(fragment)
}
