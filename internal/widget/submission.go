package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/checkout-widget/internal/constants"
	"github.com/checkout-widget/internal/logger"
	"github.com/checkout-widget/internal/widget/linkextract"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 提交失败提示文案
const (
	MessageMissingLink   = "Webhook did not return a payment link."
	MessagePaymentFailed = "Payment failed. Please try again. (%d)"
	MessageNetworkError  = "Network error. Please try again."
)

const (
	defaultMaxResponseBytes = 1 << 20
	defaultInFlightTTL      = 2 * time.Minute
	defaultWebhookTimeout   = 15 * time.Second
)

var ErrSubmissionInFlight = errors.New("submission already in flight")

// HTTPDoer 发起 webhook 请求的客户端
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// InFlightGuard 跨实例的提交互斥（例如 Redis SET NX）
type InFlightGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// OutcomePublisher 提交结果事件发布
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, event OutcomeEvent) error
}

// ButtonState 提交按钮状态
type ButtonState struct {
	Disabled bool   `json:"disabled"`
	Label    string `json:"label"`
}

// Outcome 一次提交的最终结果。NavigateTo 非空表示需要整页跳转。
type Outcome struct {
	State        string            `json:"state"`
	NavigateTo   string            `json:"navigate_to,omitempty"`
	Message      string            `json:"message,omitempty"`
	HTTPStatus   int               `json:"http_status,omitempty"`
	PaymentLink  string            `json:"payment_link,omitempty"`
	SubmissionID string            `json:"submission_id,omitempty"`
	Validation   *ValidationResult `json:"validation,omitempty"`
}

// Navigates 是否产生跳转
func (o Outcome) Navigates() bool {
	return o.NavigateTo != ""
}

// OutcomeEvent 结果事件载荷
type OutcomeEvent struct {
	InstanceID   string    `json:"instance_id"`
	SubmissionID string    `json:"submission_id"`
	State        string    `json:"state"`
	NavigateTo   string    `json:"navigate_to,omitempty"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	Message      string    `json:"message,omitempty"`
	Channel      Selection `json:"channel"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// SubmitRequest 提交输入
type SubmitRequest struct {
	Fields    Fields
	Selection Selection
	UserAgent string
}

// ControllerOption 提交控制器可选项
type ControllerOption func(*SubmissionController)

// WithInstanceID 指定实例 ID，非法或为空时自动生成
func WithInstanceID(id string) ControllerOption {
	return func(c *SubmissionController) {
		if parsed, err := uuid.Parse(strings.TrimSpace(id)); err == nil {
			c.instanceID = parsed.String()
		}
	}
}

// WithHTTPClient 指定 webhook 客户端
func WithHTTPClient(client HTTPDoer) ControllerOption {
	return func(c *SubmissionController) {
		if client != nil {
			c.client = client
		}
	}
}

// WithInFlightGuard 指定跨实例互斥
func WithInFlightGuard(guard InFlightGuard, ttl time.Duration) ControllerOption {
	return func(c *SubmissionController) {
		c.guard = guard
		if ttl > 0 {
			c.guardTTL = ttl
		}
	}
}

// WithOutcomePublisher 指定结果事件发布者
func WithOutcomePublisher(publisher OutcomePublisher) ControllerOption {
	return func(c *SubmissionController) {
		c.publisher = publisher
	}
}

// WithWebhookTimeout webhook 超时，非正数时保留默认值
func WithWebhookTimeout(timeout time.Duration) ControllerOption {
	return func(c *SubmissionController) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxResponseBytes 读取 webhook 响应体的上限
func WithMaxResponseBytes(limit int64) ControllerOption {
	return func(c *SubmissionController) {
		if limit > 0 {
			c.maxBody = limit
		}
	}
}

// WithLogger 指定日志
func WithLogger(log *zap.SugaredLogger) ControllerOption {
	return func(c *SubmissionController) {
		if log != nil {
			c.log = log
		}
	}
}

// SubmissionController 提交协议状态机：
// Idle → Validating → (Invalid | Submitting) → (Succeeded | FailedWithFallback | FailedNoFallback)
type SubmissionController struct {
	cfg        Configuration
	instanceID string
	client     HTTPDoer
	guard      InFlightGuard
	guardTTL   time.Duration
	publisher  OutcomePublisher
	timeout    time.Duration
	maxBody    int64
	log        *zap.SugaredLogger
	now        func() time.Time

	inFlight atomic.Bool

	mu        sync.Mutex
	state     string
	button    ButtonState
	listeners []func(state string, button ButtonState)
}

// NewSubmissionController 创建提交控制器
func NewSubmissionController(cfg Configuration, opts ...ControllerOption) *SubmissionController {
	c := &SubmissionController{
		cfg:      cfg,
		client:   http.DefaultClient,
		guardTTL: defaultInFlightTTL,
		timeout:  defaultWebhookTimeout,
		maxBody:  defaultMaxResponseBytes,
		now:      time.Now,
		state:    constants.SubmissionStateIdle,
		button:   ButtonState{Label: cfg.SubmitButtonText},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.instanceID == "" {
		c.instanceID = uuid.NewString()
	}
	if c.log == nil {
		c.log = logger.SW("widget_instance", c.instanceID)
	}
	return c
}

// InstanceID 实例 ID
func (c *SubmissionController) InstanceID() string {
	return c.instanceID
}

// State 当前状态
func (c *SubmissionController) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Button 当前按钮状态
func (c *SubmissionController) Button() ButtonState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.button
}

// InFlight 是否有提交正在进行
func (c *SubmissionController) InFlight() bool {
	return c.inFlight.Load()
}

// Subscribe 订阅状态与按钮变化
func (c *SubmissionController) Subscribe(fn func(state string, button ButtonState)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Submit 执行一次提交。仅在已有提交进行中时返回 ErrSubmissionInFlight，
// 其余失败都体现在 Outcome 中。
func (c *SubmissionController) Submit(ctx context.Context, req SubmitRequest) (Outcome, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	c.transition(constants.SubmissionStateValidating, c.idleButton())
	validation := ValidateFields(req.Fields)
	if !validation.Valid() {
		outcome := Outcome{
			State:      constants.SubmissionStateInvalid,
			Message:    validation.FirstError(),
			Validation: &validation,
		}
		c.transition(outcome.State, c.idleButton())
		return outcome, nil
	}

	submissionID := uuid.NewString()
	if !c.cfg.HasWebhook() {
		outcome := c.resolveWithoutWebhook(submissionID)
		c.finish(ctx, req, outcome)
		return outcome, nil
	}

	if c.guard != nil {
		key := c.guardKey()
		acquired, err := c.guard.Acquire(ctx, key, c.guardTTL)
		if err != nil {
			c.log.Warnw("widget_inflight_guard_acquire_failed", "error", err)
		} else if !acquired {
			c.transition(constants.SubmissionStateIdle, c.idleButton())
			return Outcome{}, ErrSubmissionInFlight
		} else {
			defer func() {
				if err := c.guard.Release(context.WithoutCancel(ctx), key); err != nil {
					c.log.Warnw("widget_inflight_guard_release_failed", "error", err)
				}
			}()
		}
	}

	c.transition(constants.SubmissionStateSubmitting, ButtonState{Disabled: true, Label: constants.SubmitButtonBusyText})
	payload := BuildPayload(c.cfg, PayloadInput{
		Fields:       req.Fields,
		Selection:    req.Selection,
		UserAgent:    req.UserAgent,
		SubmissionID: submissionID,
		Now:          c.now(),
	})
	outcome := c.deliver(ctx, payload)
	outcome.SubmissionID = submissionID
	c.finish(ctx, req, outcome)
	return outcome, nil
}

func (c *SubmissionController) resolveWithoutWebhook(submissionID string) Outcome {
	if c.cfg.SuccessURL != "" {
		return Outcome{
			State:        constants.SubmissionStateSucceeded,
			NavigateTo:   c.cfg.SuccessURL,
			SubmissionID: submissionID,
		}
	}
	return Outcome{State: constants.SubmissionStateIdle, SubmissionID: submissionID}
}

// deliver 发送 webhook 并解释响应，只尝试一次
func (c *SubmissionController) deliver(ctx context.Context, payload SubmissionPayload) Outcome {
	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Errorw("widget_payload_marshal_failed", "error", err)
		return c.networkFailure()
	}

	// 请求不随调用方取消（对应浏览器 keepalive，跳转后仍可完成）
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		c.log.Warnw("widget_webhook_request_build_failed", "webhook_url", c.cfg.WebhookURL, "error", err)
		return c.networkFailure()
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.log.Warnw("widget_webhook_request_failed",
			"webhook_url", c.cfg.WebhookURL,
			"submission_id", payload.Meta.SubmissionID,
			"error", err,
		)
		return c.networkFailure()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		// 读取失败时按“无链接”处理，状态码仍然有效
		c.log.Warnw("widget_webhook_read_body_failed", "status", resp.StatusCode, "error", err)
		respBody = nil
	}
	link, found := linkextract.ExtractBytes(respBody)
	c.log.Infow("widget_webhook_responded",
		"submission_id", payload.Meta.SubmissionID,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"link_found", found,
		"latency_ms", c.now().Sub(start).Milliseconds(),
	)
	return c.interpret(resp.StatusCode, link, found)
}

// interpret 根据状态码与提取结果决定最终结果
func (c *SubmissionController) interpret(status int, link string, found bool) Outcome {
	ok := status >= 200 && status < 300
	switch {
	case ok && found:
		return Outcome{State: constants.SubmissionStateSucceeded, NavigateTo: link, PaymentLink: link, HTTPStatus: status}
	case ok && c.cfg.SuccessURL != "":
		return Outcome{State: constants.SubmissionStateSucceeded, NavigateTo: c.cfg.SuccessURL, HTTPStatus: status}
	case ok:
		return Outcome{State: constants.SubmissionStateFailedNoFallback, Message: MessageMissingLink, HTTPStatus: status}
	case c.cfg.FailedURL != "":
		return Outcome{State: constants.SubmissionStateFailedWithFallback, NavigateTo: c.cfg.FailedURL, HTTPStatus: status}
	default:
		return Outcome{
			State:      constants.SubmissionStateFailedNoFallback,
			Message:    fmt.Sprintf(MessagePaymentFailed, status),
			HTTPStatus: status,
		}
	}
}

func (c *SubmissionController) networkFailure() Outcome {
	if c.cfg.FailedURL != "" {
		return Outcome{State: constants.SubmissionStateFailedWithFallback, NavigateTo: c.cfg.FailedURL}
	}
	return Outcome{State: constants.SubmissionStateFailedNoFallback, Message: MessageNetworkError}
}

// finish 进入终态：恢复按钮、记录日志并发布事件
func (c *SubmissionController) finish(ctx context.Context, req SubmitRequest, outcome Outcome) {
	c.transition(outcome.State, c.idleButton())

	c.log.Infow("widget_submission_finished",
		"submission_id", outcome.SubmissionID,
		"state", outcome.State,
		"navigate_to", outcome.NavigateTo,
		"http_status", outcome.HTTPStatus,
		"channel_group", req.Selection.Group,
		"channel_method", req.Selection.Method,
	)

	if c.publisher == nil {
		return
	}
	event := OutcomeEvent{
		InstanceID:   c.instanceID,
		SubmissionID: outcome.SubmissionID,
		State:        outcome.State,
		NavigateTo:   outcome.NavigateTo,
		HTTPStatus:   outcome.HTTPStatus,
		Message:      outcome.Message,
		Channel:      req.Selection,
		OccurredAt:   c.now().UTC(),
	}
	if err := c.publisher.PublishOutcome(context.WithoutCancel(ctx), event); err != nil {
		c.log.Warnw("widget_outcome_publish_failed", "submission_id", outcome.SubmissionID, "error", err)
	}
}

func (c *SubmissionController) idleButton() ButtonState {
	return ButtonState{Label: c.cfg.SubmitButtonText}
}

func (c *SubmissionController) guardKey() string {
	return "widget:inflight:" + c.instanceID
}

func (c *SubmissionController) transition(state string, button ButtonState) {
	c.mu.Lock()
	c.state = state
	c.button = button
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state, button)
	}
}
