package widget

import (
	"context"
	"io"
	"sync"

	"github.com/checkout-widget/internal/constants"
	"github.com/checkout-widget/internal/logger"
)

// FormInput 一次表单交互携带的全部输入
type FormInput struct {
	Fields
	Instance      string `json:"instance" form:"instance"`
	Group         string `json:"group" form:"channel_group"`
	EwalletMethod string `json:"ewallet_method" form:"method_ewallets"`
	BankMethod    string `json:"bank_method" form:"method_bank"`
	UserAgent     string `json:"-" form:"-"`
}

// Runtime 单个组件实例：持有渠道选择、提交控制器与最近一次的输入
type Runtime struct {
	id         string
	cfg        Configuration
	selector   *ChannelSelector
	controller *SubmissionController

	mu         sync.Mutex
	fields     Fields
	selection  Selection
	validation *ValidationResult
	message    string
}

// NewRuntime 为一份归一化配置创建组件实例
func NewRuntime(cfg Configuration, opts ...ControllerOption) *Runtime {
	controller := NewSubmissionController(cfg, opts...)
	id := controller.InstanceID()
	r := &Runtime{
		id:         id,
		cfg:        cfg,
		selector:   NewChannelSelector(cfg),
		controller: controller,
	}
	r.selection = r.selector.CurrentSelection()
	r.selector.Subscribe(func(selection Selection) {
		r.mu.Lock()
		r.selection = selection
		r.mu.Unlock()
	})
	if !cfg.HasWebhook() && cfg.SuccessURL == "" {
		logger.SW("widget_instance", id).Warnw("widget_no_submission_target")
	}
	return r
}

// ID 实例 ID
func (r *Runtime) ID() string {
	return r.id
}

// Config 实例配置
func (r *Runtime) Config() Configuration {
	return r.cfg
}

// Selector 渠道选择器
func (r *Runtime) Selector() *ChannelSelector {
	return r.selector
}

// HandleInput 应用一次输入：过滤手机号、更新渠道选择、重新计算校验结果。
// 渠道值不在配置中时返回错误，已应用的字段不回滚。
func (r *Runtime) HandleInput(input FormInput) (ValidationResult, error) {
	fields := Fields{
		Name:  input.Name,
		Email: input.Email,
		Phone: FilterPhoneInput(input.Phone),
	}
	validation := ValidateFields(fields)

	r.mu.Lock()
	r.fields = fields
	r.validation = &validation
	r.message = ""
	r.mu.Unlock()

	if input.EwalletMethod != "" {
		if err := r.selector.SelectMethod(constants.ChannelGroupEwallets, input.EwalletMethod); err != nil {
			return validation, err
		}
	}
	if input.BankMethod != "" {
		if err := r.selector.SelectMethod(constants.ChannelGroupBank, input.BankMethod); err != nil {
			return validation, err
		}
	}
	if input.Group != "" {
		if err := r.selector.SelectGroup(input.Group); err != nil {
			return validation, err
		}
	}
	return validation, nil
}

// Submit 应用输入后执行一次提交
func (r *Runtime) Submit(ctx context.Context, input FormInput) (Outcome, error) {
	if r.controller.InFlight() {
		return Outcome{}, ErrSubmissionInFlight
	}
	if _, err := r.HandleInput(input); err != nil {
		return Outcome{}, err
	}

	r.mu.Lock()
	fields := r.fields
	r.mu.Unlock()

	outcome, err := r.controller.Submit(ctx, SubmitRequest{
		Fields:    fields,
		Selection: r.selector.CurrentSelection(),
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return outcome, err
	}

	r.mu.Lock()
	r.message = outcome.Message
	r.mu.Unlock()
	return outcome, nil
}

// SetMessage 设置表单级提示，下次渲染时展示
func (r *Runtime) SetMessage(message string) {
	r.mu.Lock()
	r.message = message
	r.mu.Unlock()
}

// Render 渲染组件
func (r *Runtime) Render(w io.Writer, params RenderParams) error {
	r.mu.Lock()
	view := renderView{
		InstanceID: r.id,
		ActionURL:  params.ActionURL,
		Config:     r.cfg,
		ShowPrice:  r.cfg.PriceEnabled,
		PriceText:  PriceText(r.cfg),
		DialCode:   constants.PhoneDialCodePH,
		PhoneHint:  PhoneHint,
		Fields:     r.fields,
		Validation: r.validation,
		Message:    r.message,
		GroupField: FormFieldGroup,
	}
	selection := r.selection
	r.mu.Unlock()

	view.Button = r.controller.Button()
	view.ActiveGroup = selection.Group
	view.Panels = []channelPanel{
		buildChannelPanel(
			constants.ChannelGroupEwallets,
			r.cfg.Channels(constants.ChannelGroupEwallets),
			selection.Group == constants.ChannelGroupEwallets,
			r.selector.MethodFor(constants.ChannelGroupEwallets),
		),
		buildChannelPanel(
			constants.ChannelGroupBank,
			r.cfg.Channels(constants.ChannelGroupBank),
			selection.Group == constants.ChannelGroupBank,
			r.selector.MethodFor(constants.ChannelGroupBank),
		),
	}
	return renderWidget(w, view, params.FullPage)
}
