package widget

import (
	"strings"

	"github.com/checkout-widget/internal/constants"
	"github.com/checkout-widget/internal/http/handlers/shared"
	"github.com/checkout-widget/internal/http/response"
	widgetcore "github.com/checkout-widget/internal/widget"

	"github.com/gin-gonic/gin"
)

// SubmitRequest API 提交请求
type SubmitRequest struct {
	Config   *widgetcore.RawConfig `json:"config"`
	Fragment string                `json:"fragment"`
	Instance string                `json:"instance"`
	Fields   widgetcore.Fields     `json:"fields"`
	Channel  widgetcore.Selection  `json:"channel"`
}

// ToFormInput 转换为组件输入；未指定分组时渠道按 defaultGroup 归属
func (r SubmitRequest) ToFormInput(userAgent, defaultGroup string) widgetcore.FormInput {
	input := widgetcore.FormInput{
		Fields:    r.Fields,
		Instance:  r.Instance,
		Group:     canonicalGroup(r.Channel.Group),
		UserAgent: userAgent,
	}
	method := strings.TrimSpace(r.Channel.Method)
	if method == "" {
		return input
	}
	group := input.Group
	if group == "" {
		group = canonicalGroup(defaultGroup)
	}
	if group == constants.ChannelGroupBank {
		input.BankMethod = method
	} else {
		input.EwalletMethod = method
	}
	return input
}

func canonicalGroup(group string) string {
	group = strings.TrimSpace(group)
	switch {
	case strings.EqualFold(group, constants.ChannelGroupBank):
		return constants.ChannelGroupBank
	case strings.EqualFold(group, constants.ChannelGroupEwallets):
		return constants.ChannelGroupEwallets
	default:
		return group
	}
}

// NormalizeWidget POST /api/v1/widget/normalize
func (h *Handler) NormalizeWidget(c *gin.Context) {
	var raw widgetcore.RawConfig
	if err := c.ShouldBindJSON(&raw); err != nil {
		shared.RespondError(c, response.CodeBadRequest, msgConfigInvalid, nil)
		return
	}
	result, err := h.WidgetService.Normalize(raw)
	if err != nil {
		shared.RespondMappedError(c, err, widgetErrorRules, internalErrorRule)
		return
	}
	response.Success(c, result)
}

// SubmitWidget POST /api/v1/widget/submit
func (h *Handler) SubmitWidget(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, msgConfigInvalid, nil)
		return
	}
	cfg, err := h.WidgetService.ResolveConfig(req.Config, req.Fragment)
	if err != nil {
		shared.RespondMappedError(c, err, widgetErrorRules, internalErrorRule)
		return
	}
	rt, err := h.WidgetService.NewRuntime(cfg, req.Instance)
	if err != nil {
		shared.RespondMappedError(c, err, widgetErrorRules, internalErrorRule)
		return
	}
	outcome, err := rt.Submit(c.Request.Context(), req.ToFormInput(c.Request.UserAgent(), cfg.DefaultGroup))
	if err != nil {
		shared.RespondMappedError(c, err, widgetErrorRules, internalErrorRule)
		return
	}
	if outcome.State == constants.SubmissionStateInvalid {
		response.ErrorWithData(c, response.CodeUnprocessable, outcome.Message, gin.H{"outcome": outcome})
		return
	}
	response.Success(c, outcome)
}

// GetSubmission GET /api/v1/widget/submissions/:id
func (h *Handler) GetSubmission(c *gin.Context) {
	event, err := h.WidgetService.LookupSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		shared.RespondMappedError(c, err, widgetErrorRules, internalErrorRule)
		return
	}
	response.Success(c, event)
}
