package widget

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/checkout-widget/internal/constants"
	"github.com/checkout-widget/internal/http/handlers/shared"
	widgetcore "github.com/checkout-widget/internal/widget"

	"github.com/gin-gonic/gin"
)

// RenderWidget GET /widget/:config 或 GET /widget?cfg=...
func (h *Handler) RenderWidget(c *gin.Context) {
	fragment, fromQuery := fragmentFromRequest(c)
	rt, err := h.WidgetService.OpenFragment(fragment, "")
	if err != nil {
		respondPageError(c, err)
		return
	}
	writePage(c, http.StatusOK, rt, submitActionURL(fragment, fromQuery))
}

// SubmitWidgetForm POST /widget/:config/submit 或 POST /widget?cfg=...
// 需要跳转时返回让顶层窗口跳转的页面，否则重新渲染组件并带上提示。
func (h *Handler) SubmitWidgetForm(c *gin.Context) {
	fragment, fromQuery := fragmentFromRequest(c)
	var input widgetcore.FormInput
	if err := c.ShouldBind(&input); err != nil {
		shared.RequestLog(c).Debugw("widget_form_bind_failed", "error", err)
		c.String(http.StatusBadRequest, msgConfigInvalid)
		return
	}
	input.UserAgent = c.Request.UserAgent()

	rt, err := h.WidgetService.OpenFragment(fragment, input.Instance)
	if err != nil {
		respondPageError(c, err)
		return
	}
	action := submitActionURL(fragment, fromQuery)

	outcome, err := rt.Submit(c.Request.Context(), input)
	if err != nil {
		rule, matched := shared.ResolveMappedError(err, widgetErrorRules, internalErrorRule)
		if !matched {
			shared.RequestLog(c).Errorw("widget_form_submit_failed", "error", err)
		}
		rt.SetMessage(rule.Message)
		writePage(c, rule.Code, rt, action)
		return
	}
	if outcome.Navigates() {
		writeNavigation(c, rt, outcome.NavigateTo)
		return
	}
	status := http.StatusOK
	if outcome.State == constants.SubmissionStateInvalid {
		status = http.StatusUnprocessableEntity
	}
	writePage(c, status, rt, action)
}

func fragmentFromRequest(c *gin.Context) (string, bool) {
	if fragment := strings.TrimSpace(c.Param("config")); fragment != "" {
		return fragment, false
	}
	return strings.TrimSpace(c.Query(constants.ConfigFragmentQueryParam)), true
}

func submitActionURL(fragment string, fromQuery bool) string {
	if fromQuery {
		return "/widget?" + constants.ConfigFragmentQueryParam + "=" + url.QueryEscape(fragment)
	}
	return "/widget/" + url.PathEscape(fragment) + "/submit"
}

func writePage(c *gin.Context, status int, rt *widgetcore.Runtime, action string) {
	var buf bytes.Buffer
	if err := rt.Render(&buf, widgetcore.RenderParams{ActionURL: action, FullPage: true}); err != nil {
		shared.RequestLog(c).Errorw("widget_render_failed", "instance_id", rt.ID(), "error", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func writeNavigation(c *gin.Context, rt *widgetcore.Runtime, target string) {
	var buf bytes.Buffer
	if err := widgetcore.RenderNavigation(&buf, target); err != nil {
		shared.RequestLog(c).Errorw("widget_navigation_render_failed", "instance_id", rt.ID(), "navigate_to", target, "error", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func respondPageError(c *gin.Context, err error) {
	rule, matched := shared.ResolveMappedError(err, widgetErrorRules, internalErrorRule)
	if !matched {
		shared.RequestLog(c).Errorw("widget_page_failed", "error", err)
	} else {
		shared.RequestLog(c).Debugw("widget_page_rejected", "error", err)
	}
	c.Header("Cache-Control", "no-store")
	c.String(rule.Code, fmt.Sprintf("%s\n", rule.Message))
}
