package widget

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"

	"github.com/checkout-widget/internal/constants"
)

// 空分组占位文案
const (
	EmptyEwalletsText = "No EWALLETS enabled"
	EmptyBankText     = "No BANK channels enabled"
)

// PhoneHint 手机号输入提示
const PhoneHint = "Enter your 10-digit mobile number after " + constants.PhoneDialCodePH + "."

// 表单字段名
const (
	FormFieldGroup         = "channel_group"
	FormFieldEwalletMethod = "method_ewallets"
	FormFieldBankMethod    = "method_bank"
)

// RenderParams 渲染时由宿主提供的参数
type RenderParams struct {
	ActionURL string
	// FullPage 为 true 时输出完整 HTML 文档（托管页面），否则只输出组件根节点
	FullPage bool
}

type channelOption struct {
	Value   string
	Checked bool
}

type channelPanel struct {
	Group     string
	FieldName string
	Active    bool
	Empty     string
	Options   []channelOption
}

type renderView struct {
	InstanceID  string
	ActionURL   string
	Config      Configuration
	ShowPrice   bool
	PriceText   string
	DialCode    string
	PhoneHint   string
	Fields      Fields
	Validation  *ValidationResult
	Message     string
	Button      ButtonState
	ActiveGroup string
	Panels      []channelPanel
	GroupField  string
}

// 品牌色以实例级 CSS 变量写在根节点上，多个实例互不影响
var widgetTemplate = template.Must(template.New("widget").Parse(`<div class="cw-root" id="cw-{{.InstanceID}}" data-widget-instance="{{.InstanceID}}" style="--cw-brand: {{.Config.BrandColor}}; --cw-accent: {{.Config.AccentColor}}">
<style>
.cw-root{font-family:system-ui,sans-serif;background:var(--cw-accent);padding:16px;border-radius:12px}
.cw-root .cw-submit{background:var(--cw-brand);color:#fff;border:0;border-radius:8px;padding:10px 16px;width:100%}
.cw-root .cw-submit[disabled]{opacity:.6}
.cw-root .cw-error{color:#b91c1c;font-size:13px}
.cw-root .cw-panel[hidden]{display:none}
.cw-root .cw-tab input:checked+span{border-bottom:2px solid var(--cw-brand)}
</style>
{{- if .ShowPrice}}
<div class="cw-price"><span class="cw-amount">{{.PriceText}}</span>{{if .Config.PriceNote}}<small class="cw-price-note">{{.Config.PriceNote}}</small>{{end}}</div>
{{- end}}
{{- if or .Config.OrderTitle .Config.OrderDescription}}
<div class="cw-order">{{if .Config.OrderTitle}}<strong>{{.Config.OrderTitle}}</strong>{{end}}{{if .Config.OrderDescription}}<p>{{.Config.OrderDescription}}</p>{{end}}</div>
{{- end}}
{{- if .Config.Title}}
<h2 class="cw-title">{{.Config.Title}}</h2>
{{- end}}
{{- if .Config.Subtitle}}
<p class="cw-subtitle">{{.Config.Subtitle}}</p>
{{- end}}
<form class="cw-form" method="post" action="{{.ActionURL}}" novalidate>
<input type="hidden" name="instance" value="{{.InstanceID}}">
<label>{{.Config.NameLabel}}<input type="text" name="name" autocomplete="name" value="{{.Fields.Name}}" placeholder="{{.Config.NamePlaceholder}}"></label>
{{- if and .Validation (not .Validation.Name.Valid)}}
<div class="cw-error" data-field="name">{{.Validation.Name.Message}}</div>
{{- end}}
<label>{{.Config.EmailLabel}}<input type="email" name="email" autocomplete="email" value="{{.Fields.Email}}" placeholder="{{.Config.EmailPlaceholder}}"></label>
{{- if and .Validation (not .Validation.Email.Valid)}}
<div class="cw-error" data-field="email">{{.Validation.Email.Message}}</div>
{{- end}}
<label>{{.Config.PhoneLabel}}<span class="cw-dial">{{.DialCode}}</span><input type="tel" name="phone" inputmode="numeric" maxlength="10" pattern="9[0-9]{9}" value="{{.Fields.Phone}}" placeholder="{{.Config.PhonePlaceholder}}"></label>
<small class="cw-hint">{{.PhoneHint}}</small>
{{- if and .Validation (not .Validation.Phone.Valid)}}
<div class="cw-error" data-field="phone">{{.Validation.Phone.Message}}</div>
{{- end}}
<div class="cw-tabs" role="tablist">
{{- range .Panels}}
<label class="cw-tab"><input type="radio" name="{{$.GroupField}}" value="{{.Group}}"{{if .Active}} checked{{end}}><span>{{.Group}}</span></label>
{{- end}}
</div>
{{- range .Panels}}
<div class="cw-panel" data-group="{{.Group}}"{{if not .Active}} hidden{{end}}>
{{- if .Options}}
{{- $field := .FieldName}}
{{- range .Options}}
<label class="cw-channel"><input type="radio" name="{{$field}}" value="{{.Value}}"{{if .Checked}} checked{{end}}><span>{{.Value}}</span></label>
{{- end}}
{{- else}}
<p class="cw-empty">{{.Empty}}</p>
{{- end}}
</div>
{{- end}}
{{- if .Message}}
<div class="cw-error cw-message" role="alert">{{.Message}}</div>
{{- end}}
<button type="submit" class="cw-submit"{{if .Button.Disabled}} disabled{{end}}>{{.Button.Label}}</button>
</form>
</div>
`))

var pageTemplate = template.Must(template.Must(widgetTemplate.Clone()).New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="referrer" content="no-referrer">
<title>{{if .Config.Title}}{{.Config.Title}}{{else}}Checkout{{end}}</title>
</head>
<body>
{{template "widget" .}}
</body>
</html>
`))

// 组件通常嵌在 iframe 中，跳转必须作用于顶层窗口
var navigateTemplate = template.Must(template.New("navigate").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="referrer" content="no-referrer">
<title>Redirecting</title>
</head>
<body>
<p class="cw-navigate"><a href="{{.}}" target="_top" rel="noopener">Continue to payment</a></p>
<script>window.top.location.href = {{.}};</script>
</body>
</html>
`))

// RenderNavigation 输出把顶层窗口跳转到 target 的页面；target 必须是 http/https 地址
func RenderNavigation(w io.Writer, target string) error {
	link, ok := NormalizeTargetURL(target)
	if !ok || link == "" {
		return fmt.Errorf("%w: navigation target", ErrTargetURLUnsupported)
	}
	if err := navigateTemplate.Execute(w, link); err != nil {
		return fmt.Errorf("render navigation: %w", err)
	}
	return nil
}

// PriceText 价格展示文本，例如 ₱1499/mo
func PriceText(cfg Configuration) string {
	return cfg.CurrencySymbol + cfg.Amount + cfg.PriceSuffix()
}

func buildChannelPanel(group string, offered []string, active bool, selected string) channelPanel {
	panel := channelPanel{
		Group:     group,
		FieldName: FormFieldEwalletMethod,
		Active:    active,
		Empty:     EmptyEwalletsText,
	}
	if group == constants.ChannelGroupBank {
		panel.FieldName = FormFieldBankMethod
		panel.Empty = EmptyBankText
	}
	for _, value := range offered {
		panel.Options = append(panel.Options, channelOption{Value: value, Checked: value == selected})
	}
	return panel
}

func renderWidget(w io.Writer, view renderView, page bool) error {
	var err error
	if page {
		err = pageTemplate.ExecuteTemplate(w, "page", view)
	} else {
		err = widgetTemplate.Execute(w, view)
	}
	if err != nil {
		return fmt.Errorf("render widget: %w", err)
	}
	return nil
}

// EmbedSnippet 生成指向托管组件地址的 iframe 代码
func EmbedSnippet(cfg Configuration, baseURL string) (string, error) {
	fragment, err := EncodeConfigFragment(cfg)
	if err != nil {
		return "", err
	}
	src := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/widget/" + fragment
	title := cfg.Title
	if title == "" {
		title = "Checkout"
	}
	return fmt.Sprintf(
		`<iframe src="%s" title="%s" style="width:100%%;border:0;min-height:640px" loading="lazy" allow="payment"></iframe>`,
		html.EscapeString(src),
		html.EscapeString(title),
	), nil
}
