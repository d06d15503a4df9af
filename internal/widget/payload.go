package widget

import (
	"regexp"
	"strings"
	"time"

	"github.com/checkout-widget/internal/constants"

	"github.com/samber/lo"
)

// SubmissionPayload 每次提交新建的 webhook 请求体，调用结束即丢弃
type SubmissionPayload struct {
	Order     PayloadOrder     `json:"order"`
	Form      PayloadForm      `json:"form"`
	Customer  PayloadCustomer  `json:"customer"`
	Channel   PayloadChannel   `json:"channel"`
	Redirects PayloadRedirects `json:"redirects"`
	Meta      PayloadMeta      `json:"meta"`
}

// PayloadOrder 订单信息
type PayloadOrder struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PaymentType string `json:"paymentType"`
	Interval    string `json:"interval"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	PriceNote   string `json:"priceNote"`
	PriceSuffix string `json:"priceSuffix"`
}

// PayloadForm 表单标题信息
type PayloadForm struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// PayloadCustomer 买家信息
type PayloadCustomer struct {
	Name      string       `json:"name"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Email     string       `json:"email"`
	Phone     PayloadPhone `json:"phone"`
}

// PayloadPhone 手机号
type PayloadPhone struct {
	Country        string `json:"country"`
	DialCode       string `json:"dialCode"`
	NationalNumber string `json:"nationalNumber"`
	E164           string `json:"e164"`
}

// PayloadChannel 渠道选择，未选择时 method 为 null
type PayloadChannel struct {
	Group  string  `json:"group"`
	Method *string `json:"method"`
}

// PayloadRedirects 回退跳转地址
type PayloadRedirects struct {
	SuccessURL string `json:"successUrl"`
	FailedURL  string `json:"failedUrl"`
}

// PayloadMeta 请求元信息
type PayloadMeta struct {
	SubmissionID string `json:"submissionId"`
	UserAgent    string `json:"userAgent"`
	Timestamp    string `json:"timestamp"`
}

// PayloadInput 组装请求体所需的运行时信息
type PayloadInput struct {
	Fields       Fields
	Selection    Selection
	UserAgent    string
	SubmissionID string
	Now          time.Time
}

// BuildPayload 根据配置与买家输入组装请求体
func BuildPayload(cfg Configuration, input PayloadInput) SubmissionPayload {
	fullName := strings.TrimSpace(input.Fields.Name)
	firstName, lastName := SplitName(fullName)
	national := strings.TrimSpace(input.Fields.Phone)
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	return SubmissionPayload{
		Order: PayloadOrder{
			Title:       cfg.OrderTitle,
			Description: cfg.OrderDescription,
			PaymentType: cfg.PaymentType,
			Interval:    cfg.Interval,
			Currency:    cfg.CurrencySymbol,
			Amount:      cfg.Amount,
			PriceNote:   cfg.PriceNote,
			PriceSuffix: cfg.PriceSuffix(),
		},
		Form: PayloadForm{
			Title:    cfg.Title,
			Subtitle: cfg.Subtitle,
		},
		Customer: PayloadCustomer{
			Name:      fullName,
			FirstName: firstName,
			LastName:  lastName,
			Email:     strings.TrimSpace(input.Fields.Email),
			Phone: PayloadPhone{
				Country:        constants.PhoneCountryPH,
				DialCode:       constants.PhoneDialCodePH,
				NationalNumber: national,
				E164:           constants.PhoneDialCodePH + national,
			},
		},
		Channel: payloadChannel(input.Selection),
		Redirects: PayloadRedirects{
			SuccessURL: cfg.SuccessURL,
			FailedURL:  cfg.FailedURL,
		},
		Meta: PayloadMeta{
			SubmissionID: input.SubmissionID,
			UserAgent:    input.UserAgent,
			Timestamp:    now.UTC().Format(time.RFC3339Nano),
		},
	}
}

func payloadChannel(selection Selection) PayloadChannel {
	channel := PayloadChannel{Group: selection.Group}
	if selection.HasMethod() {
		method := selection.Method
		channel.Method = &method
	}
	return channel
}

var (
	nameDisallowedPattern = regexp.MustCompile(`[^\p{L}\p{N}\s'\-.]`)
	nameSpacePattern      = regexp.MustCompile(`\s+`)
	nameHonorificPattern  = regexp.MustCompile(`(?i)^(mr|ms|mrs|miss|sir|ma'am|madam|dr)\.?$`)
	nameSuffixPattern     = regexp.MustCompile(`(?i)^(jr|sr|iii|iv|v|phd|md)\.?$`)
	surnameParticles      = []string{"de", "del", "dela", "la", "los", "da", "di", "van", "von", "delos"}
)

// SplitName 拆分姓名：去掉称谓与后缀，姓氏前的连接词（de、van 等）归入姓氏
func SplitName(full string) (string, string) {
	cleaned := nameDisallowedPattern.ReplaceAllString(full, "")
	cleaned = nameSpacePattern.ReplaceAllString(strings.TrimSpace(cleaned), " ")
	parts := lo.Compact(strings.Split(cleaned, " "))

	for len(parts) > 0 && nameHonorificPattern.MatchString(parts[0]) {
		parts = parts[1:]
	}
	for len(parts) > 0 && nameSuffixPattern.MatchString(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}

	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}

	i := len(parts) - 1
	lastParts := []string{parts[i]}
	i--
	for i >= 0 && lo.Contains(surnameParticles, strings.ToLower(parts[i])) {
		lastParts = append([]string{parts[i]}, lastParts...)
		i--
	}
	first := strings.Join(parts[:i+1], " ")
	last := strings.Join(lastParts, " ")
	return first, last
}
