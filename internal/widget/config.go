package widget

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/checkout-widget/internal/constants"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var (
	ErrNoSubmissionTarget    = errors.New("widget config has neither webhook_url nor success_url")
	ErrConfigFragmentInvalid = errors.New("widget config fragment invalid")
	ErrTargetURLUnsupported  = errors.New("widget target url must be absolute http(s)")
)

var (
	hexColorPattern     = regexp.MustCompile(`^#[0-9a-f]{6}$`)
	nonHexPattern       = regexp.MustCompile(`[^0-9a-fA-F]`)
	maxNormalizedAmount = decimal.RequireFromString("999999999999.99")
)

// RawConfig 外部传入的原始组件配置（构建器产物）
type RawConfig struct {
	Title            string     `json:"title"`
	Subtitle         string     `json:"subtitle"`
	OrderTitle       string     `json:"orderTitle"`
	OrderDescription string     `json:"orderDescription"`
	PaymentType      string     `json:"paymentType"`
	Interval         string     `json:"interval"`
	PriceEnabled     bool       `json:"priceEnabled"`
	CurrencySymbol   string     `json:"currencySymbol"`
	Amount           FlexString `json:"amount"`
	PriceNote        string     `json:"priceNote"`
	NameLabel        string     `json:"nameLabel"`
	NamePlaceholder  string     `json:"namePlaceholder"`
	EmailLabel       string     `json:"emailLabel"`
	EmailPlaceholder string     `json:"emailPlaceholder"`
	PhoneLabel       string     `json:"phoneLabel"`
	PhonePlaceholder string     `json:"phonePlaceholder"`
	SubmitButtonText string     `json:"submitButtonText"`
	EwalletChannels  []string   `json:"ewalletChannels"`
	BankChannels     []string   `json:"bankChannels"`
	DefaultGroup     string     `json:"defaultGroup"`
	BrandColor       string     `json:"brandColor"`
	AccentColor      string     `json:"accentColor"`
	WebhookURL       string     `json:"webhookUrl"`
	SuccessURL       string     `json:"successUrl"`
	FailedURL        string     `json:"failedUrl"`
}

// Configuration 归一化后的组件配置，单个组件实例生命周期内不可变
type Configuration struct {
	Title            string   `json:"title"`
	Subtitle         string   `json:"subtitle"`
	OrderTitle       string   `json:"orderTitle"`
	OrderDescription string   `json:"orderDescription"`
	PaymentType      string   `json:"paymentType"`
	Interval         string   `json:"interval"`
	PriceEnabled     bool     `json:"priceEnabled"`
	CurrencySymbol   string   `json:"currencySymbol"`
	Amount           string   `json:"amount"`
	PriceNote        string   `json:"priceNote"`
	NameLabel        string   `json:"nameLabel"`
	NamePlaceholder  string   `json:"namePlaceholder"`
	EmailLabel       string   `json:"emailLabel"`
	EmailPlaceholder string   `json:"emailPlaceholder"`
	PhoneLabel       string   `json:"phoneLabel"`
	PhonePlaceholder string   `json:"phonePlaceholder"`
	SubmitButtonText string   `json:"submitButtonText"`
	EwalletChannels  []string `json:"ewalletChannels"`
	BankChannels     []string `json:"bankChannels"`
	DefaultGroup     string   `json:"defaultGroup"`
	BrandColor       string   `json:"brandColor"`
	AccentColor      string   `json:"accentColor"`
	WebhookURL       string   `json:"webhookUrl"`
	SuccessURL       string   `json:"successUrl"`
	FailedURL        string   `json:"failedUrl"`
}

// PriceSuffix 返回周期后缀
func (c Configuration) PriceSuffix() string {
	return IntervalSuffix(c.PaymentType, c.Interval)
}

// Channels 返回指定分组的渠道列表
func (c Configuration) Channels(group string) []string {
	switch group {
	case constants.ChannelGroupEwallets:
		return c.EwalletChannels
	case constants.ChannelGroupBank:
		return c.BankChannels
	default:
		return nil
	}
}

// HasWebhook 是否配置了 webhook
func (c Configuration) HasWebhook() bool {
	return c.WebhookURL != ""
}

// FlexString 兼容字符串与数字两种 JSON 写法
type FlexString string

// UnmarshalJSON 解析字符串或数字
func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*s = FlexString(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(b, &number); err != nil {
		// 非数字非字符串（布尔、对象等）按空值处理，由归一化兜底
		*s = ""
		return nil
	}
	*s = FlexString(number.String())
	return nil
}

// Normalize 归一化原始配置，只做修正不做拒绝。
// previous 为上一份有效配置，用于颜色“最后一次有效值”的保留；为空时使用默认颜色。
// 返回的 error 只是告警（ErrTargetURLUnsupported、ErrNoSubmissionTarget，可能合并），配置本身始终可用。
func Normalize(raw RawConfig, previous *Configuration) (Configuration, error) {
	prevBrand := constants.DefaultBrandColor
	prevAccent := constants.DefaultAccentColor
	if previous != nil {
		if hexColorPattern.MatchString(previous.BrandColor) {
			prevBrand = previous.BrandColor
		}
		if hexColorPattern.MatchString(previous.AccentColor) {
			prevAccent = previous.AccentColor
		}
	}

	cfg := Configuration{
		Title:            strings.TrimSpace(raw.Title),
		Subtitle:         strings.TrimSpace(raw.Subtitle),
		OrderTitle:       strings.TrimSpace(raw.OrderTitle),
		OrderDescription: strings.TrimSpace(raw.OrderDescription),
		PaymentType:      normalizePaymentType(raw.PaymentType),
		Interval:         strings.ToUpper(strings.TrimSpace(raw.Interval)),
		PriceEnabled:     raw.PriceEnabled,
		CurrencySymbol:   defaultText(raw.CurrencySymbol, constants.DefaultCurrencySymbol),
		Amount:           NormalizeAmount(string(raw.Amount)),
		PriceNote:        strings.TrimSpace(raw.PriceNote),
		NameLabel:        defaultText(raw.NameLabel, constants.DefaultNameLabel),
		NamePlaceholder:  strings.TrimSpace(raw.NamePlaceholder),
		EmailLabel:       defaultText(raw.EmailLabel, constants.DefaultEmailLabel),
		EmailPlaceholder: strings.TrimSpace(raw.EmailPlaceholder),
		PhoneLabel:       defaultText(raw.PhoneLabel, constants.DefaultPhoneLabel),
		PhonePlaceholder: strings.TrimSpace(raw.PhonePlaceholder),
		SubmitButtonText: defaultText(raw.SubmitButtonText, constants.DefaultSubmitButtonText),
		EwalletChannels:  normalizeChannelList(raw.EwalletChannels),
		BankChannels:     normalizeChannelList(raw.BankChannels),
		DefaultGroup:     normalizeChannelGroup(raw.DefaultGroup),
		BrandColor:       NormalizeHexColor(raw.BrandColor, prevBrand),
		AccentColor:      NormalizeHexColor(raw.AccentColor, prevAccent),
	}

	var warnings []error
	targets := []struct {
		name string
		raw  string
		dst  *string
	}{
		{"webhookUrl", raw.WebhookURL, &cfg.WebhookURL},
		{"successUrl", raw.SuccessURL, &cfg.SuccessURL},
		{"failedUrl", raw.FailedURL, &cfg.FailedURL},
	}
	for _, target := range targets {
		value, ok := NormalizeTargetURL(target.raw)
		if !ok {
			warnings = append(warnings, fmt.Errorf("%w: %s", ErrTargetURLUnsupported, target.name))
		}
		*target.dst = value
	}

	if cfg.WebhookURL == "" && cfg.SuccessURL == "" {
		warnings = append(warnings, ErrNoSubmissionTarget)
	}
	return cfg, errors.Join(warnings...)
}

// NormalizeTargetURL 只接受带主机名的 http/https 地址；空值返回 ("", true)
func NormalizeTargetURL(value string) (string, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return "", true
	}
	u, err := url.Parse(text)
	if err != nil || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	return text, true
}

// NormalizeAmount 金额归一化：非负两位小数，去掉末尾的 .00
func NormalizeAmount(value string) string {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || !isSaneAmountExponent(amount) || amount.IsNegative() || amount.GreaterThan(maxNormalizedAmount) {
		amount = decimal.Zero
	}
	fixed := amount.StringFixed(2)
	return strings.TrimSuffix(fixed, ".00")
}

// 指数过大的输入（如 1e999999999）在比较时会触发超大整数运算，直接视为非法
func isSaneAmountExponent(amount decimal.Decimal) bool {
	exp := amount.Exponent()
	return exp <= 12 && exp >= -32
}

// NormalizeHexColor 颜色归一化，失败时保留 previous
func NormalizeHexColor(value, previous string) string {
	digits := nonHexPattern.ReplaceAllString(strings.TrimSpace(value), "")
	digits = strings.ToLower(digits)
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	if len(digits) > 6 {
		digits = digits[:6]
	}
	candidate := "#" + digits
	if hexColorPattern.MatchString(candidate) {
		return candidate
	}
	return previous
}

// IntervalSuffix 根据支付类型与周期计算价格后缀
func IntervalSuffix(paymentType, interval string) string {
	if paymentType != constants.PaymentTypeRecurring {
		return ""
	}
	switch interval {
	case constants.IntervalMonthly:
		return "/mo"
	case constants.IntervalQuarterly:
		return "/quarter"
	case constants.IntervalYearly:
		return "/yr"
	default:
		return ""
	}
}

// DecodeConfigFragment 解析 URL 片段中的 Base64 JSON 配置。
// 兼容标准/URL 安全字母表、有无填充，以及前缀 "#" 与 "cfg="。
func DecodeConfigFragment(fragment string) (RawConfig, error) {
	text := strings.TrimSpace(fragment)
	text = strings.TrimPrefix(text, "#")
	text = strings.TrimPrefix(text, constants.ConfigFragmentQueryParam+"=")
	if text == "" {
		return RawConfig{}, fmt.Errorf("%w: empty fragment", ErrConfigFragmentInvalid)
	}

	payload, err := decodeBase64Loose(text)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%w: %v", ErrConfigFragmentInvalid, err)
	}
	var raw RawConfig
	if err := json.Unmarshal(payload, &raw); err != nil {
		return RawConfig{}, fmt.Errorf("%w: %v", ErrConfigFragmentInvalid, err)
	}
	return raw, nil
}

// EncodeConfigFragment 将配置编码为 URL 安全的 Base64 片段
func EncodeConfigFragment(cfg Configuration) (string, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

func decodeBase64Loose(text string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		payload, err := enc.DecodeString(text)
		if err == nil {
			return payload, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func normalizePaymentType(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), constants.PaymentTypeRecurring) {
		return constants.PaymentTypeRecurring
	}
	return constants.PaymentTypeOneTime
}

func normalizeChannelGroup(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), constants.ChannelGroupBank) {
		return constants.ChannelGroupBank
	}
	return constants.ChannelGroupEwallets
}

func normalizeChannelList(values []string) []string {
	trimmed := lo.Map(values, func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Uniq(lo.Compact(trimmed))
}

func defaultText(value, fallback string) string {
	if text := strings.TrimSpace(value); text != "" {
		return text
	}
	return fallback
}
