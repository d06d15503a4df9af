package widget

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// 校验失败提示文案（面向买家）
const (
	MessageNameInvalid  = "Please enter your full name."
	MessageEmailInvalid = "Please enter a valid email address."
	MessagePhoneInvalid = "Enter 10 digits starting with 9 (e.g., 9XXXXXXXXX)."
)

const phoneLocalMaxDigits = 10

var (
	localPhonePattern = regexp.MustCompile(`^9\d{9}$`)
	nonDigitPattern   = regexp.MustCompile(`\D`)
	fieldValidator    = validator.New()
)

// Fields 买家填写的原始字段
type Fields struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
	Phone string `json:"phone" form:"phone"`
}

// FieldResult 单个字段的校验结果
type FieldResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidationResult 三个字段的校验结果，按需重新计算，不做缓存
type ValidationResult struct {
	Name  FieldResult `json:"name"`
	Email FieldResult `json:"email"`
	Phone FieldResult `json:"phone"`
}

// Valid 所有字段均通过
func (r ValidationResult) Valid() bool {
	return r.Name.Valid && r.Email.Valid && r.Phone.Valid
}

// FirstError 按 name、email、phone 顺序返回第一条失败提示
func (r ValidationResult) FirstError() string {
	for _, field := range []FieldResult{r.Name, r.Email, r.Phone} {
		if !field.Valid {
			return field.Message
		}
	}
	return ""
}

// ValidateName 姓名：去除首尾空白后至少 2 个字符
func ValidateName(value string) FieldResult {
	if utf8.RuneCountInString(strings.TrimSpace(value)) >= 2 {
		return FieldResult{Valid: true}
	}
	return FieldResult{Message: MessageNameInvalid}
}

// ValidateEmail 邮箱：通用地址形态校验，非完整 RFC 5322
func ValidateEmail(value string) FieldResult {
	email := strings.TrimSpace(value)
	if email == "" || fieldValidator.Var(email, "email") != nil {
		return FieldResult{Message: MessageEmailInvalid}
	}
	return FieldResult{Valid: true}
}

// ValidatePhone 本地手机号（PH）：10 位数字且以 9 开头
func ValidatePhone(value string) FieldResult {
	if localPhonePattern.MatchString(strings.TrimSpace(value)) {
		return FieldResult{Valid: true}
	}
	return FieldResult{Message: MessagePhoneInvalid}
}

// FilterPhoneInput 输入过滤：去掉非数字并截断到 10 位。过滤后仍需校验。
func FilterPhoneInput(value string) string {
	digits := nonDigitPattern.ReplaceAllString(value, "")
	if len(digits) > phoneLocalMaxDigits {
		digits = digits[:phoneLocalMaxDigits]
	}
	return digits
}

// ValidateFields 依次执行三个校验
func ValidateFields(fields Fields) ValidationResult {
	return ValidationResult{
		Name:  ValidateName(fields.Name),
		Email: ValidateEmail(fields.Email),
		Phone: ValidatePhone(fields.Phone),
	}
}
