package constants

// 支付类型常量
const (
	PaymentTypeOneTime   = "ONE_TIME"
	PaymentTypeRecurring = "RECURRING"
)

// 周期常量（仅 RECURRING 有效）
const (
	IntervalMonthly   = "MONTHLY"
	IntervalQuarterly = "QUARTERLY"
	IntervalYearly    = "YEARLY"
)

// 支付渠道分组常量
const (
	ChannelGroupEwallets = "EWALLETS"
	ChannelGroupBank     = "BANK"
)

// 手机号常量（当前仅支持菲律宾本地号码）
const (
	PhoneCountryPH  = "PH"
	PhoneDialCodePH = "+63"
)

// 提交结果状态常量
const (
	SubmissionStateIdle               = "idle"
	SubmissionStateValidating         = "validating"
	SubmissionStateInvalid            = "invalid"
	SubmissionStateSubmitting         = "submitting"
	SubmissionStateSucceeded          = "succeeded"
	SubmissionStateFailedWithFallback = "failed_with_fallback"
	SubmissionStateFailedNoFallback   = "failed_no_fallback"
)

// 组件默认值
const (
	DefaultCurrencySymbol   = "₱"
	DefaultBrandColor       = "#111827"
	DefaultAccentColor      = "#f3f4f6"
	DefaultNameLabel        = "Full name"
	DefaultEmailLabel       = "Email"
	DefaultPhoneLabel       = "Mobile number"
	DefaultSubmitButtonText = "Pay now"
	SubmitButtonBusyText    = "Processing…"
)

// 异步任务常量
const (
	QueueDefault             = "default"
	TaskSubmissionOutcome    = "widget:submission_outcome"
	ConfigFragmentQueryParam = "cfg"
)
