package widget

import (
	"github.com/checkout-widget/internal/http/handlers/shared"
	"github.com/checkout-widget/internal/http/response"
	"github.com/checkout-widget/internal/service"
	widgetcore "github.com/checkout-widget/internal/widget"
)

// 组件相关错误文案
const (
	msgConfigInvalid      = "Invalid widget configuration."
	msgConfigTooLarge     = "Widget configuration is too large."
	msgInstanceInvalid    = "Invalid widget instance."
	msgChannelGroup       = "Invalid payment channel group."
	msgChannelNotOffered  = "Selected payment channel is not available."
	msgSubmissionInFlight = "A payment is already being processed."
	msgSubmissionNotFound = "Submission not found."
	msgWebhookNotAllowed  = "Webhook destination is not allowed."
	msgInternal           = "Something went wrong. Please try again."
)

var widgetErrorRules = []shared.MappedError{
	{Target: service.ErrWidgetConfigInvalid, Code: response.CodeBadRequest, Message: msgConfigInvalid},
	{Target: service.ErrWidgetConfigTooLarge, Code: response.CodeBadRequest, Message: msgConfigTooLarge},
	{Target: service.ErrInstanceIDInvalid, Code: response.CodeBadRequest, Message: msgInstanceInvalid},
	{Target: widgetcore.ErrChannelGroupInvalid, Code: response.CodeBadRequest, Message: msgChannelGroup},
	{Target: widgetcore.ErrChannelNotOffered, Code: response.CodeBadRequest, Message: msgChannelNotOffered},
	{Target: widgetcore.ErrSubmissionInFlight, Code: response.CodeConflict, Message: msgSubmissionInFlight},
	{Target: service.ErrSubmissionNotFound, Code: response.CodeNotFound, Message: msgSubmissionNotFound},
	{Target: service.ErrWebhookNotAllowed, Code: response.CodeForbidden, Message: msgWebhookNotAllowed},
}

var internalErrorRule = shared.MappedError{Code: response.CodeInternal, Message: msgInternal}
