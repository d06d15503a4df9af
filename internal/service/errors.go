package service

import "errors"

var (
	ErrWidgetConfigInvalid  = errors.New("widget config invalid")
	ErrWidgetConfigTooLarge = errors.New("widget config too large")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrInstanceIDInvalid    = errors.New("widget instance id invalid")
	ErrWebhookNotAllowed    = errors.New("webhook destination not allowed")
)
