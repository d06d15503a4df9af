package queue

import (
	"encoding/json"

	"github.com/checkout-widget/internal/constants"
	"github.com/checkout-widget/internal/widget"

	"github.com/hibiken/asynq"
)

const (
	// TaskSubmissionOutcome 提交结果事件任务
	TaskSubmissionOutcome = constants.TaskSubmissionOutcome
)

// SubmissionOutcomePayload 提交结果任务载荷
type SubmissionOutcomePayload = widget.OutcomeEvent

// NewSubmissionOutcomeTask 创建提交结果任务
func NewSubmissionOutcomeTask(payload SubmissionOutcomePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSubmissionOutcome, body), nil
}

// ParseSubmissionOutcomePayload 解析提交结果任务载荷
func ParseSubmissionOutcomePayload(body []byte) (SubmissionOutcomePayload, error) {
	var payload SubmissionOutcomePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return SubmissionOutcomePayload{}, err
	}
	return payload, nil
}
