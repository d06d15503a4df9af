package worker

import (
	"context"
	"strings"

	"github.com/checkout-widget/internal/cache"
	"github.com/checkout-widget/internal/constants"
	"github.com/checkout-widget/internal/logger"
	"github.com/checkout-widget/internal/queue"

	"github.com/hibiken/asynq"
)

// OutcomeRecorder 持久化提交结果
type OutcomeRecorder func(ctx context.Context, submissionID string, record interface{}) error

// Consumer 异步任务消费者
type Consumer struct {
	record OutcomeRecorder
}

// NewConsumer 创建消费者，recorder 为空时写入 Redis 缓存
func NewConsumer(recorder OutcomeRecorder) *Consumer {
	if recorder == nil {
		recorder = cache.SaveSubmissionOutcome
	}
	return &Consumer{record: recorder}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSubmissionOutcome, c.handleSubmissionOutcome)
}

func (c *Consumer) handleSubmissionOutcome(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_submission_outcome_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseSubmissionOutcomePayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_submission_outcome_unmarshal_failed", "error", err)
		// 载荷无法解析时重试没有意义
		return asynq.SkipRetry
	}
	if strings.TrimSpace(payload.SubmissionID) == "" {
		logger.Debugw("worker_submission_outcome_skip_invalid_payload", "instance_id", payload.InstanceID)
		return nil
	}

	fields := []interface{}{
		"submission_id", payload.SubmissionID,
		"instance_id", payload.InstanceID,
		"state", payload.State,
		"http_status", payload.HTTPStatus,
		"channel_group", payload.Channel.Group,
		"channel_method", payload.Channel.Method,
	}
	switch payload.State {
	case constants.SubmissionStateFailedNoFallback, constants.SubmissionStateFailedWithFallback:
		logger.Warnw("worker_submission_outcome_failed", fields...)
	default:
		logger.Infow("worker_submission_outcome", fields...)
	}

	if err := c.record(ctx, payload.SubmissionID, payload); err != nil {
		logger.Warnw("worker_submission_outcome_record_failed", "submission_id", payload.SubmissionID, "error", err)
		return err
	}
	return nil
}
