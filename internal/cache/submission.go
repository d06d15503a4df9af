package cache

import (
	"context"
	"strings"
	"time"
)

// SubmissionOutcomeTTL 提交结果保留时长
const SubmissionOutcomeTTL = 24 * time.Hour

func submissionOutcomeKey(submissionID string) string {
	return "submission:" + strings.TrimSpace(submissionID)
}

// SaveSubmissionOutcome 记录提交结果
func SaveSubmissionOutcome(ctx context.Context, submissionID string, record interface{}) error {
	if strings.TrimSpace(submissionID) == "" {
		return nil
	}
	return SetJSON(ctx, submissionOutcomeKey(submissionID), record, SubmissionOutcomeTTL)
}

// LoadSubmissionOutcome 读取提交结果，不存在或未启用缓存时返回 false
func LoadSubmissionOutcome(ctx context.Context, submissionID string, dest interface{}) (bool, error) {
	if strings.TrimSpace(submissionID) == "" {
		return false, nil
	}
	return GetJSON(ctx, submissionOutcomeKey(submissionID), dest)
}
