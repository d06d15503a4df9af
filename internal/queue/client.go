package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/checkout-widget/internal/config"
	"github.com/checkout-widget/internal/constants"
	"github.com/checkout-widget/internal/widget"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	outcomeTaskRetention = 24 * time.Hour
	outcomeTaskMaxRetry  = 3
)

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	client := asynq.NewClient(buildRedisOpt(cfg))
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// PublishOutcome 推送提交结果事件；队列未启用时直接忽略
func (c *Client) PublishOutcome(ctx context.Context, event widget.OutcomeEvent) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewSubmissionOutcomeTask(event)
	if err != nil {
		return err
	}
	options := []asynq.Option{
		asynq.Queue(c.defaultQueue),
		asynq.MaxRetry(outcomeTaskMaxRetry),
		asynq.Retention(outcomeTaskRetention),
	}
	if id := strings.TrimSpace(event.SubmissionID); id != "" {
		options = append(options, asynq.TaskID("outcome:"+id))
	}
	_, err = c.client.EnqueueContext(ctx, task, options...)
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 5
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
