// Package scheduler runs deferred lead distribution on asynq and sweeps the
// fallback queue on an interval.
package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"homni_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultRetryDelay = 5 * time.Minute

type Client struct {
	client     *asynq.Client
	queue      string
	retryDelay time.Duration
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newClient(opt, cfg.GetAsynqQueueName(), cfg.GetDistributionRetryDelay()), nil
}

func newClient(opt asynq.RedisConnOpt, queue string, retryDelay time.Duration) *Client {
	if queue == "" {
		queue = "default"
	}
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &Client{
		client:     asynq.NewClient(opt),
		queue:      queue,
		retryDelay: retryDelay,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleDistributionRetry enqueues a delayed distribution attempt. A retry
// that is already pending for the lead counts as success.
func (c *Client) ScheduleDistributionRetry(ctx context.Context, leadID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewDistributeLeadTask(DistributeLeadPayload{LeadID: leadID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.TaskID(distributionTaskID(leadID)),
		asynq.ProcessIn(c.retryDelay),
		asynq.MaxRetry(maxDistributionRetries),
		asynq.Queue(c.queue),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
