package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultRateChannel is the Pub/Sub channel for commission rate changes
	DefaultRateChannel = "markethub:commission:rates"

	closeTimeout = 5 * time.Second
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RateChangeMessage announces that a commission configuration changed.
// Scope is "global", "store" or "category"; TargetID carries the store or
// category UUID for the scoped variants.
type RateChangeMessage struct {
	Scope     string `json:"scope"`
	TargetID  string `json:"target_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// RedisRateInvalidator broadcasts commission rate changes over Redis
// Pub/Sub so every instance drops its cached global configuration
type RedisRateInvalidator struct {
	client     *redis.Client
	ownsClient bool
	channel    string
	logger     *zap.Logger
	cancelFn   context.CancelFunc
	doneCh     chan struct{}
	doneOnce   sync.Once
	mu         sync.Mutex
	isRunning  bool
}

// RedisRateInvalidatorOption is a functional option for the invalidator
type RedisRateInvalidatorOption func(*RedisRateInvalidator)

// WithRateChannel sets the Pub/Sub channel name
func WithRateChannel(channel string) RedisRateInvalidatorOption {
	return func(i *RedisRateInvalidator) {
		i.channel = channel
	}
}

// WithRateInvalidatorLogger sets the logger
func WithRateInvalidatorLogger(logger *zap.Logger) RedisRateInvalidatorOption {
	return func(i *RedisRateInvalidator) {
		i.logger = logger
	}
}

// NewRedisRateInvalidator creates an invalidator with its own Redis client
func NewRedisRateInvalidator(cfg RedisConfig, opts ...RedisRateInvalidatorOption) (*RedisRateInvalidator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	invalidator := &RedisRateInvalidator{
		client:     client,
		ownsClient: true,
		channel:    DefaultRateChannel,
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(invalidator)
	}
	return invalidator, nil
}

// NewRedisRateInvalidatorWithClient creates an invalidator with a shared
// Redis client. The caller retains ownership of the client.
func NewRedisRateInvalidatorWithClient(client *redis.Client, opts ...RedisRateInvalidatorOption) *RedisRateInvalidator {
	invalidator := &RedisRateInvalidator{
		client:     client,
		ownsClient: false,
		channel:    DefaultRateChannel,
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(invalidator)
	}
	return invalidator
}

// Publish broadcasts a rate change to all subscribers
func (i *RedisRateInvalidator) Publish(ctx context.Context, msg RateChangeMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixNano()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		i.logger.Error("Failed to publish rate change message",
			zap.String("channel", i.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	i.logger.Debug("Published rate change message",
		zap.String("scope", msg.Scope),
		zap.String("target_id", msg.TargetID))
	return nil
}

// PublishGlobalChange announces that the global configuration changed
func (i *RedisRateInvalidator) PublishGlobalChange(ctx context.Context) error {
	return i.Publish(ctx, RateChangeMessage{Scope: "global"})
}

// PublishStoreChange announces that a store's override changed
func (i *RedisRateInvalidator) PublishStoreChange(ctx context.Context, storeID uuid.UUID) error {
	return i.Publish(ctx, RateChangeMessage{Scope: "store", TargetID: storeID.String()})
}

// PublishCategoryChange announces that a category's override changed
func (i *RedisRateInvalidator) PublishCategoryChange(ctx context.Context, categoryID uuid.UUID) error {
	return i.Publish(ctx, RateChangeMessage{Scope: "category", TargetID: categoryID.String()})
}

// Subscribe listens for rate change messages and invokes the callback for
// each one. Blocks until the context is cancelled; run it in a goroutine.
func (i *RedisRateInvalidator) Subscribe(ctx context.Context, callback func(msg RateChangeMessage)) error {
	i.mu.Lock()
	if i.isRunning {
		i.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	i.isRunning = true
	i.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	i.mu.Lock()
	i.cancelFn = cancel
	i.mu.Unlock()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		i.mu.Lock()
		i.isRunning = false
		i.mu.Unlock()
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	i.logger.Info("Subscribed to commission rate channel",
		zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			i.mu.Lock()
			i.isRunning = false
			i.mu.Unlock()
			i.markDone()
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				i.logger.Warn("Commission rate channel closed")
				i.mu.Lock()
				i.isRunning = false
				i.mu.Unlock()
				i.markDone()
				return nil
			}

			var change RateChangeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				i.logger.Error("Failed to unmarshal rate change message",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}

			callback(change)
		}
	}
}

// markDone safely marks the invalidator as done
func (i *RedisRateInvalidator) markDone() {
	i.doneOnce.Do(func() {
		close(i.doneCh)
	})
}

// Close stops the subscription and releases the client if owned
func (i *RedisRateInvalidator) Close() error {
	i.mu.Lock()
	cancelFn := i.cancelFn
	i.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-i.doneCh:
		case <-time.After(closeTimeout):
			i.logger.Warn("Timeout waiting for subscription to stop")
		}
	}

	if i.ownsClient {
		return i.client.Close()
	}
	return nil
}
