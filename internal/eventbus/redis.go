// Package eventbus provides the optional Redis Streams transport for
// observability events. It is a thin wrapper over go-redis XADD /
// XREADGROUP with a consumer group, so the observatory can pick up
// events published while it was restarting.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventStream is the stream all Maestro services publish to.
const EventStream = "maestro:events"

// ConsumerGroup is the observatory's consumer group name.
const ConsumerGroup = "observatory"

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Message is one entry read from the stream.
type Message struct {
	ID     string
	Values map[string]any
}

// Publisher publishes events to the stream.
type Publisher struct {
	rdb    *redis.Client
	stream string
}

// NewPublisher connects to Redis and validates the connection.
func NewPublisher(cfg Config) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Publisher{rdb: rdb, stream: EventStream}, nil
}

// Publish appends values to the stream with XADD.
func (p *Publisher) Publish(ctx context.Context, values map[string]any) error {
	err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

// Subscriber reads events from the stream via a consumer group.
type Subscriber struct {
	rdb      *redis.Client
	stream   string
	group    string
	consumer string
	logger   *slog.Logger
}

// NewSubscriber connects to Redis and ensures the consumer group
// exists.
func NewSubscriber(cfg Config, consumer string, logger *slog.Logger) (*Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	// Ignore BUSYGROUP when the group already exists.
	rdb.XGroupCreateMkStream(ctx, EventStream, ConsumerGroup, "0")

	return &Subscriber{
		rdb:      rdb,
		stream:   EventStream,
		group:    ConsumerGroup,
		consumer: consumer,
		logger:   logger,
	}, nil
}

// Subscribe starts the read loop and returns the message channel. The
// channel closes when ctx is cancelled.
func (s *Subscriber) Subscribe(ctx context.Context) <-chan Message {
	msgChan := make(chan Message, 100)
	go s.readLoop(ctx, msgChan)
	return msgChan
}

func (s *Subscriber) readLoop(ctx context.Context, msgChan chan<- Message) {
	defer close(msgChan)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, ">"},
			Count:    10,
			Block:    time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("Redis read error", "error", err)
			continue
		}

		for _, result := range results {
			for _, msg := range result.Messages {
				select {
				case <-ctx.Done():
					return
				case msgChan <- Message{ID: msg.ID, Values: msg.Values}:
				}
				s.rdb.XAck(ctx, s.stream, s.group, msg.ID)
			}
		}
	}
}

// Close closes the Redis connection.
func (s *Subscriber) Close() error {
	return s.rdb.Close()
}
