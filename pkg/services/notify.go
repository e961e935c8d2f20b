package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sitecms/pkg/content"
)

// SectionChanged announces that one locale of a section was saved.
type SectionChanged struct {
	Page    string         `json:"page"`
	Section string         `json:"section"`
	Locale  content.Locale `json:"locale"`
	// Origin is the editing session that saved, if any.
	Origin string `json:"origin,omitempty"`
}

// Notifier fans section changes out to every subscriber, including those in
// other server processes when backed by Redis.
type Notifier interface {
	Publish(ctx context.Context, ev SectionChanged) error
	// Subscribe returns once the subscription is active. fn is called from a
	// single goroutine until ctx is cancelled.
	Subscribe(ctx context.Context, fn func(SectionChanged)) error
	// Close stops all subscriptions and waits for their goroutines.
	Close() error
}

// LocalNotifier delivers changes within the process.
type LocalNotifier struct {
	log *zap.Logger

	mu     sync.Mutex
	subs   map[chan SectionChanged]struct{}
	closed bool
	wg     sync.WaitGroup
	done   chan struct{}
}

func NewLocalNotifier(log *zap.Logger) *LocalNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalNotifier{
		log:  log,
		subs: map[chan SectionChanged]struct{}{},
		done: make(chan struct{}),
	}
}

func (n *LocalNotifier) Publish(_ context.Context, ev SectionChanged) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- ev:
		default:
			n.log.Warn("subscriber queue full, dropping change", zap.String("page", ev.Page), zap.String("section", ev.Section))
		}
	}
	return nil
}

func (n *LocalNotifier) Subscribe(ctx context.Context, fn func(SectionChanged)) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return fmt.Errorf("notifier closed")
	}
	ch := make(chan SectionChanged, 64)
	n.subs[ch] = struct{}{}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		defer func() {
			n.mu.Lock()
			delete(n.subs, ch)
			n.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-n.done:
				return
			case ev := <-ch:
				fn(ev)
			}
		}
	}()
	return nil
}

func (n *LocalNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.done)
	n.mu.Unlock()
	n.wg.Wait()
	return nil
}

// RedisNotifier publishes changes as JSON on one Redis channel.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger

	mu     sync.Mutex
	subs   []*redis.PubSub
	closed bool
	wg     sync.WaitGroup
}

func NewRedisNotifier(ctx context.Context, addr, channel string, log *zap.Logger) (*RedisNotifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return &RedisNotifier{rdb: rdb, channel: channel, log: log}, nil
}

func (n *RedisNotifier) Publish(ctx context.Context, ev SectionChanged) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, n.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	return nil
}

func (n *RedisNotifier) Subscribe(ctx context.Context, fn func(SectionChanged)) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return fmt.Errorf("notifier closed")
	}
	n.mu.Unlock()

	pubsub := n.rdb.Subscribe(ctx, n.channel)
	// Wait for the subscription to be confirmed before returning.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}

	n.mu.Lock()
	n.subs = append(n.subs, pubsub)
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev SectionChanged
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					n.log.Warn("ignoring malformed change", zap.String("payload", msg.Payload), zap.Error(err))
					continue
				}
				fn(ev)
			}
		}
	}()
	return nil
}

func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	n.closed = true
	subs := n.subs
	n.subs = nil
	n.mu.Unlock()
	for _, ps := range subs {
		_ = ps.Close()
	}
	n.wg.Wait()
	return n.rdb.Close()
}
