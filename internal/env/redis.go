package env

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/san-kum/livegraph/internal/graph"
)

const DefaultRedisTimeout = 200 * time.Millisecond

// Popper is the part of a redis client RedisSource reads from.
type Popper interface {
	LPop(ctx context.Context, key string) *redis.StringCmd
}

// Pusher is the part of a redis client Publish writes to.
type Pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisSource relays JSON elements popped from a redis list. An empty list
// ends the source. Every pop runs under its own timeout so a stalled broker
// cannot hold up the caller for longer than that.
type RedisSource struct {
	ctx     context.Context
	client  Popper
	key     string
	timeout time.Duration
	log     *log.Logger

	err     error
	done    bool
	skipped int
}

type RedisOption func(*RedisSource)

func WithTimeout(d time.Duration) RedisOption {
	return func(s *RedisSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithRedisLogger(l *log.Logger) RedisOption {
	return func(s *RedisSource) {
		if l != nil {
			s.log = l
		}
	}
}

func NewRedisSource(ctx context.Context, client Popper, key string, opts ...RedisOption) *RedisSource {
	s := &RedisSource{
		ctx:     ctx,
		client:  client,
		key:     key,
		timeout: DefaultRedisTimeout,
		log:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis returns a client for the server at addr.
func DialRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Next pops the next element. Malformed entries are logged and skipped.
func (s *RedisSource) Next() (graph.Element, bool) {
	for !s.done {
		raw, err := s.pop()
		if errors.Is(err, redis.Nil) {
			s.done = true
			break
		}
		if err != nil {
			s.err = fmt.Errorf("env: redis pop %s: %w", s.key, err)
			s.done = true
			break
		}
		e, err := DecodeElement([]byte(raw))
		if err != nil {
			s.skipped++
			s.log.Warn("skipping feed entry", "key", s.key, "err", err)
			continue
		}
		return e, true
	}
	return graph.Element{}, false
}

func (s *RedisSource) pop() (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	return s.client.LPop(ctx, s.key).Result()
}

// Err reports the failure that ended the source, if any.
func (s *RedisSource) Err() error { return s.err }

// Skipped returns the number of malformed entries dropped so far.
func (s *RedisSource) Skipped() int { return s.skipped }

// Publish appends the feed of s to the list at key, in order. It returns the
// number of elements written.
func Publish(ctx context.Context, client Pusher, key string, s graph.Snapshot) (int, error) {
	elems := Collect(s)
	if len(elems) == 0 {
		return 0, nil
	}
	values := make([]interface{}, 0, len(elems))
	for _, e := range elems {
		b, err := EncodeElement(e)
		if err != nil {
			return 0, err
		}
		values = append(values, string(b))
	}
	if err := client.RPush(ctx, key, values...).Err(); err != nil {
		return 0, fmt.Errorf("env: redis push %s: %w", key, err)
	}
	return len(values), nil
}
