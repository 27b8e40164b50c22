// Package evalstore indexes trajectory summaries in Redis so batch results
// can be queried without re-reading the trajectory directories.
package evalstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/entrhq/webeval/pkg/logging"
	"github.com/entrhq/webeval/pkg/trajectory"
)

// ErrNotFound is returned by Get for a name that was never indexed.
var ErrNotFound = errors.New("trajectory summary not found")

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("evalstore")
	if err != nil {
		debugLog.Warnf("Failed to initialize evalstore logger, using stderr fallback: %v", err)
	}
}

// Options configures the Redis connection.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Index stores one JSON summary per trajectory under <prefix>summary:<name>
// and keeps the indexed names in the set <prefix>trajectories.
type Index struct {
	rdb    redis.Cmdable
	closer func() error
	prefix string
}

// New connects to Redis and checks the connection.
func New(ctx context.Context, opts Options) (*Index, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	debugLog.Infof("Connected to redis at %s (db %d)", opts.Addr, opts.DB)

	idx := NewWithClient(client, opts.KeyPrefix)
	idx.closer = client.Close
	return idx, nil
}

// NewWithClient wraps an existing client. Close does not close it.
func NewWithClient(rdb redis.Cmdable, prefix string) *Index {
	return &Index{rdb: rdb, prefix: prefix}
}

func (i *Index) setKey() string {
	return i.prefix + "trajectories"
}

func (i *Index) summaryKey(name string) string {
	return i.prefix + "summary:" + name
}

// Put stores s under its name, replacing any previous summary.
func (i *Index) Put(ctx context.Context, s trajectory.Summary) error {
	if s.Name == "" {
		return errors.New("summary has no name")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	_, err = i.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, i.summaryKey(s.Name), data, 0)
		pipe.SAdd(ctx, i.setKey(), s.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", s.Name, err)
	}
	debugLog.Debugf("Indexed trajectory %s", s.Name)
	return nil
}

// Get returns the summary stored for name.
func (i *Index) Get(ctx context.Context, name string) (trajectory.Summary, error) {
	var s trajectory.Summary

	data, err := i.rdb.Get(ctx, i.summaryKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return s, fmt.Errorf("failed to read summary %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to decode summary %s: %w", name, err)
	}
	return s, nil
}

// Names returns the indexed trajectory names, sorted.
func (i *Index) Names(ctx context.Context) ([]string, error) {
	names, err := i.rdb.SMembers(ctx, i.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list trajectories: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// List returns every indexed summary ordered by name. Names whose summary
// has expired or been removed out of band are dropped from the set.
func (i *Index) List(ctx context.Context) ([]trajectory.Summary, error) {
	names, err := i.Names(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []trajectory.Summary{}, nil
	}

	keys := make([]string, len(names))
	for n, name := range names {
		keys[n] = i.summaryKey(name)
	}
	values, err := i.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read summaries: %w", err)
	}

	summaries := make([]trajectory.Summary, 0, len(names))
	var stale []any
	for n, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, names[n])
			continue
		}
		var s trajectory.Summary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("failed to decode summary %s: %w", names[n], err)
		}
		summaries = append(summaries, s)
	}

	if len(stale) > 0 {
		debugLog.Warnf("Dropping %d stale trajectory names from the index", len(stale))
		if err := i.rdb.SRem(ctx, i.setKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune index: %w", err)
		}
	}
	return summaries, nil
}

// Delete removes name from the index. Deleting an unknown name is not an
// error.
func (i *Index) Delete(ctx context.Context, name string) error {
	_, err := i.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, i.summaryKey(name))
		pipe.SRem(ctx, i.setKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// Close releases the connection opened by New.
func (i *Index) Close() error {
	if i.closer == nil {
		return nil
	}
	return i.closer()
}
