package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"hadoop_monitor/config"
	"hadoop_monitor/types"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one sorted set per kind scored by capture time in
// microseconds. Members are the JSON records.
type RedisStore struct {
	client     redis.UniversalClient
	keyPrefix  string
	ttl        time.Duration
	maxRecords int
}

func NewRedisStore(c config.Redis, maxRecords int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         c.Address,
		Password:     c.Password,
		DB:           c.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", c.Address, err)
	}
	return newRedisStore(client, c, maxRecords), nil
}

func newRedisStore(client redis.UniversalClient, c config.Redis, maxRecords int) *RedisStore {
	return &RedisStore{
		client:     client,
		keyPrefix:  c.KeyPrefix,
		ttl:        time.Duration(c.TTLSec) * time.Second,
		maxRecords: maxRecords,
	}
}

func (s *RedisStore) key(kind types.MetricKind) string {
	return s.keyPrefix + "records:" + string(kind)
}

func (s *RedisStore) Insert(ctx context.Context, kind types.MetricKind, value types.Document, clusterName string) (*types.MetricRecord, error) {
	record := types.NewMetricRecord(kind, value, clusterName)
	data, err := marshalRecord(record)
	if err != nil {
		return nil, err
	}

	key := s.key(kind)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(record.Timestamp.UnixMicro()), Member: data})
		if s.ttl > 0 {
			cutoff := record.Timestamp.Add(-s.ttl).UnixMicro()
			pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		}
		if s.maxRecords > 0 {
			pipe.ZRemRangeByRank(ctx, key, 0, int64(-s.maxRecords-1))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store %s record: %w", kind, err)
	}
	return record, nil
}

func (s *RedisStore) ListRecent(ctx context.Context, kind types.MetricKind, limit int) ([]*types.MetricRecord, error) {
	kinds := types.AllKinds
	if kind != "" {
		kinds = []types.MetricKind{kind}
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	var records []*types.MetricRecord
	for _, k := range kinds {
		members, err := s.client.ZRevRange(ctx, s.key(k), 0, stop).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list %s records: %w", k, err)
		}
		for _, m := range members {
			r, err := unmarshalRecord([]byte(m))
			if err != nil {
				return nil, fmt.Errorf("corrupt record in %s: %w", s.key(k), err)
			}
			records = append(records, r)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
