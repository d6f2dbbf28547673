package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hadoop_monitor/config"
	"hadoop_monitor/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAppendOnly checks the behaviour every backend shares.
func testAppendOnly(t *testing.T, s Store) {
	ctx := context.Background()

	first, err := s.Insert(ctx, types.HdfsCapacity, types.Document{"total": json.Number("1000")}, "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = s.Insert(ctx, types.YarnContainers, types.ErrorDocument("connection refused"), "prod")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	third, err := s.Insert(ctx, types.HdfsCapacity, types.Document{"total": json.Number("1000")}, "")
	require.NoError(t, err)

	assert.Equal(t, types.DefaultClusterName, first.ClusterName)
	assert.NotEqual(t, first.ID, third.ID)
	assert.True(t, third.Timestamp.After(first.Timestamp))

	all, err := s.ListRecent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID)
	assert.Equal(t, types.YarnContainers, all[1].Kind)
	assert.Equal(t, "prod", all[1].ClusterName)
	assert.Equal(t, first.ID, all[2].ID)

	capacity, err := s.ListRecent(ctx, types.HdfsCapacity, 0)
	require.NoError(t, err)
	require.Len(t, capacity, 2)
	assert.Equal(t, capacity[0].Value, capacity[1].Value)
	assert.Equal(t, types.Document{"total": json.Number("1000")}, capacity[0].Value)

	limited, err := s.ListRecent(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, third.ID, limited[0].ID)

	none, err := s.ListRecent(ctx, types.HiveQueries, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore(t *testing.T) {
	testAppendOnly(t, NewMemoryStore(0))
}

func TestMemoryStore_MaxRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	for i := 0; i < 3; i++ {
		_, err := s.Insert(ctx, types.HdfsUsage, types.Document{"used": i}, "")
		require.NoError(t, err)
	}
	_, err := s.Insert(ctx, types.ClusterHealth, types.Document{}, "")
	require.NoError(t, err)

	usage, err := s.ListRecent(ctx, types.HdfsUsage, 0)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, json.Number("2"), usage[0].Value["used"])
	assert.Equal(t, json.Number("1"), usage[1].Value["used"])

	health, err := s.ListRecent(ctx, types.ClusterHealth, 0)
	require.NoError(t, err)
	assert.Len(t, health, 1)
}

func TestMemoryStore_RecordsAreImmutable(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	value := types.Document{"total": json.Number("1000")}
	r, err := s.Insert(ctx, types.HdfsCapacity, value, "")
	require.NoError(t, err)
	r.ClusterName = "mutated"
	r.Value["returned"] = true
	value["total"] = 1

	list, err := s.ListRecent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	list[0].Value["injected"] = true

	list, err = s.ListRecent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, types.DefaultClusterName, list[0].ClusterName)
	assert.Equal(t, types.Document{"total": json.Number("1000")}, list[0].Value)
}

func TestMemoryStore_MaxRecordsKeepsOrderAcrossKinds(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(1)

	for _, kind := range []types.MetricKind{types.HdfsUsage, types.YarnContainers, types.HdfsUsage, types.HiveQueries} {
		_, err := s.Insert(ctx, kind, types.Document{}, "")
		require.NoError(t, err)
	}

	all, err := s.ListRecent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, types.HiveQueries, all[0].Kind)
	assert.Equal(t, types.HdfsUsage, all[1].Kind)
	assert.Equal(t, types.YarnContainers, all[2].Kind)
}

func newMiniRedisStore(t *testing.T, c config.Redis, maxRecords int) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	c.Address = mr.Addr()
	if c.KeyPrefix == "" {
		c.KeyPrefix = "hadoop_monitor:"
	}
	s, err := NewRedisStore(c, maxRecords)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, mr := newMiniRedisStore(t, config.Redis{}, 0)
	testAppendOnly(t, s)

	assert.True(t, mr.Exists("hadoop_monitor:records:HDFS_CAPACITY"))
	assert.True(t, mr.Exists("hadoop_monitor:records:YARN_CONTAINERS"))
}

func TestRedisStore_MaxRecords(t *testing.T) {
	ctx := context.Background()
	s, _ := newMiniRedisStore(t, config.Redis{}, 2)

	for i := 0; i < 4; i++ {
		_, err := s.Insert(ctx, types.MapReduceJobs, types.Document{"total_jobs": i}, "")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	records, err := s.ListRecent(ctx, types.MapReduceJobs, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, json.Number("3"), records[0].Value["total_jobs"])
	assert.Equal(t, json.Number("2"), records[1].Value["total_jobs"])
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniRedisStore(t, config.Redis{TTLSec: 60}, 0)

	old := types.NewMetricRecord(types.HdfsUsage, types.Document{"used": 1}, "")
	old.Timestamp = time.Now().Add(-2 * time.Hour).UTC()
	data, err := marshalRecord(old)
	require.NoError(t, err)
	_, err = mr.ZAdd("hadoop_monitor:records:HDFS_USAGE", float64(old.Timestamp.UnixMicro()), string(data))
	require.NoError(t, err)

	fresh, err := s.Insert(ctx, types.HdfsUsage, types.Document{"used": 2}, "")
	require.NoError(t, err)

	records, err := s.ListRecent(ctx, types.HdfsUsage, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fresh.ID, records[0].ID)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(config.Redis{Address: addr}, 0)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	s, err := New(config.Store{Type: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	mr := miniredis.RunT(t)
	s, err = New(config.Store{Type: config.StoreRedis, Redis: config.Redis{Address: mr.Addr(), KeyPrefix: "x:"}})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(config.Store{Type: "cassandra"})
	assert.Error(t, err)
}
