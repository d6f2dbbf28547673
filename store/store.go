// Package store persists metric records. Every backend is append-only:
// records are inserted and listed, never updated. Retention, when
// configured, only drops the oldest records.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hadoop_monitor/config"
	"hadoop_monitor/types"
)

type Store interface {
	Insert(ctx context.Context, kind types.MetricKind, value types.Document, clusterName string) (*types.MetricRecord, error)
	// ListRecent returns records newest first. An empty kind matches every
	// kind and a limit <= 0 returns everything.
	ListRecent(ctx context.Context, kind types.MetricKind, limit int) ([]*types.MetricRecord, error)
	Close() error
}

// New builds the backend selected in configuration.
func New(c config.Store) (Store, error) {
	switch c.Type {
	case config.StoreMemory, "":
		return NewMemoryStore(c.MaxRecords), nil
	case config.StoreRedis:
		return NewRedisStore(c.Redis, c.MaxRecords)
	case config.StorePostgres:
		return NewPostgresStore(c.Postgres.DSN)
	default:
		return nil, fmt.Errorf("unknown store type %q", c.Type)
	}
}

func decodeDocument(data []byte) (types.Document, error) {
	var doc types.Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// storedRecord is the serialized form shared by the redis backend.
type storedRecord struct {
	ID          string          `json:"id"`
	Kind        string          `json:"metric_type"`
	Value       json.RawMessage `json:"value"`
	Timestamp   time.Time       `json:"timestamp"`
	ClusterName string          `json:"cluster_name"`
}

func marshalRecord(r *types.MetricRecord) ([]byte, error) {
	value, err := json.Marshal(r.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s value: %w", r.Kind, err)
	}
	return json.Marshal(storedRecord{
		ID:          r.ID,
		Kind:        string(r.Kind),
		Value:       value,
		Timestamp:   r.Timestamp,
		ClusterName: r.ClusterName,
	})
}

func unmarshalRecord(data []byte) (*types.MetricRecord, error) {
	var sr storedRecord
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, err
	}
	value, err := decodeDocument(sr.Value)
	if err != nil {
		return nil, err
	}
	return &types.MetricRecord{
		ID:          sr.ID,
		Kind:        types.MetricKind(sr.Kind),
		Value:       value,
		Timestamp:   sr.Timestamp,
		ClusterName: sr.ClusterName,
	}, nil
}
