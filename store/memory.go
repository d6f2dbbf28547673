package store

import (
	"context"
	"sync"

	"hadoop_monitor/types"
)

// memoryRecord is a record frozen at insert time. seq orders records of
// different kinds by insertion.
type memoryRecord struct {
	seq  uint64
	data []byte
}

// MemoryStore keeps serialized records per kind in insertion order, so
// neither the inserted value nor a listed record can change what is stored.
// maxRecords caps the number kept per kind; zero keeps everything.
type MemoryStore struct {
	mu         sync.RWMutex
	seq        uint64
	records    map[types.MetricKind][]memoryRecord
	maxRecords int
}

func NewMemoryStore(maxRecords int) *MemoryStore {
	return &MemoryStore{
		records:    make(map[types.MetricKind][]memoryRecord),
		maxRecords: maxRecords,
	}
}

func (s *MemoryStore) Insert(_ context.Context, kind types.MetricKind, value types.Document, clusterName string) (*types.MetricRecord, error) {
	record := types.NewMetricRecord(kind, value, clusterName)
	data, err := marshalRecord(record)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.seq++
	kept := append(s.records[kind], memoryRecord{seq: s.seq, data: data})
	if s.maxRecords > 0 && len(kept) > s.maxRecords {
		kept = kept[len(kept)-s.maxRecords:]
	}
	s.records[kind] = kept
	s.mu.Unlock()

	return unmarshalRecord(data)
}

func (s *MemoryStore) ListRecent(_ context.Context, kind types.MetricKind, limit int) ([]*types.MetricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lists [][]memoryRecord
	if kind != "" {
		lists = append(lists, s.records[kind])
	} else {
		for _, k := range types.AllKinds {
			lists = append(lists, s.records[k])
		}
	}

	// walk every list from its newest end, taking the highest seq each step
	next := make([]int, len(lists))
	for i, l := range lists {
		next[i] = len(l) - 1
	}
	var out []*types.MetricRecord
	for limit <= 0 || len(out) < limit {
		pick := -1
		for i, l := range lists {
			if next[i] < 0 {
				continue
			}
			if pick < 0 || l[next[i]].seq > lists[pick][next[pick]].seq {
				pick = i
			}
		}
		if pick < 0 {
			break
		}
		r, err := unmarshalRecord(lists[pick][next[pick]].data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		next[pick]--
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
