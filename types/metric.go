package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultClusterName = "default"

type MetricKind string

const (
	HdfsCapacity   MetricKind = "HDFS_CAPACITY"
	HdfsUsage      MetricKind = "HDFS_USAGE"
	MapReduceJobs  MetricKind = "MAPREDUCE_JOBS"
	YarnContainers MetricKind = "YARN_CONTAINERS"
	HiveQueries    MetricKind = "HIVE_QUERIES"
	ClusterHealth  MetricKind = "CLUSTER_HEALTH"
)

// CollectableKinds are the kinds produced by metric collection, in the order
// they are collected by default. CLUSTER_HEALTH comes from health checks only.
var CollectableKinds = []MetricKind{
	HdfsCapacity,
	HdfsUsage,
	MapReduceJobs,
	YarnContainers,
	HiveQueries,
}

// AllKinds is the closed set of kinds a record can have.
var AllKinds = append(append([]MetricKind(nil), CollectableKinds...), ClusterHealth)

// aliases accepted in configuration files next to the upper case names.
var kindAliases = map[string]MetricKind{
	"hdfs_capacity":   HdfsCapacity,
	"hdfs_used":       HdfsUsage,
	"hdfs_usage":      HdfsUsage,
	"mapreduce_jobs":  MapReduceJobs,
	"yarn_containers": YarnContainers,
	"hive_queries":    HiveQueries,
	"cluster_health":  ClusterHealth,
}

func ParseMetricKind(s string) (MetricKind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown metric kind %q", s)
}

func (k MetricKind) String() string {
	return string(k)
}

// Slug is the lower case form used in URLs, e.g. hdfs_capacity.
func (k MetricKind) Slug() string {
	return strings.ToLower(string(k))
}

func (k *MetricKind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseMetricKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Document is a structured metric value. A degraded value is the
// error-shaped document {"error": "<message>"}.
type Document map[string]interface{}

func ErrorDocument(message string) Document {
	return Document{"error": message}
}

// ErrorMessage reports whether d is error-shaped and returns its message.
func (d Document) ErrorMessage() (string, bool) {
	v, ok := d["error"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MetricRecord is one persisted, immutable snapshot.
type MetricRecord struct {
	ID          string     `json:"id"`
	Kind        MetricKind `json:"metric_type"`
	Value       Document   `json:"value"`
	Timestamp   time.Time  `json:"timestamp"`
	ClusterName string     `json:"cluster_name"`
}

func NewMetricRecord(kind MetricKind, value Document, clusterName string) *MetricRecord {
	if clusterName == "" {
		clusterName = DefaultClusterName
	}
	return &MetricRecord{
		ID:          uuid.NewString(),
		Kind:        kind,
		Value:       value,
		Timestamp:   time.Now().UTC(),
		ClusterName: clusterName,
	}
}

// CollectionResult is the outcome of one collection run, one entry per
// enabled kind. It is never persisted as a whole.
type CollectionResult map[MetricKind]Document
