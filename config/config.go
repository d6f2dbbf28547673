package config

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"time"

	"hadoop_monitor/types"

	"gopkg.in/yaml.v2"
)

const DefaultConfigPath = "./hadoop_monitor.yaml"

const (
	NameNode        = "namenode"
	ResourceManager = "resourcemanager"
	HistoryServer   = "historyserver"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// kindEndpoints lists the endpoint each collectable kind polls. Kinds absent
// here (HIVE_QUERIES) need no endpoint.
var kindEndpoints = map[types.MetricKind]string{
	types.HdfsCapacity:   NameNode,
	types.HdfsUsage:      NameNode,
	types.MapReduceJobs:  HistoryServer,
	types.YarnContainers: ResourceManager,
}

// EndpointFor returns the logical endpoint name polled for kind.
func EndpointFor(kind types.MetricKind) (string, bool) {
	name, ok := kindEndpoints[kind]
	return name, ok
}

type HadoopMonitorConfig struct {
	ClusterName       string            `yaml:"clusterName"`
	Endpoints         map[string]string `yaml:"endpoints"`
	MetricsCollection MetricsCollection `yaml:"metricsCollection"`
	HealthCheck       HealthCheck       `yaml:"healthCheck"`
	HTTP              HTTP              `yaml:"http"`
	Store             Store             `yaml:"store"`
	API               API               `yaml:"api"`
	Logging           Logging           `yaml:"logging"`
	Notify            Notify            `yaml:"notify"`
}

type MetricsCollection struct {
	Enabled     *bool              `yaml:"enabled"`
	IntervalSec int                `yaml:"intervalSec"`
	Metrics     []types.MetricKind `yaml:"metrics"`
}

func (m MetricsCollection) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

func (m MetricsCollection) Interval() time.Duration {
	return time.Duration(m.IntervalSec) * time.Second
}

type HealthCheck struct {
	IntervalSec int `yaml:"intervalSec"`
}

func (h HealthCheck) Interval() time.Duration {
	return time.Duration(h.IntervalSec) * time.Second
}

// HTTP tunes the client used for every endpoint fetch. A zero TimeoutSec
// keeps the transport default.
type HTTP struct {
	TimeoutSec   int `yaml:"timeoutSec"`
	RetryCount   int `yaml:"retryCount"`
	RetryWaitSec int `yaml:"retryWaitSec"`
}

type Store struct {
	Type       string   `yaml:"type"`
	MaxRecords int      `yaml:"maxRecords"`
	Redis      Redis    `yaml:"redis"`
	Postgres   Postgres `yaml:"postgres"`
}

type Redis struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
	TTLSec    int    `yaml:"ttlSec"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type API struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	SystemLog bool   `yaml:"systemLog"`
}

type Notify struct {
	Enabled   bool     `yaml:"enabled"`
	NodeName  string   `yaml:"nodeName"`
	SmtpHost  string   `yaml:"smtpHost"`
	SmtpPort  int      `yaml:"smtpPort"`
	From      string   `yaml:"from"`
	Password  string   `yaml:"password"`
	Receivers []string `yaml:"receivers"`
}

// Default mirrors a single-node cluster with every service on localhost.
func Default() *HadoopMonitorConfig {
	c := &HadoopMonitorConfig{}
	c.applyDefaults()
	return c
}

// Load reads, defaults and validates the yaml file at path.
func Load(path string) (*HadoopMonitorConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadFrom(file)
}

func LoadFrom(r io.Reader) (*HadoopMonitorConfig, error) {
	stream, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := &HadoopMonitorConfig{}
	if err := yaml.Unmarshal(stream, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *HadoopMonitorConfig) applyDefaults() {
	if c.ClusterName == "" {
		c.ClusterName = types.DefaultClusterName
	}
	if c.Endpoints == nil {
		c.Endpoints = map[string]string{
			NameNode:        "http://localhost:50070/jmx",
			ResourceManager: "http://localhost:8088/jmx",
			HistoryServer:   "http://localhost:19888/jmx",
		}
	}
	if c.MetricsCollection.IntervalSec == 0 {
		c.MetricsCollection.IntervalSec = 60
	}
	if c.MetricsCollection.Metrics == nil {
		c.MetricsCollection.Metrics = append([]types.MetricKind(nil), types.CollectableKinds...)
	}
	c.MetricsCollection.Metrics = dedupe(c.MetricsCollection.Metrics)
	if c.HealthCheck.IntervalSec == 0 {
		c.HealthCheck.IntervalSec = 300
	}
	if c.Store.Type == "" {
		c.Store.Type = StoreMemory
	}
	if c.Store.Redis.Address == "" {
		c.Store.Redis.Address = "localhost:6379"
	}
	if c.Store.Redis.KeyPrefix == "" {
		c.Store.Redis.KeyPrefix = "hadoop_monitor:"
	}
	if c.API.Port == 0 {
		c.API.Port = 8000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Notify.SmtpPort == 0 {
		c.Notify.SmtpPort = 587
	}
	if c.Notify.NodeName == "" {
		c.Notify.NodeName = c.ClusterName
	}
}

func dedupe(kinds []types.MetricKind) []types.MetricKind {
	seen := make(map[types.MetricKind]bool, len(kinds))
	out := kinds[:0]
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Validate rejects configurations that would otherwise fail at tick time.
func (c *HadoopMonitorConfig) Validate() error {
	if c.MetricsCollection.IntervalSec < 0 {
		return fmt.Errorf("metricsCollection.intervalSec must be positive, got %d", c.MetricsCollection.IntervalSec)
	}
	if c.HealthCheck.IntervalSec < 0 {
		return fmt.Errorf("healthCheck.intervalSec must be positive, got %d", c.HealthCheck.IntervalSec)
	}
	if c.HTTP.TimeoutSec < 0 || c.HTTP.RetryCount < 0 || c.HTTP.RetryWaitSec < 0 {
		return fmt.Errorf("http options must not be negative")
	}
	for name, raw := range c.Endpoints {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("endpoint %s: unsupported url %q", name, raw)
		}
	}

	registry := NewRegistry(c.Endpoints)
	for _, kind := range c.MetricsCollection.Metrics {
		if kind == types.ClusterHealth {
			return fmt.Errorf("metricsCollection.metrics: %s is produced by health checks only", kind)
		}
		if !c.MetricsCollection.IsEnabled() {
			continue
		}
		name, ok := EndpointFor(kind)
		if !ok {
			continue
		}
		if _, err := registry.Resolve(name); err != nil {
			return fmt.Errorf("metric %s: %w", kind, err)
		}
	}

	switch c.Store.Type {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}
	if c.Store.MaxRecords < 0 {
		return fmt.Errorf("store.maxRecords must not be negative")
	}

	if c.Notify.Enabled && (c.Notify.SmtpHost == "" || c.Notify.From == "" || len(c.Notify.Receivers) == 0) {
		return fmt.Errorf("notify requires smtpHost, from and at least one receiver")
	}
	return nil
}
