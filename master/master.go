package master

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hadoop_monitor/store"
	"hadoop_monitor/types"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Monitor is the orchestrator the scheduler drives.
type Monitor interface {
	CollectMetrics(ctx context.Context) types.CollectionResult
	CheckClusterHealth(ctx context.Context) types.HealthSnapshot
}

type Notifier interface {
	NotifyUnhealthy(snapshot types.HealthSnapshot) error
}

// Master runs metric collection and health checks on two independent
// fixed intervals and persists every outcome. A job never overlaps with its
// own previous run; the two jobs may run at the same time.
type Master struct {
	Notifier Notifier

	monitor         Monitor
	store           store.Store
	clusterName     string
	metricsInterval time.Duration
	healthInterval  time.Duration
	cron            *cron.Cron
}

func NewMaster(monitor Monitor, st store.Store, clusterName string, metricsInterval, healthInterval time.Duration) *Master {
	if clusterName == "" {
		clusterName = types.DefaultClusterName
	}
	return &Master{
		monitor:         monitor,
		store:           st,
		clusterName:     clusterName,
		metricsInterval: metricsInterval,
		healthInterval:  healthInterval,
	}
}

// Start registers both jobs and starts the scheduler. Schedules are not
// persisted, so registering again on every process start is safe.
func (m *Master) Start(ctx context.Context) error {
	if m.cron != nil {
		return fmt.Errorf("scheduler already started")
	}
	c := cron.New(cron.WithLogger(cron.PrintfLogger(log.StandardLogger())))
	metricsJob, healthJob := m.jobs(ctx)

	if _, err := c.AddJob(fmt.Sprintf("@every %s", m.metricsInterval), metricsJob); err != nil {
		return fmt.Errorf("failed to schedule metrics collection: %w", err)
	}
	if _, err := c.AddJob(fmt.Sprintf("@every %s", m.healthInterval), healthJob); err != nil {
		return fmt.Errorf("failed to schedule health check: %w", err)
	}
	m.cron = c
	c.Start()

	log.WithFields(log.Fields{
		"metrics_interval": m.metricsInterval,
		"health_interval":  m.healthInterval,
	}).Info("scheduler started")
	return nil
}

// Stop halts scheduling and waits for running ticks to finish.
func (m *Master) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	m.cron = nil
	log.Info("scheduler stopped")
}

// jobs wraps each tick so that a slow run makes the next one of the same
// kind skip instead of piling up.
func (m *Master) jobs(ctx context.Context) (metrics cron.Job, health cron.Job) {
	tickCtx := context.WithoutCancel(ctx)
	logger := cron.PrintfLogger(log.StandardLogger())
	metrics = cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(func() {
		m.doCollectMetrics(tickCtx)
	}))
	health = cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(func() {
		m.doHealthCheck(tickCtx)
	}))
	return metrics, health
}

// CollectOnce runs one metrics tick synchronously, outside the schedule.
func (m *Master) CollectOnce(ctx context.Context) types.CollectionResult {
	return m.doCollectMetrics(ctx)
}

// CheckHealthOnce runs one health tick synchronously, outside the schedule.
func (m *Master) CheckHealthOnce(ctx context.Context) types.HealthSnapshot {
	return m.doHealthCheck(ctx)
}

func (m *Master) doCollectMetrics(ctx context.Context) types.CollectionResult {
	started := time.Now()
	result := m.monitor.CollectMetrics(ctx)

	kinds := make([]types.MetricKind, 0, len(result))
	for kind := range result {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	stored := 0
	for _, kind := range kinds {
		if _, err := m.store.Insert(ctx, kind, result[kind], m.clusterName); err != nil {
			log.WithField("kind", kind).Errorf("failed to store metric: %v", err)
			continue
		}
		stored++
	}
	log.WithFields(log.Fields{"stored": stored, "elapsed": time.Since(started)}).Info("collected metrics")
	return result
}

func (m *Master) doHealthCheck(ctx context.Context) types.HealthSnapshot {
	snapshot := m.monitor.CheckClusterHealth(ctx)

	if _, err := m.store.Insert(ctx, types.ClusterHealth, snapshot.Document(), m.clusterName); err != nil {
		log.Errorf("failed to store cluster health: %v", err)
	}

	unhealthy := snapshot.UnhealthyServices()
	log.WithFields(log.Fields{"services": len(snapshot), "unhealthy": unhealthy}).Info("checked cluster health")
	if len(unhealthy) > 0 && m.Notifier != nil {
		if err := m.Notifier.NotifyUnhealthy(snapshot); err != nil {
			log.Errorf("failed to notify about unhealthy services: %v", err)
		}
	}
	return snapshot
}
