package watcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"hadoop_monitor/exporter"
	"hadoop_monitor/types"

	log "github.com/sirupsen/logrus"
)

var ErrUnknownKind = errors.New("unknown metric kind")

type HealthChecker interface {
	CheckHealth(ctx context.Context) types.HealthSnapshot
}

// Recorder observes every report and snapshot the watcher produces.
type Recorder interface {
	ObserveReport(r *exporter.ExporterReport)
	ObserveHealth(snapshot types.HealthSnapshot)
}

type Options struct {
	Enabled bool
	Metrics []types.MetricKind
}

// Watcher runs the exporters for the enabled kinds. A failing exporter
// degrades only its own entry; the other kinds are still collected.
type Watcher struct {
	enabled   bool
	kinds     []types.MetricKind
	exporters map[types.MetricKind]exporter.Exporter
	health    HealthChecker
	recorder  Recorder
}

func NewWatcher(opts Options, exporters map[types.MetricKind]exporter.Exporter, health HealthChecker, recorder Recorder) (*Watcher, error) {
	for _, kind := range opts.Metrics {
		if _, ok := exporters[kind]; !ok {
			return nil, fmt.Errorf("%w: no exporter for %s", ErrUnknownKind, kind)
		}
	}
	return &Watcher{
		enabled:   opts.Enabled,
		kinds:     append([]types.MetricKind(nil), opts.Metrics...),
		exporters: exporters,
		health:    health,
		recorder:  recorder,
	}, nil
}

// CollectMetrics returns one entry per enabled kind, or an empty result when
// collection is disabled. It never fails as a whole.
func (w *Watcher) CollectMetrics(ctx context.Context) types.CollectionResult {
	result := make(types.CollectionResult, len(w.kinds))
	if !w.enabled {
		log.Debug("metric collection is disabled")
		return result
	}
	for _, kind := range w.kinds {
		report := w.collect(ctx, w.exporters[kind])
		result[kind] = report.Document()
	}
	return result
}

// Collect runs a single exporter regardless of whether its kind is enabled.
func (w *Watcher) Collect(ctx context.Context, kind types.MetricKind) (*exporter.ExporterReport, error) {
	e, ok := w.exporters[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return w.collect(ctx, e), nil
}

func (w *Watcher) CheckClusterHealth(ctx context.Context) types.HealthSnapshot {
	snapshot := w.health.CheckHealth(ctx)
	if w.recorder != nil {
		w.recorder.ObserveHealth(snapshot)
	}
	return snapshot
}

func (w *Watcher) collect(ctx context.Context, e exporter.Exporter) (report *exporter.ExporterReport) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("kind", e.Kind()).Errorf("exporter panicked: %v\n%s", r, debug.Stack())
			report = exporter.Degraded(e.Kind(), fmt.Errorf("%v", r))
		}
		if w.recorder != nil {
			w.recorder.ObserveReport(report)
		}
	}()

	report = e.Collect(ctx)
	if !report.Success() {
		log.WithField("kind", report.Kind).Errorf("Failed to collect %s: %v", report.Kind, report.Err)
	}
	return report
}
