package main

import (
	"hadoop_monitor/config"
	"hadoop_monitor/exporter"
	"hadoop_monitor/master"
	"hadoop_monitor/service"
	"hadoop_monitor/store"
	"hadoop_monitor/types"
	"hadoop_monitor/util"
	"hadoop_monitor/watcher"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds the wired components for one process.
type app struct {
	cfg      *config.HadoopMonitorConfig
	store    store.Store
	watcher  *watcher.Watcher
	master   *master.Master
	registry *prometheus.Registry
}

func newApp(cfg *config.HadoopMonitorConfig) (*app, error) {
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, err
	}

	endpoints := config.NewRegistry(cfg.Endpoints)
	client := util.NewRestyClient(cfg.HTTP)

	var enabled []types.MetricKind
	if cfg.MetricsCollection.IsEnabled() {
		enabled = cfg.MetricsCollection.Metrics
	}
	exporters, err := exporter.NewExporters(endpoints, client, enabled)
	if err != nil {
		st.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	w, err := watcher.NewWatcher(
		watcher.Options{Enabled: cfg.MetricsCollection.IsEnabled(), Metrics: enabled},
		exporters,
		master.NewHealthCheckService(endpoints, client),
		exporter.NewPromRecorder(registry),
	)
	if err != nil {
		st.Close()
		return nil, err
	}

	m := master.NewMaster(w, st, cfg.ClusterName, cfg.MetricsCollection.Interval(), cfg.HealthCheck.Interval())
	if cfg.Notify.Enabled {
		m.Notifier = util.NewMailSender(cfg.Notify)
	}

	return &app{cfg: cfg, store: st, watcher: w, master: m, registry: registry}, nil
}

func (a *app) apiHandler() *service.APIHandler {
	return service.NewAPIHandler(a.watcher, a.store, a.registry)
}

func (a *app) Close() error {
	return a.store.Close()
}
