package exporter

import (
	"context"

	"hadoop_monitor/types"
)

// HiveExporter is not wired to a live endpoint yet. It reports the zeroed
// placeholder shape so HIVE_QUERIES records keep a stable layout.
// TODO: read query counters from HiveServer2's /jmx once its bean names are pinned down.
type HiveExporter struct{}

func NewHiveExporter() *HiveExporter {
	return &HiveExporter{}
}

func (he *HiveExporter) Kind() types.MetricKind {
	return types.HiveQueries
}

func (he *HiveExporter) Collect(_ context.Context) *ExporterReport {
	return Ok(types.HiveQueries, types.Document{
		"active_queries":    0,
		"completed_queries": 0,
		"failed_queries":    0,
	})
}
