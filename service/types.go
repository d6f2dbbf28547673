package service

import (
	"context"

	"hadoop_monitor/exporter"
	"hadoop_monitor/types"
)

// Monitor is the part of the orchestrator the API reads from.
type Monitor interface {
	CollectMetrics(ctx context.Context) types.CollectionResult
	CheckClusterHealth(ctx context.Context) types.HealthSnapshot
	Collect(ctx context.Context, kind types.MetricKind) (*exporter.ExporterReport, error)
}

type RecordsResponse struct {
	Count   int                   `json:"count"`
	Records []*types.MetricRecord `json:"records"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
