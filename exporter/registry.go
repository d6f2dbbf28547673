package exporter

import (
	"fmt"

	"hadoop_monitor/config"
	"hadoop_monitor/types"

	"github.com/go-resty/resty/v2"
)

type constructor func(url string, client *resty.Client) *BeanExporter

var beanExporters = map[types.MetricKind]constructor{
	types.HdfsCapacity:   NewHdfsCapacityExporter,
	types.HdfsUsage:      NewHdfsUsageExporter,
	types.MapReduceJobs:  NewMapReduceJobsExporter,
	types.YarnContainers: NewYarnContainersExporter,
}

// NewExporters builds an exporter for every collectable kind whose endpoint
// is registered. A kind listed in required that cannot be built is a
// configuration error.
func NewExporters(registry *config.Registry, client *resty.Client, required []types.MetricKind) (map[types.MetricKind]Exporter, error) {
	exporters := map[types.MetricKind]Exporter{
		types.HiveQueries: NewHiveExporter(),
	}
	for kind, newExporter := range beanExporters {
		name, _ := config.EndpointFor(kind)
		url, err := registry.Resolve(name)
		if err != nil {
			continue
		}
		exporters[kind] = newExporter(url, client)
	}

	for _, kind := range required {
		if _, ok := exporters[kind]; ok {
			continue
		}
		if name, ok := config.EndpointFor(kind); ok {
			_, err := registry.Resolve(name)
			return nil, fmt.Errorf("metric %s: %w", kind, err)
		}
		return nil, fmt.Errorf("no exporter for metric %s", kind)
	}
	return exporters, nil
}
