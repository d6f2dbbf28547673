package exporter

import (
	"hadoop_monitor/jmx"
	"hadoop_monitor/types"

	"github.com/go-resty/resty/v2"
)

const JobHistoryStatisticsBean = "Hadoop:service=HistoryServer,name=JobHistoryStatistics"

func NewMapReduceJobsExporter(url string, client *resty.Client) *BeanExporter {
	return &BeanExporter{
		kind: types.MapReduceJobs,
		url:  url,
		bean: JobHistoryStatisticsBean,
		fields: []jmx.Field{
			{Source: "TotalJobs", Target: "total_jobs"},
			{Source: "FailedJobs", Target: "failed_jobs"},
			{Source: "SuccessfulJobs", Target: "successful_jobs"},
		},
		notFound:    "MapReduce job metrics not found",
		restyClient: client,
	}
}
