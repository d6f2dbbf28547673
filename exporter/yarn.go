package exporter

import (
	"hadoop_monitor/jmx"
	"hadoop_monitor/types"

	"github.com/go-resty/resty/v2"
)

const RMNMInfoBean = "Hadoop:service=ResourceManager,name=RMNMInfo"

func NewYarnContainersExporter(url string, client *resty.Client) *BeanExporter {
	return &BeanExporter{
		kind: types.YarnContainers,
		url:  url,
		bean: RMNMInfoBean,
		fields: []jmx.Field{
			{Source: "TotalContainers", Target: "total_containers"},
			{Source: "ActiveContainers", Target: "active_containers"},
		},
		notFound:    "YARN container metrics not found",
		restyClient: client,
	}
}
