package exporter

import (
	"hadoop_monitor/jmx"
	"hadoop_monitor/types"

	"github.com/go-resty/resty/v2"
)

const FSNamesystemStateBean = "Hadoop:service=NameNode,name=FSNamesystemState"

func NewHdfsCapacityExporter(url string, client *resty.Client) *BeanExporter {
	return &BeanExporter{
		kind: types.HdfsCapacity,
		url:  url,
		bean: FSNamesystemStateBean,
		fields: []jmx.Field{
			{Source: "CapacityTotal", Target: "total"},
			{Source: "CapacityUsed", Target: "used"},
			{Source: "CapacityRemaining", Target: "remaining"},
		},
		notFound:    "HDFS capacity metrics not found",
		restyClient: client,
	}
}

func NewHdfsUsageExporter(url string, client *resty.Client) *BeanExporter {
	return &BeanExporter{
		kind: types.HdfsUsage,
		url:  url,
		bean: FSNamesystemStateBean,
		fields: []jmx.Field{
			{Source: "CapacityUsed", Target: "used"},
			{Source: "PercentUsed", Target: "used_percent"},
		},
		notFound:    "HDFS usage metrics not found",
		restyClient: client,
	}
}
