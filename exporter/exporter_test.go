package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hadoop_monitor/config"
	"hadoop_monitor/jmx"
	"hadoop_monitor/types"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	nameNodeJMX = `{"beans":[{"name":"Hadoop:service=NameNode,name=FSNamesystemState","CapacityTotal":1000,"CapacityUsed":400,"CapacityRemaining":600,"PercentUsed":40.0}]}`
	historyJMX  = `{"beans":[{"name":"Hadoop:service=HistoryServer,name=JobHistoryStatistics","TotalJobs":12,"FailedJobs":2,"SuccessfulJobs":10}]}`
	rmJMX       = `{"beans":[{"name":"Hadoop:service=ResourceManager,name=RMNMInfo","TotalContainers":8,"ActiveContainers":3}]}`
)

func jmxServer(t *testing.T, status int, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func closedURL(t *testing.T) string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/jmx"
	srv.Close()
	return url
}

func TestHdfsExporters(t *testing.T) {
	srv := jmxServer(t, http.StatusOK, nameNodeJMX)
	client := resty.New()

	capacity := NewHdfsCapacityExporter(srv.URL, client).Collect(context.Background())
	require.True(t, capacity.Success(), "%v", capacity.Err)
	assert.Equal(t, types.HdfsCapacity, capacity.Kind)
	assert.Equal(t, types.Document{
		"total":     json.Number("1000"),
		"used":      json.Number("400"),
		"remaining": json.Number("600"),
	}, capacity.Document())

	usage := NewHdfsUsageExporter(srv.URL, client).Collect(context.Background())
	require.True(t, usage.Success(), "%v", usage.Err)
	assert.Equal(t, types.Document{
		"used":         json.Number("400"),
		"used_percent": json.Number("40.0"),
	}, usage.Document())
}

func TestMapReduceJobsExporter(t *testing.T) {
	srv := jmxServer(t, http.StatusOK, historyJMX)

	r := NewMapReduceJobsExporter(srv.URL, resty.New()).Collect(context.Background())
	require.True(t, r.Success(), "%v", r.Err)
	assert.Equal(t, types.Document{
		"total_jobs":      json.Number("12"),
		"failed_jobs":     json.Number("2"),
		"successful_jobs": json.Number("10"),
	}, r.Document())
}

func TestYarnContainersExporter(t *testing.T) {
	srv := jmxServer(t, http.StatusOK, rmJMX)

	r := NewYarnContainersExporter(srv.URL, resty.New()).Collect(context.Background())
	require.True(t, r.Success(), "%v", r.Err)
	assert.Equal(t, types.Document{
		"total_containers":  json.Number("8"),
		"active_containers": json.Number("3"),
	}, r.Document())
}

func TestBeanExporter_BeanNotFound(t *testing.T) {
	tests := map[string]struct {
		exporter func(url string) Exporter
		message  string
	}{
		"hdfs capacity": {
			exporter: func(url string) Exporter { return NewHdfsCapacityExporter(url, resty.New()) },
			message:  "HDFS capacity metrics not found",
		},
		"hdfs usage": {
			exporter: func(url string) Exporter { return NewHdfsUsageExporter(url, resty.New()) },
			message:  "HDFS usage metrics not found",
		},
		"mapreduce": {
			exporter: func(url string) Exporter { return NewMapReduceJobsExporter(url, resty.New()) },
			message:  "MapReduce job metrics not found",
		},
		"yarn": {
			exporter: func(url string) Exporter { return NewYarnContainersExporter(url, resty.New()) },
			message:  "YARN container metrics not found",
		},
	}

	srv := jmxServer(t, http.StatusOK, `{"beans":[]}`)
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := test.exporter(srv.URL).Collect(context.Background())

			require.False(t, r.Success())
			assert.True(t, errors.Is(r.Err, jmx.ErrBeanNotFound))
			assert.Equal(t, types.ErrorDocument(test.message), r.Document())
		})
	}
}

func TestBeanExporter_Unreachable(t *testing.T) {
	r := NewYarnContainersExporter(closedURL(t), resty.New()).Collect(context.Background())

	require.False(t, r.Success())
	assert.True(t, errors.Is(r.Err, ErrTransport))
	msg, ok := r.Document().ErrorMessage()
	require.True(t, ok)
	assert.Contains(t, msg, "connection refused")
}

func TestBeanExporter_Non2xx(t *testing.T) {
	srv := jmxServer(t, http.StatusServiceUnavailable, nameNodeJMX)

	r := NewHdfsCapacityExporter(srv.URL, resty.New()).Collect(context.Background())

	require.False(t, r.Success())
	assert.True(t, errors.Is(r.Err, ErrTransport))
	msg, _ := r.Document().ErrorMessage()
	assert.Contains(t, msg, "HTTP 503")
}

func TestBeanExporter_MalformedResponse(t *testing.T) {
	srv := jmxServer(t, http.StatusOK, `<html>maintenance</html>`)

	r := NewHdfsCapacityExporter(srv.URL, resty.New()).Collect(context.Background())

	require.False(t, r.Success())
	assert.True(t, errors.Is(r.Err, jmx.ErrMalformedResponse))
}

func TestBeanExporter_MissingField(t *testing.T) {
	srv := jmxServer(t, http.StatusOK, `{"beans":[{"name":"Hadoop:service=ResourceManager,name=RMNMInfo","TotalContainers":8}]}`)

	r := NewYarnContainersExporter(srv.URL, resty.New()).Collect(context.Background())

	require.False(t, r.Success())
	assert.True(t, errors.Is(r.Err, jmx.ErrFieldMissing))
}

func TestBeanExporter_Idempotent(t *testing.T) {
	srv := jmxServer(t, http.StatusOK, nameNodeJMX)
	e := NewHdfsCapacityExporter(srv.URL, resty.New())

	first := e.Collect(context.Background())
	time.Sleep(time.Millisecond)
	second := e.Collect(context.Background())

	assert.Equal(t, first.Document(), second.Document())
	assert.True(t, second.CapturedAt.After(first.CapturedAt))
}

func TestExporterReport_Snapshot(t *testing.T) {
	srv := jmxServer(t, http.StatusOK, historyJMX)
	r := NewMapReduceJobsExporter(srv.URL, resty.New()).Collect(context.Background())

	data, err := json.Marshal(r.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"metric_type": "MAPREDUCE_JOBS",
		"value": {"total_jobs": 12, "failed_jobs": 2, "successful_jobs": 10},
		"captured_at": "`+r.CapturedAt.Format(time.RFC3339Nano)+`"
	}`, string(data))

	degraded := Degraded(types.YarnContainers, errors.New("HTTP 503 from rm"))
	snapshot := degraded.Snapshot()
	assert.Equal(t, types.ErrorDocument("HTTP 503 from rm"), snapshot.Value)
	assert.Equal(t, degraded.CapturedAt, snapshot.CapturedAt)
	assert.NotContains(t, snapshot.Value, "timestamp")
}

func TestHiveExporter(t *testing.T) {
	r := NewHiveExporter().Collect(context.Background())

	require.True(t, r.Success())
	assert.Equal(t, types.HiveQueries, r.Kind)
	assert.Equal(t, types.Document{
		"active_queries":    0,
		"completed_queries": 0,
		"failed_queries":    0,
	}, r.Document())
}

func TestNewExporters(t *testing.T) {
	registry := config.NewRegistry(map[string]string{
		config.NameNode:      "http://nn/jmx",
		config.HistoryServer: "http://hs/jmx",
	})

	exporters, err := NewExporters(registry, resty.New(), []types.MetricKind{types.HdfsCapacity, types.HiveQueries})
	require.NoError(t, err)

	assert.Len(t, exporters, 4)
	assert.NotContains(t, exporters, types.YarnContainers)
	assert.Equal(t, "http://nn/jmx", exporters[types.HdfsUsage].(*BeanExporter).URL())
	assert.Equal(t, "http://hs/jmx", exporters[types.MapReduceJobs].(*BeanExporter).URL())
	for kind, e := range exporters {
		assert.Equal(t, kind, e.Kind())
	}

	_, err = NewExporters(registry, resty.New(), []types.MetricKind{types.YarnContainers})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrUnknownEndpoint))
}

func TestPromRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPromRecorder(reg)

	p.ObserveReport(Ok(types.HdfsCapacity, types.Document{"total": 1}))
	p.ObserveReport(Degraded(types.HdfsCapacity, errors.New("boom")))
	p.ObserveReport(Degraded(types.HdfsCapacity, errors.New("boom")))
	p.ObserveHealth(types.HealthSnapshot{
		"namenode":        {Status: types.Healthy},
		"resourcemanager": {Status: types.Unhealthy, Error: "HTTP 500"},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(p.collections.WithLabelValues("HDFS_CAPACITY", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.collections.WithLabelValues("HDFS_CAPACITY", "degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.serviceUp.WithLabelValues("namenode")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.serviceUp.WithLabelValues("resourcemanager")))
	assert.Greater(t, testutil.ToFloat64(p.lastCollected.WithLabelValues("HDFS_CAPACITY")), 0.0)
}
