package exporter

import (
	"context"
	"fmt"

	"hadoop_monitor/jmx"
	"hadoop_monitor/types"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// BeanExporter fetches a /jmx document, locates one bean by exact name and
// projects a fixed set of its fields.
type BeanExporter struct {
	kind        types.MetricKind
	url         string
	bean        string
	fields      []jmx.Field
	notFound    string
	restyClient *resty.Client
}

func (be *BeanExporter) Kind() types.MetricKind {
	return be.kind
}

func (be *BeanExporter) URL() string {
	return be.url
}

func (be *BeanExporter) Collect(ctx context.Context) *ExporterReport {
	doc, err := fetchJMX(ctx, be.restyClient, be.url)
	if err != nil {
		return Degraded(be.kind, err)
	}

	bean, err := jmx.FindBean(doc, be.bean)
	if err != nil {
		log.WithFields(log.Fields{"kind": be.kind, "url": be.url}).Debugf("bean %s not in response", be.bean)
		return Degraded(be.kind, &CollectError{Message: be.notFound, Cause: jmx.ErrBeanNotFound, Err: err})
	}

	value, err := bean.Project(be.fields)
	if err != nil {
		return Degraded(be.kind, err)
	}
	return Ok(be.kind, types.Document(value))
}

// fetchJMX performs one unauthenticated GET. Connection failures and non-2xx
// answers are ErrTransport, unparsable bodies jmx.ErrMalformedResponse.
func fetchJMX(ctx context.Context, client *resty.Client, url string) (*jmx.Document, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &CollectError{Message: err.Error(), Cause: ErrTransport, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &CollectError{
			Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode(), url),
			Cause:   ErrTransport,
		}
	}
	return jmx.Parse(resp.Body())
}
