package exporter

import (
	"context"
	"errors"
	"time"

	"hadoop_monitor/types"
)

var ErrTransport = errors.New("transport error")

// Exporter collects one metric kind from its endpoint.
type Exporter interface {
	Kind() types.MetricKind
	Collect(ctx context.Context) *ExporterReport
}

// ExporterReport is either Ok (Value set) or Degraded (Err set). Degraded
// reports are still data: Document returns the error-shaped value.
type ExporterReport struct {
	Kind       types.MetricKind
	Value      types.Document
	Err        error
	CapturedAt time.Time
}

func Ok(kind types.MetricKind, value types.Document) *ExporterReport {
	return &ExporterReport{Kind: kind, Value: value, CapturedAt: time.Now().UTC()}
}

func Degraded(kind types.MetricKind, err error) *ExporterReport {
	return &ExporterReport{Kind: kind, Err: err, CapturedAt: time.Now().UTC()}
}

func (r *ExporterReport) Success() bool {
	return r.Err == nil
}

func (r *ExporterReport) Document() types.Document {
	if r.Err != nil {
		return types.ErrorDocument(r.Err.Error())
	}
	return r.Value
}

// Snapshot is the live form of a report. The capture time sits next to the
// value so two collections of an unchanged bean still have equal values.
type Snapshot struct {
	Kind       types.MetricKind `json:"metric_type"`
	Value      types.Document   `json:"value"`
	CapturedAt time.Time        `json:"captured_at"`
}

func (r *ExporterReport) Snapshot() *Snapshot {
	return &Snapshot{Kind: r.Kind, Value: r.Document(), CapturedAt: r.CapturedAt}
}

// CollectError carries the message stored in the error-shaped value while
// keeping the sentinel cause and the underlying error for errors.Is.
type CollectError struct {
	Message string
	Cause   error
	Err     error
}

func (e *CollectError) Error() string {
	return e.Message
}

func (e *CollectError) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
