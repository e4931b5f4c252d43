package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("boxwatch.telemetry")
var countGauge, _ = meter.Int64Gauge("report_count")

// MeteredAPI forwards everything to an inner API and additionally records
// ReportCount values on an otel gauge, attributed by id.
type MeteredAPI struct {
	inner API
}

func NewMeteredAPI(inner API) MeteredAPI {
	return MeteredAPI{inner: inner}
}

func (m MeteredAPI) ReportBroken(id string, params ...any) {
	m.inner.ReportBroken(id, params...)
}

func (m MeteredAPI) ReportWarning(id string, params ...any) {
	m.inner.ReportWarning(id, params...)
}

func (m MeteredAPI) ReportDebug(msg string, params ...any) {
	m.inner.ReportDebug(msg, params...)
}

func (m MeteredAPI) ReportCount(id string, count int64) {
	m.inner.ReportCount(id, count)
	if countGauge != nil {
		countGauge.Record(context.Background(), count, metric.WithAttributes(attribute.String("id", id)))
	}
}
