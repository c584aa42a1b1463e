package nnindex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordBatchInsert is called after each bulk insert.
	// rows is the number of rows attempted, duration the total time taken,
	// err is nil if the whole batch succeeded.
	RecordBatchInsert(rows int, duration time.Duration, err error)

	// RecordSearch is called after each batch search.
	RecordSearch(queries, k int, duration time.Duration, err error)

	// RecordDelete is called after each mark/unmark-deleted operation.
	RecordDelete(err error)

	// RecordSave is called after each save operation.
	RecordSave(duration time.Duration, err error)

	// RecordLoad is called after each load operation.
	RecordLoad(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBatchInsert(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordDelete(error)                           {}
func (NoopMetricsCollector) RecordSave(time.Duration, error)              {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BatchInsertCount atomic.Int64
	BatchInsertRows  atomic.Int64
	BatchInsertFails atomic.Int64
	InsertTotalNanos atomic.Int64
	SearchCount      atomic.Int64
	SearchQueries    atomic.Int64
	SearchFails      atomic.Int64
	SearchTotalNanos atomic.Int64
	DeleteCount      atomic.Int64
	DeleteFails      atomic.Int64
	SaveCount        atomic.Int64
	SaveFails        atomic.Int64
	LoadCount        atomic.Int64
	LoadFails        atomic.Int64
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(rows int, duration time.Duration, err error) {
	b.BatchInsertCount.Add(1)
	b.BatchInsertRows.Add(int64(rows))
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BatchInsertFails.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(queries, _ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchQueries.Add(int64(queries))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchFails.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteFails.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveFails.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadFails.Add(1)
	}
}
