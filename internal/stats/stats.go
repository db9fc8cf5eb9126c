// Package stats tracks ingestion statistics: atomic counters for the
// request/record flow plus a streaming sketch over the numeric value
// field of ingested records.
package stats

import (
	"sync"
	"sync/atomic"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/eeglab/taskdata/internal/record"
)

// Collector accumulates ingestion statistics for the lifetime of the
// process. All methods are safe for concurrent use.
type Collector struct {
	requests         atomic.Int64
	batches          atomic.Int64
	records          atomic.Int64
	validationErrors atomic.Int64
	storageErrors    atomic.Int64

	mu     sync.Mutex
	sketch *ddsketch.DDSketch
	count  int64
	sum    float64
	min    float64
	max    float64
}

// New creates a collector. relativeAccuracy is the sketch's relative
// error bound (0.01 = 1%).
func New(relativeAccuracy float64) *Collector {
	c := &Collector{}
	sketch, err := ddsketch.NewDefaultDDSketch(relativeAccuracy)
	if err == nil {
		c.sketch = sketch
	}
	return c
}

// RecordRequest counts one received ingestion request.
func (c *Collector) RecordRequest() {
	c.requests.Add(1)
}

// RecordValidationError counts one rejected request.
func (c *Collector) RecordValidationError() {
	c.validationErrors.Add(1)
}

// RecordStorageError counts one failed merge.
func (c *Collector) RecordStorageError() {
	c.storageErrors.Add(1)
}

// RecordBatch folds one successfully merged batch into the counters
// and feeds every numeric value field into the sketch.
func (c *Collector) RecordBatch(batch record.Batch) {
	c.batches.Add(1)
	c.records.Add(int64(len(batch)))

	for _, r := range batch {
		v, ok := r[record.ColumnValue]
		if !ok {
			continue
		}
		f, ok := record.Numeric(v)
		if !ok {
			continue
		}
		c.observe(f)
	}
}

func (c *Collector) observe(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == 0 || v < c.min {
		c.min = v
	}
	if c.count == 0 || v > c.max {
		c.max = v
	}
	c.count++
	c.sum += v

	if c.sketch != nil {
		c.sketch.Add(v)
	}
}

// Snapshot is a point-in-time view of the collector.
type Snapshot struct {
	Requests         int64   `json:"requests"`
	Batches          int64   `json:"batches"`
	Records          int64   `json:"records"`
	ValidationErrors int64   `json:"validation_errors"`
	StorageErrors    int64   `json:"storage_errors"`
	ValueCount       int64   `json:"value_count"`
	ValueMin         float64 `json:"value_min"`
	ValueMax         float64 `json:"value_max"`
	ValueMean        float64 `json:"value_mean"`
	ValueP50         float64 `json:"value_p50"`
	ValueP95         float64 `json:"value_p95"`
	ValueP99         float64 `json:"value_p99"`
}

// Snapshot returns the current statistics.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		Requests:         c.requests.Load(),
		Batches:          c.batches.Load(),
		Records:          c.records.Load(),
		ValidationErrors: c.validationErrors.Load(),
		StorageErrors:    c.storageErrors.Load(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s.ValueCount = c.count
	if c.count > 0 {
		s.ValueMin = c.min
		s.ValueMax = c.max
		s.ValueMean = c.sum / float64(c.count)
	}
	if c.sketch != nil && c.count > 0 {
		if q, err := c.sketch.GetValueAtQuantile(0.50); err == nil {
			s.ValueP50 = q
		}
		if q, err := c.sketch.GetValueAtQuantile(0.95); err == nil {
			s.ValueP95 = q
		}
		if q, err := c.sketch.GetValueAtQuantile(0.99); err == nil {
			s.ValueP99 = q
		}
	}

	return s
}
