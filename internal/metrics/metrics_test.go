package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu sync.Mutex

	counters   []call
	histograms []call
	flushes    int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	SetBackend(fb)
	return fb
}

func TestRecordStep(t *testing.T) {
	fb := install(t)

	RecordStep("employees", "decode", nil, 2*time.Second)
	RecordStep("employees", "persist", errors.New("boom"), 500*time.Millisecond)

	require.Len(t, fb.counters, 2)
	require.Len(t, fb.histograms, 2)
	assert.Equal(t, StepTotal, fb.counters[0].name)
	assert.Equal(t, Labels{"dataset": "employees", "step": "decode", "status": "success"}, fb.counters[0].labels)
	assert.Equal(t, "failure", fb.counters[1].labels["status"])
	assert.Equal(t, 2.0, fb.histograms[0].value)
	assert.Equal(t, 0.5, fb.histograms[1].value)
}

func TestRecordRowsAndBatchesSkipNonPositive(t *testing.T) {
	fb := install(t)

	RecordRows("jobs", "dropped", 0)
	RecordRows("jobs", "saved", 3)
	RecordBatches("jobs", -1)
	RecordBatches("jobs", 2)

	require.Len(t, fb.counters, 2)
	assert.Equal(t, call{RecordsTotal, 3, Labels{"dataset": "jobs", "kind": "saved"}}, fb.counters[0])
	assert.Equal(t, call{BatchesTotal, 2, Labels{"dataset": "jobs"}}, fb.counters[1])
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	fb := install(t)
	SetBackend(nil)
	require.NoError(t, Flush())
	assert.Equal(t, 1, fb.flushes)
}
