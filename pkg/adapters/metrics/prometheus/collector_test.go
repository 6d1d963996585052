package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordSubmissionStarted("pending")
	c.RecordSubmissionStarted("pending")
	c.RecordSubmissionCompleted("success", time.Second)
	c.SetActiveAttempts(3)
	c.RecordWorkerPoolStatus(1, 2, 0)
	c.RecordStep("store_image", "ok", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.submissionsStarted.WithLabelValues("pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.submissionsCompleted.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.activeAttempts))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.workerPoolBusy))
	assert.Equal(t, 1, testutil.CollectAndCount(c.stepDuration))
}

func TestCollectorsUseSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(prometheus.NewRegistry())
		NewCollector(prometheus.NewRegistry())
	})
}
