package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RunFinished("success")
	m.RunFinished("success")
	m.RunFinished("error")
	m.OperationsSubmitted(10, 1)
	m.OperationsSubmitted(5, 0)
	m.ObserveCall("create_user_list", time.Now(), nil)
	m.ObserveCall("run_job", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("error")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.operationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectedTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(m.remoteCallDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RunFinished("success")
	m.OperationsSubmitted(1, 1)
	m.ObserveCall("x", time.Now(), nil)
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
