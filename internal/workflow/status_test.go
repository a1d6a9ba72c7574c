package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/customer-match/internal/googleads"
)

func TestCheckStatus_Success(t *testing.T) {
	remote := &fakeRemote{
		status: googleads.JobStatusSuccess,
		size:   &googleads.ListSize{ResourceName: fakeList, Display: 1200, Search: 800},
	}
	o, conn := newTestOrchestrator(remote, Options{})

	report, err := o.CheckStatus(context.Background(), "116-419-1532", fakeJob, fakeList)
	require.NoError(t, err)

	assert.Equal(t, []string{"job_status", "list_size"}, remote.calls)
	assert.Equal(t, googleads.JobStatusSuccess, report.Job.Status)
	require.NotNil(t, report.ListSize)
	assert.Equal(t, int64(1200), report.ListSize.Display)
	assert.Equal(t, int64(800), report.ListSize.Search)
	assert.Empty(t, report.RetryQuery)
	assert.Contains(t, report.Message, "estimated 1200 users for Display and 800 users for Search")
	assert.Contains(t, report.Message, "several hours")
	assert.Equal(t, 2, conn.opened)
	assert.Equal(t, 2, conn.closed)
}

func TestCheckStatus_SuccessWithoutList(t *testing.T) {
	remote := &fakeRemote{status: googleads.JobStatusSuccess}
	o, _ := newTestOrchestrator(remote, Options{})

	report, err := o.CheckStatus(context.Background(), "1164191532", fakeJob, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"job_status"}, remote.calls)
	assert.Nil(t, report.ListSize)
}

func TestCheckStatus_Failed(t *testing.T) {
	remote := &fakeRemote{status: googleads.JobStatusFailed, failure: "INSUFFICIENT_MATCHED_TRANSACTIONS"}
	o, _ := newTestOrchestrator(remote, Options{})

	report, err := o.CheckStatus(context.Background(), "1164191532", fakeJob, fakeList)
	require.NoError(t, err)

	assert.Equal(t, []string{"job_status"}, remote.calls)
	assert.Equal(t, "INSUFFICIENT_MATCHED_TRANSACTIONS", report.Job.FailureReason)
	assert.Contains(t, report.Message, "INSUFFICIENT_MATCHED_TRANSACTIONS")
	assert.Nil(t, report.ListSize)
}

func TestCheckStatus_NotFinished(t *testing.T) {
	for _, status := range []googleads.JobStatus{googleads.JobStatusPending, googleads.JobStatusRunning, googleads.JobStatusUnknown} {
		t.Run(string(status), func(t *testing.T) {
			remote := &fakeRemote{status: status}
			o, _ := newTestOrchestrator(remote, Options{})

			report, err := o.CheckStatus(context.Background(), "1164191532", fakeJob, fakeList)
			require.NoError(t, err)

			assert.Equal(t, []string{"job_status"}, remote.calls)
			assert.Equal(t, googleads.JobStatusQuery(fakeJob), report.RetryQuery)
			assert.Contains(t, report.Message, string(status))
		})
	}
}

func TestCheckStatus_QueryError(t *testing.T) {
	remote := &fakeRemote{statusFn: func() error { return googleads.ErrNotFound }}
	o, conn := newTestOrchestrator(remote, Options{})

	_, err := o.CheckStatus(context.Background(), "1164191532", fakeJob, fakeList)
	assert.True(t, errors.Is(err, googleads.ErrNotFound))
	assert.Equal(t, conn.opened, conn.closed)
}

func TestCheckStatus_InvalidCustomerID(t *testing.T) {
	remote := &fakeRemote{}
	o, _ := newTestOrchestrator(remote, Options{})

	_, err := o.CheckStatus(context.Background(), "abc", fakeJob, "")
	assert.ErrorIs(t, err, googleads.ErrInvalidCustomerID)
	assert.Empty(t, remote.calls)
}
