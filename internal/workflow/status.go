package workflow

import (
	"context"
	"fmt"

	"github.com/ignite/customer-match/internal/googleads"
	"github.com/ignite/customer-match/internal/pkg/logger"
)

// StatusReport is the outcome of one status check.
type StatusReport struct {
	Job      googleads.JobInfo   `json:"job"`
	ListSize *googleads.ListSize `json:"list_size,omitempty"`
	// RetryQuery is set while the job is not finished. Polling cadence is
	// up to the caller; the job may take hours.
	RetryQuery string `json:"retry_query,omitempty"`
	Message    string `json:"message"`
}

// CheckStatus reads the job's status once. On SUCCESS it also reads the
// estimated sizes of listResource, when one is given.
func (o *Orchestrator) CheckStatus(ctx context.Context, customerID, jobResource, listResource string) (*StatusReport, error) {
	cid, err := googleads.NormalizeCustomerID(customerID)
	if err != nil {
		return nil, err
	}

	var job *googleads.JobInfo
	err = o.step(ctx, "job_status", func(r Remote) error {
		var err error
		job, err = r.JobStatus(ctx, cid, jobResource)
		return err
	})
	if err != nil {
		return nil, err
	}

	report := &StatusReport{Job: *job}
	logger.Info("offline user data job status",
		"job", job.ResourceName, "id", job.ID, "type", job.Type, "status", string(job.Status))

	switch job.Status {
	case googleads.JobStatusSuccess:
		report.Message = "Job finished. It may take several hours for the user list to be populated with the users."
		if listResource == "" {
			return report, nil
		}
		err = o.step(ctx, "list_size", func(r Remote) error {
			var err error
			report.ListSize, err = r.ListSize(ctx, cid, listResource)
			return err
		})
		if err != nil {
			return nil, err
		}
		report.Message = fmt.Sprintf("User list '%s' has an estimated %d users for Display and %d users for Search. %s",
			report.ListSize.ResourceName, report.ListSize.Display, report.ListSize.Search,
			"It may take several hours for the user list to be populated with the users.")
	case googleads.JobStatusFailed:
		report.Message = "Job failed: " + job.FailureReason
	default:
		report.RetryQuery = googleads.JobStatusQuery(jobResource)
		report.Message = fmt.Sprintf("Job is %s. Check again later with the retry query.", job.Status)
	}
	return report, nil
}
