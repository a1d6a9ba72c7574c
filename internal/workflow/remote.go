package workflow

import (
	"context"

	"github.com/ignite/customer-match/internal/googleads"
	"github.com/ignite/customer-match/internal/upload"
)

// Remote is one scoped connection to the advertising API.
type Remote interface {
	CreateUserList(ctx context.Context, customerID string, spec googleads.UserListSpec) (string, error)
	CreateOfflineUserDataJob(ctx context.Context, customerID, listResource string) (string, error)
	AddOperations(ctx context.Context, jobResource string, ops []upload.Operation) (*googleads.AddResult, error)
	RunJob(ctx context.Context, jobResource string) (string, error)
	JobStatus(ctx context.Context, customerID, jobResource string) (*googleads.JobInfo, error)
	ListSize(ctx context.Context, customerID, listResource string) (*googleads.ListSize, error)
	Close() error
}

// Connector opens a fresh Remote for each workflow step.
type Connector interface {
	Connect(ctx context.Context) (Remote, error)
}

// GoogleAds adapts a *googleads.Connector to Connector.
func GoogleAds(c *googleads.Connector) Connector {
	return adsConnector{c}
}

type adsConnector struct {
	c *googleads.Connector
}

func (a adsConnector) Connect(ctx context.Context) (Remote, error) {
	conn, err := a.c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
