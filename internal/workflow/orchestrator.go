// Package workflow drives a Customer Match upload: create a user list,
// create an offline user data job for it, attach hashed identifiers and
// start the job. Polling the job is a separate call.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/customer-match/internal/config"
	"github.com/ignite/customer-match/internal/googleads"
	"github.com/ignite/customer-match/internal/metrics"
	"github.com/ignite/customer-match/internal/pkg/logger"
	"github.com/ignite/customer-match/internal/upload"
)

// ErrNoIdentifiers is returned by Run when the source yields nothing. No
// remote object is created in that case.
var ErrNoIdentifiers = errors.New("workflow: identifier source is empty")

// ListNameLayout is the timestamp layout appended to user list names.
const ListNameLayout = "2006-01-02T15:04:05.000-0700"

// ListName returns the user list name for a run started at t.
func ListName(prefix string, t time.Time) string {
	return prefix + " #" + t.Format(ListNameLayout)
}

// Options configures an Orchestrator.
type Options struct {
	ListNamePrefix     string
	Description        string
	MembershipLifeSpan int
	UploadKeyType      string
	Kind               upload.Kind
	BatchSize          int

	// Now stamps list names. Defaults to time.Now.
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// OptionsFromConfig maps the audience settings onto Options.
func OptionsFromConfig(cfg config.AudienceConfig) (Options, error) {
	kind, err := upload.ParseKind(cfg.IdentifierKind)
	if err != nil {
		return Options{}, &config.ConfigError{Field: "audience.identifier_kind", Reason: err.Error()}
	}
	return Options{
		ListNamePrefix:     cfg.ListNamePrefix,
		Description:        cfg.Description,
		MembershipLifeSpan: cfg.MembershipLifeSpanDays,
		UploadKeyType:      cfg.UploadKeyType,
		Kind:               kind,
		BatchSize:          cfg.BatchSize,
	}, nil
}

// Orchestrator runs the upload workflow. It keeps no state between calls,
// so one Orchestrator can serve concurrent runs.
type Orchestrator struct {
	connector Connector
	opts      Options
}

// New returns an Orchestrator using connector for every remote step.
func New(connector Connector, opts Options) *Orchestrator {
	if opts.ListNamePrefix == "" {
		opts.ListNamePrefix = "Customer Match list"
	}
	if opts.MembershipLifeSpan == 0 {
		opts.MembershipLifeSpan = 30
	}
	if opts.UploadKeyType == "" {
		opts.UploadKeyType = googleads.UploadKeyContactInfo
	}
	if opts.Kind == "" {
		opts.Kind = upload.KindEmail
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = upload.DefaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{connector: connector, opts: opts}
}

// Kind returns the identifier kind runs upload by default.
func (o *Orchestrator) Kind() upload.Kind { return o.opts.Kind }

// WithKind returns a copy of o that uploads identifiers of kind k.
func (o *Orchestrator) WithKind(k upload.Kind) *Orchestrator {
	c := *o
	c.opts.Kind = k
	return &c
}

// BatchFailure is the partial failure reported for one addOperations
// request. Failure indexes are positions in the whole run, not the batch.
type BatchFailure struct {
	Batch     int                     `json:"batch"`
	Submitted int                     `json:"submitted"`
	Rejected  int                     `json:"rejected"`
	Message   string                  `json:"message"`
	Failures  []googleads.ErrorDetail `json:"failures,omitempty"`
}

// Summary renders the failure the way it is reported to operators.
func (f BatchFailure) Summary() string {
	return fmt.Sprintf("Encountered %d partial failure errors while adding %d operations to the offline user data job: '%s'. "+
		"Only the successfully added operations will be executed when the job runs.",
		len(f.Failures), f.Submitted, f.Message)
}

// Result describes what a run created. It is returned even when Run fails,
// so callers can see which remote objects already exist.
type Result struct {
	RunID        string         `json:"run_id"`
	CustomerID   string         `json:"customer_id"`
	UserListName string         `json:"user_list_name,omitempty"`
	UserList     string         `json:"user_list,omitempty"`
	Job          string         `json:"job,omitempty"`
	Operation    string         `json:"operation,omitempty"`
	Batches      int            `json:"batches"`
	Submitted    int            `json:"submitted"`
	Accepted     int            `json:"accepted"`
	Rejected     int            `json:"rejected"`
	Failures     []BatchFailure `json:"partial_failures,omitempty"`
	StatusQuery  string         `json:"status_query,omitempty"`
}

// Run uploads every identifier of src to a new Customer Match list and
// starts the job. It does not wait for the job. src is not closed.
//
// Steps run strictly in order and the first failure aborts the rest.
// Objects already created remotely are left in place.
func (o *Orchestrator) Run(ctx context.Context, customerID string, src upload.Source) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	err := o.run(ctx, customerID, src, res)
	if err != nil {
		o.opts.Metrics.RunFinished("error")
		logger.Error("customer match run failed", "run_id", res.RunID, "error", err)
		return res, err
	}
	o.opts.Metrics.RunFinished("success")
	logger.Info("customer match run started job",
		"run_id", res.RunID, "job", res.Job, "submitted", res.Submitted, "accepted", res.Accepted)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, customerID string, src upload.Source, res *Result) error {
	cid, err := googleads.NormalizeCustomerID(customerID)
	if err != nil {
		return err
	}
	res.CustomerID = cid

	batcher := upload.NewBatcher(src, o.opts.Kind, o.opts.BatchSize)
	first, err := batcher.Next(ctx)
	if errors.Is(err, io.EOF) {
		return ErrNoIdentifiers
	}
	if err != nil {
		return fmt.Errorf("building operations: %w", err)
	}

	spec := googleads.UserListSpec{
		Name:               ListName(o.opts.ListNamePrefix, o.opts.Now()),
		Description:        o.opts.Description,
		MembershipLifeSpan: o.opts.MembershipLifeSpan,
		UploadKeyType:      o.opts.UploadKeyType,
	}
	if err := spec.Validate(); err != nil {
		return &config.ConfigError{Field: "audience", Reason: err.Error()}
	}
	if !googleads.KeyTypeAccepts(spec.UploadKeyType, o.opts.Kind) {
		return &config.ConfigError{
			Field:  "audience.upload_key_type",
			Reason: fmt.Sprintf("%s lists cannot be populated with %s identifiers", spec.UploadKeyType, o.opts.Kind),
		}
	}
	res.UserListName = spec.Name

	err = o.step(ctx, "create_user_list", func(r Remote) error {
		var err error
		res.UserList, err = r.CreateUserList(ctx, cid, spec)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info("created user list", "run_id", res.RunID, "user_list", res.UserList)

	err = o.step(ctx, "create_job", func(r Remote) error {
		var err error
		res.Job, err = r.CreateOfflineUserDataJob(ctx, cid, res.UserList)
		return err
	})
	if err != nil {
		return err
	}
	res.StatusQuery = googleads.JobStatusQuery(res.Job)
	logger.Info("created offline user data job", "run_id", res.RunID, "job", res.Job)

	err = o.step(ctx, "add_operations", func(r Remote) error {
		return o.submit(ctx, r, batcher, first, res)
	})
	if err != nil {
		return err
	}

	return o.step(ctx, "run_job", func(r Remote) error {
		var err error
		res.Operation, err = r.RunJob(ctx, res.Job)
		return err
	})
}

// submit sends first and every remaining batch to the job, one request
// per batch, and folds the outcomes into res.
func (o *Orchestrator) submit(ctx context.Context, r Remote, batcher *upload.Batcher, first []upload.Operation, res *Result) error {
	batch := first
	for {
		offset := res.Submitted
		added, err := r.AddOperations(ctx, res.Job, batch)
		if err != nil {
			return err
		}

		rejected := added.Submitted - added.Accepted
		res.Batches++
		res.Submitted += added.Submitted
		res.Accepted += added.Accepted
		res.Rejected += rejected
		o.opts.Metrics.OperationsSubmitted(added.Submitted, rejected)

		if pf := added.PartialFailure; pf != nil {
			f := BatchFailure{
				Batch:     res.Batches,
				Submitted: added.Submitted,
				Rejected:  rejected,
				Message:   pf.Message,
				Failures:  shiftIndexes(pf.Failures, offset),
			}
			res.Failures = append(res.Failures, f)
			logger.Warn(f.Summary(), "run_id", res.RunID, "job", res.Job, "batch", f.Batch)
		} else {
			logger.Info("added operations to offline user data job",
				"run_id", res.RunID, "batch", res.Batches, "count", added.Submitted)
		}

		batch, err = batcher.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("building operations: %w", err)
		}
	}
}

func shiftIndexes(in []googleads.ErrorDetail, offset int) []googleads.ErrorDetail {
	out := make([]googleads.ErrorDetail, len(in))
	for i, d := range in {
		if d.Index >= 0 {
			d.Index += offset
		}
		out[i] = d
	}
	return out
}

// step opens a connection, runs fn on it and closes it on every path.
func (o *Orchestrator) step(ctx context.Context, op string, fn func(Remote) error) (err error) {
	start := time.Now()
	defer func() { o.opts.Metrics.ObserveCall(op, start, err) }()

	remote, err := o.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("%s: connecting: %w", op, err)
	}
	defer remote.Close()

	return fn(remote)
}
