package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/ignite/customer-match/internal/identifier"
	"github.com/ignite/customer-match/internal/pkg/httputil"
	"github.com/ignite/customer-match/internal/source"
	"github.com/ignite/customer-match/internal/upload"
	"github.com/ignite/customer-match/internal/workflow"
)

// SourceOpener opens the configured identifier source for one run.
type SourceOpener func(ctx context.Context) (upload.Source, error)

// Handlers contains the HTTP handlers for the Customer Match endpoints.
type Handlers struct {
	orchestrator *workflow.Orchestrator
	customerID   string
	openSource   SourceOpener
}

// NewHandlers creates the handlers. customerID is used when a request does
// not name one.
func NewHandlers(o *workflow.Orchestrator, customerID string, openSource SourceOpener) *Handlers {
	return &Handlers{orchestrator: o, customerID: customerID, openSource: openSource}
}

// JobRequest is the body of POST /api/v1/customer-match/jobs. Every field
// is optional.
type JobRequest struct {
	CustomerID     string   `json:"customer_id"`
	Identifiers    []string `json:"identifiers"`
	IdentifierKind string   `json:"identifier_kind"`
}

// HashResponse is returned by the hashing helper.
type HashResponse struct {
	Normalized string `json:"normalized"`
	Hashed     string `json:"hashed"`
}

// Demo runs one workflow for the configured customer and source and
// answers with plain text.
//
//	GET /demo
func (h *Handlers) Demo(w http.ResponseWriter, r *http.Request) {
	ctx := runContext(r)
	src, err := h.openSource(ctx)
	if err != nil {
		h.textError(w, r, err)
		return
	}
	defer src.Close()

	if _, err := h.orchestrator.Run(ctx, h.customerID, src); err != nil {
		h.textError(w, r, err)
		return
	}
	httputil.Text(w, http.StatusOK, "ok")
}

// CreateJob runs one workflow with inline identifiers or the configured
// source and returns the run result.
//
//	POST /api/v1/customer-match/jobs
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if r.ContentLength != 0 {
		if !httputil.Decode(w, r, &req) {
			return
		}
	}

	customerID := firstNonEmpty(req.CustomerID, h.customerID)
	if customerID == "" {
		httputil.BadRequest(w, "customer_id is required")
		return
	}

	o := h.orchestrator
	if req.IdentifierKind != "" {
		kind, err := upload.ParseKind(req.IdentifierKind)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		o = o.WithKind(kind)
	}

	ctx := runContext(r)
	var src upload.Source
	if req.Identifiers != nil {
		src = source.NewSlice(req.Identifiers)
	} else {
		var err error
		src, err = h.openSource(ctx)
		if err != nil {
			h.jsonError(w, r, err, nil)
			return
		}
	}
	defer src.Close()

	res, err := o.Run(ctx, customerID, src)
	if err != nil {
		h.jsonError(w, r, err, res)
		return
	}
	httputil.Created(w, res)
}

// JobStatus checks an offline user data job once.
//
//	GET /api/v1/customer-match/jobs/status?customer_id=&job=&user_list=
func (h *Handlers) JobStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	job := strings.TrimSpace(q.Get("job"))
	if job == "" {
		httputil.BadRequest(w, "job is required")
		return
	}
	customerID := firstNonEmpty(q.Get("customer_id"), h.customerID)
	if customerID == "" {
		httputil.BadRequest(w, "customer_id is required")
		return
	}

	report, err := h.orchestrator.CheckStatus(r.Context(), customerID, job, strings.TrimSpace(q.Get("user_list")))
	if err != nil {
		h.jsonError(w, r, err, nil)
		return
	}
	httputil.OK(w, report)
}

// HashIdentifier returns the normalized and hashed form of value.
//
//	GET /api/v1/identifiers/hash?value=
func (h *Handlers) HashIdentifier(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("value") {
		httputil.BadRequest(w, "value is required")
		return
	}
	value := q.Get("value")

	hashed, err := identifier.Hash(value)
	if err != nil {
		h.jsonError(w, r, err, nil)
		return
	}
	httputil.OK(w, HashResponse{Normalized: identifier.Normalize(value), Hashed: hashed})
}

// runContext detaches a run from the client connection; a disconnect must
// not stop a run between remote steps.
func runContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (h *Handlers) jsonError(w http.ResponseWriter, r *http.Request, err error, res *workflow.Result) {
	status, code := errorStatus(err)
	logFailure(r, status, err)
	var details any
	if d := errorDetails(err, res); d != nil {
		details = d
	}
	httputil.ErrorWithCode(w, status, code, publicMessage(status, code, err), details)
}

func (h *Handlers) textError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	logFailure(r, status, err)
	httputil.Text(w, status, publicMessage(status, code, err))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
