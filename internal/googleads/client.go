// Package googleads is a small client for the Google Ads REST API covering
// Customer Match: user list creation, offline user data jobs and the
// search queries used to follow them up.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ignite/customer-match/internal/config"
	"github.com/ignite/customer-match/internal/pkg/logger"
	"github.com/ignite/customer-match/internal/upload"
)

// Scope is the OAuth2 scope required by the Google Ads API.
const Scope = "https://www.googleapis.com/auth/adwords"

var (
	// ErrClosed is returned by calls made on a Conn after Close.
	ErrClosed = errors.New("googleads: connection closed")

	// ErrInvalidCustomerID is returned for customer ids that are not made
	// of digits, optionally grouped with dashes.
	ErrInvalidCustomerID = errors.New("googleads: invalid customer id")

	// ErrInvalidResource is returned for malformed resource names.
	ErrInvalidResource = errors.New("googleads: invalid resource name")
)

// Connector hands out connections to the Google Ads API. It holds the
// credentials and the OAuth2 token cache; it holds no HTTP connections.
type Connector struct {
	baseURL         string
	version         string
	developerToken  string
	loginCustomerID string
	timeout         time.Duration
	tokens          oauth2.TokenSource
}

// Option customizes a Connector.
type Option func(*Connector)

// WithTokenSource replaces the refresh-token flow with ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Connector) { c.tokens = ts }
}

// NewConnector validates cfg and prepares the OAuth2 refresh-token flow
// against Google's token endpoint. It returns a *config.ConfigError when a
// credential is missing.
func NewConnector(cfg config.GoogleAdsConfig, opts ...Option) (*Connector, error) {
	c := &Connector{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		version:        cfg.APIVersion,
		developerToken: cfg.DeveloperToken,
		timeout:        cfg.Timeout(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tokens == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{Scope},
		}
		c.tokens = oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
	}
	if strings.TrimSpace(c.developerToken) == "" {
		return nil, &config.ConfigError{Field: "google_ads.developer_token", Reason: "is required"}
	}
	if c.baseURL == "" {
		c.baseURL = "https://googleads.googleapis.com"
	}
	if c.version == "" {
		c.version = "v19"
	}
	if cfg.LoginCustomerID != "" {
		id, err := NormalizeCustomerID(cfg.LoginCustomerID)
		if err != nil {
			return nil, &config.ConfigError{Field: "google_ads.login_customer_id", Reason: err.Error()}
		}
		c.loginCustomerID = id
	}
	return c, nil
}

// CheckCredentials obtains an access token, refreshing it when the cached
// one has expired.
func (c *Connector) CheckCredentials() error {
	if _, err := c.tokens.Token(); err != nil {
		return fmt.Errorf("obtaining access token: %w", err)
	}
	return nil
}

// Connect opens a connection with its own transport. The caller must Close
// it once the current step is done.
func (c *Connector) Connect(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Conn{
		connector: c,
		transport: transport,
		httpClient: &http.Client{
			Timeout:   c.timeout,
			Transport: &oauth2.Transport{Source: c.tokens, Base: transport},
		},
	}, nil
}

// Conn is one scoped connection to the API. It is not safe for concurrent
// use and must not outlive the step that opened it.
type Conn struct {
	connector  *Connector
	transport  *http.Transport
	httpClient *http.Client
	closed     bool
}

// Close releases the connection's idle sockets. It is safe to call twice.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.transport.CloseIdleConnections()
	return nil
}

// doRequest POSTs body as JSON to path (relative to the API version) and
// decodes a 2xx response into out.
func (c *Conn) doRequest(ctx context.Context, path string, body, out any) error {
	if c.closed {
		return ErrClosed
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	fullURL := c.connector.baseURL + "/" + c.connector.version + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.connector.developerToken)
	if c.connector.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.connector.loginCustomerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, resp.Header.Get("request-id"), respBody)
		logger.Warn("google ads request failed",
			"path", path, "status", resp.StatusCode, "request_id", apiErr.RequestID)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// CreateUserList creates a CRM-based user list and returns its resource name.
func (c *Conn) CreateUserList(ctx context.Context, customerID string, spec UserListSpec) (string, error) {
	cid, err := NormalizeCustomerID(customerID)
	if err != nil {
		return "", err
	}
	if err := spec.Validate(); err != nil {
		return "", err
	}

	req := mutateUserListsRequest{Operations: []userListOperation{{
		Create: userList{
			Name:               spec.Name,
			Description:        spec.Description,
			MembershipLifeSpan: spec.MembershipLifeSpan,
			CRMBasedUserList:   crmBasedUserList{UploadKeyType: spec.UploadKeyType},
		},
	}}}

	var resp struct {
		Results []struct {
			ResourceName string `json:"resourceName"`
		} `json:"results"`
	}
	if err := c.doRequest(ctx, "customers/"+cid+"/userLists:mutate", req, &resp); err != nil {
		return "", fmt.Errorf("creating user list: %w", err)
	}
	if len(resp.Results) == 0 || resp.Results[0].ResourceName == "" {
		return "", fmt.Errorf("creating user list: response carried no resource name")
	}
	return resp.Results[0].ResourceName, nil
}

// CreateOfflineUserDataJob creates a Customer Match job for listResource and
// returns the job's resource name.
func (c *Conn) CreateOfflineUserDataJob(ctx context.Context, customerID, listResource string) (string, error) {
	cid, err := NormalizeCustomerID(customerID)
	if err != nil {
		return "", err
	}
	if err := checkResource(listResource, "userLists"); err != nil {
		return "", err
	}

	var req createJobRequest
	req.Job.Type = JobTypeCustomerMatch
	req.Job.CustomerMatchUserListMetadata.UserList = listResource

	var resp struct {
		ResourceName string `json:"resourceName"`
	}
	if err := c.doRequest(ctx, "customers/"+cid+"/offlineUserDataJobs:create", req, &resp); err != nil {
		return "", fmt.Errorf("creating offline user data job: %w", err)
	}
	if resp.ResourceName == "" {
		return "", fmt.Errorf("creating offline user data job: response carried no resource name")
	}
	return resp.ResourceName, nil
}

// AddOperations attaches ops to the job with partial failure enabled.
// Rejected operations are reported in the result, not as an error.
func (c *Conn) AddOperations(ctx context.Context, jobResource string, ops []upload.Operation) (*AddResult, error) {
	if err := checkResource(jobResource, "offlineUserDataJobs"); err != nil {
		return nil, err
	}

	req := addOperationsRequest{
		EnablePartialFailure: true,
		Operations:           make([]jobOperation, 0, len(ops)),
	}
	for _, op := range ops {
		id := userIdentifier{}
		switch op.Kind {
		case upload.KindPhone:
			id.HashedPhoneNumber = op.Hashed
		default:
			id.HashedEmail = op.Hashed
		}
		req.Operations = append(req.Operations, jobOperation{
			Create: userData{UserIdentifiers: []userIdentifier{id}},
		})
	}

	var resp struct {
		PartialFailureError *rpcStatus `json:"partialFailureError"`
	}
	if err := c.doRequest(ctx, jobResource+":addOperations", req, &resp); err != nil {
		return nil, fmt.Errorf("adding operations: %w", err)
	}

	result := &AddResult{
		Submitted:      len(ops),
		PartialFailure: partialFailureFrom(resp.PartialFailureError),
	}
	result.Accepted = result.Submitted - result.PartialFailure.Rejected(result.Submitted)
	return result, nil
}

// RunJob starts asynchronous processing of the job and returns the name of
// the long-running operation. It does not wait for the job to finish.
func (c *Conn) RunJob(ctx context.Context, jobResource string) (string, error) {
	if err := checkResource(jobResource, "offlineUserDataJobs"); err != nil {
		return "", err
	}
	var resp struct {
		Name string `json:"name"`
	}
	if err := c.doRequest(ctx, jobResource+":run", struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("running offline user data job: %w", err)
	}
	return resp.Name, nil
}

// JobStatus reads the job's current status.
func (c *Conn) JobStatus(ctx context.Context, customerID, jobResource string) (*JobInfo, error) {
	if err := checkResource(jobResource, "offlineUserDataJobs"); err != nil {
		return nil, err
	}

	var row struct {
		OfflineUserDataJob *struct {
			ResourceName  string     `json:"resourceName"`
			ID            int64Value `json:"id"`
			Status        string     `json:"status"`
			Type          string     `json:"type"`
			FailureReason string     `json:"failureReason"`
		} `json:"offlineUserDataJob"`
	}
	if err := c.searchOne(ctx, customerID, JobStatusQuery(jobResource), &row); err != nil {
		return nil, fmt.Errorf("querying job status: %w", err)
	}
	if row.OfflineUserDataJob == nil {
		return nil, fmt.Errorf("querying job status: %w", ErrNotFound)
	}

	j := row.OfflineUserDataJob
	return &JobInfo{
		ResourceName:  j.ResourceName,
		ID:            int64(j.ID),
		Status:        ParseJobStatus(j.Status),
		Type:          j.Type,
		FailureReason: j.FailureReason,
	}, nil
}

// ListSize reads the estimated Display and Search sizes of a user list.
func (c *Conn) ListSize(ctx context.Context, customerID, listResource string) (*ListSize, error) {
	if err := checkResource(listResource, "userLists"); err != nil {
		return nil, err
	}

	var row struct {
		UserList *struct {
			ResourceName   string     `json:"resourceName"`
			SizeForDisplay int64Value `json:"sizeForDisplay"`
			SizeForSearch  int64Value `json:"sizeForSearch"`
		} `json:"userList"`
	}
	if err := c.searchOne(ctx, customerID, ListSizeQuery(listResource), &row); err != nil {
		return nil, fmt.Errorf("querying user list size: %w", err)
	}
	if row.UserList == nil {
		return nil, fmt.Errorf("querying user list size: %w", ErrNotFound)
	}

	name := row.UserList.ResourceName
	if name == "" {
		name = listResource
	}
	return &ListSize{
		ResourceName: name,
		Display:      int64(row.UserList.SizeForDisplay),
		Search:       int64(row.UserList.SizeForSearch),
	}, nil
}

// searchOne runs a GAQL query and decodes its first row into out.
func (c *Conn) searchOne(ctx context.Context, customerID, query string, out any) error {
	cid, err := NormalizeCustomerID(customerID)
	if err != nil {
		return err
	}

	var resp struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := c.doRequest(ctx, "customers/"+cid+"/googleAds:search", map[string]string{"query": query}, &resp); err != nil {
		return err
	}
	if len(resp.Results) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(resp.Results[0], out); err != nil {
		return fmt.Errorf("parsing search row: %w", err)
	}
	return nil
}

// NormalizeCustomerID accepts "1234567890" or "123-456-7890" and returns the
// digits only. Length is left to the API to judge.
func NormalizeCustomerID(id string) (string, error) {
	digits := strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if digits == "" {
		return "", fmt.Errorf("%w: customer id is required", ErrInvalidCustomerID)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w %q", ErrInvalidCustomerID, id)
		}
	}
	return digits, nil
}

var resourcePattern = regexp.MustCompile(`^customers/[0-9]+/([A-Za-z]+)/[0-9A-Za-z~_-]+$`)

// checkResource rejects anything that is not a resource name of collection.
func checkResource(name, collection string) error {
	m := resourcePattern.FindStringSubmatch(name)
	if m == nil || m[1] != collection {
		return fmt.Errorf("%w: %q is not a %s resource", ErrInvalidResource, name, collection)
	}
	return nil
}

// Wire shapes for request bodies.

type mutateUserListsRequest struct {
	Operations []userListOperation `json:"operations"`
}

type userListOperation struct {
	Create userList `json:"create"`
}

type userList struct {
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	MembershipLifeSpan int              `json:"membershipLifeSpan"`
	CRMBasedUserList   crmBasedUserList `json:"crmBasedUserList"`
}

type crmBasedUserList struct {
	UploadKeyType string `json:"uploadKeyType"`
}

type createJobRequest struct {
	Job struct {
		Type                          string `json:"type"`
		CustomerMatchUserListMetadata struct {
			UserList string `json:"userList"`
		} `json:"customerMatchUserListMetadata"`
	} `json:"job"`
}

type addOperationsRequest struct {
	EnablePartialFailure bool           `json:"enablePartialFailure"`
	Operations           []jobOperation `json:"operations"`
}

type jobOperation struct {
	Create userData `json:"create"`
}

type userData struct {
	UserIdentifiers []userIdentifier `json:"userIdentifiers"`
}

type userIdentifier struct {
	HashedEmail       string `json:"hashedEmail,omitempty"`
	HashedPhoneNumber string `json:"hashedPhoneNumber,omitempty"`
}
