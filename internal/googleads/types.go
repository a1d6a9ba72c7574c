package googleads

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ignite/customer-match/internal/upload"
)

// Membership life span bounds for CRM-based user lists, in days.
const (
	MaxMembershipLifeSpan       = 540
	MembershipLifeSpanUnlimited = 10000
)

// Upload key types. The key type of a user list cannot change after creation.
const (
	UploadKeyContactInfo         = "CONTACT_INFO"
	UploadKeyCRMID               = "CRM_ID"
	UploadKeyMobileAdvertisingID = "MOBILE_ADVERTISING_ID"
)

// KeyTypeAccepts reports whether operations of kind can populate a list
// created with keyType. AddOperations only sends contact info fields.
func KeyTypeAccepts(keyType string, kind upload.Kind) bool {
	switch kind {
	case upload.KindEmail, upload.KindPhone:
		return keyType == UploadKeyContactInfo
	}
	return false
}

// JobTypeCustomerMatch is the offline user data job type bound to a
// Customer Match user list.
const JobTypeCustomerMatch = "CUSTOMER_MATCH_USER_LIST"

// ValidMembershipLifeSpan reports whether days is accepted by the API.
func ValidMembershipLifeSpan(days int) bool {
	return (days >= 1 && days <= MaxMembershipLifeSpan) || days == MembershipLifeSpanUnlimited
}

// JobStatus is the observed state of an offline user data job.
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
	JobStatusUnknown JobStatus = "UNKNOWN"
)

// ParseJobStatus maps a wire value to a JobStatus. Values this package does
// not know become JobStatusUnknown.
func ParseJobStatus(s string) JobStatus {
	switch JobStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case JobStatusPending:
		return JobStatusPending
	case JobStatusRunning:
		return JobStatusRunning
	case JobStatusSuccess:
		return JobStatusSuccess
	case JobStatusFailed:
		return JobStatusFailed
	}
	return JobStatusUnknown
}

// IsTerminal reports whether the job can no longer change state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// UserListSpec describes a Customer Match user list to create.
type UserListSpec struct {
	Name               string
	Description        string
	MembershipLifeSpan int
	UploadKeyType      string
}

// Validate rejects a spec the API would refuse, before any request is sent.
func (s UserListSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("user list name is required")
	}
	if !ValidMembershipLifeSpan(s.MembershipLifeSpan) {
		return fmt.Errorf("membership life span %d out of range (1..%d or %d for unlimited)",
			s.MembershipLifeSpan, MaxMembershipLifeSpan, MembershipLifeSpanUnlimited)
	}
	switch s.UploadKeyType {
	case UploadKeyContactInfo, UploadKeyCRMID, UploadKeyMobileAdvertisingID:
	default:
		return fmt.Errorf("unsupported upload key type %q", s.UploadKeyType)
	}
	return nil
}

// ErrorDetail is one Google Ads error descriptor.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	// Index is the position of the failing operation in its request, or -1
	// when the error is not tied to one operation.
	Index int `json:"index"`
}

// PartialFailure describes the operations rejected by a request sent with
// partial failure enabled. It is not an error: the rest were accepted.
type PartialFailure struct {
	Message  string        `json:"message"`
	Failures []ErrorDetail `json:"failures,omitempty"`
}

// FailedIndexes returns the distinct operation indexes named by the
// failures, in ascending order.
func (p *PartialFailure) FailedIndexes() []int {
	if p == nil {
		return nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, f := range p.Failures {
		if f.Index < 0 || seen[f.Index] {
			continue
		}
		seen[f.Index] = true
		out = append(out, f.Index)
	}
	sort.Ints(out)
	return out
}

// Rejected returns how many of submitted operations were refused. Failures
// that name an operation are counted once per operation; when none do, each
// failure counts as one rejected operation.
func (p *PartialFailure) Rejected(submitted int) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, i := range p.FailedIndexes() {
		if i < submitted {
			n++
		}
	}
	if n == 0 {
		n = len(p.Failures)
	}
	if n > submitted {
		n = submitted
	}
	return n
}

// AddResult is the outcome of one addOperations request.
type AddResult struct {
	Submitted      int             `json:"submitted"`
	Accepted       int             `json:"accepted"`
	PartialFailure *PartialFailure `json:"partial_failure,omitempty"`
}

// JobInfo is the offline user data job row returned by a status query.
type JobInfo struct {
	ResourceName  string    `json:"resource_name"`
	ID            int64     `json:"id"`
	Status        JobStatus `json:"status"`
	Type          string    `json:"type"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// ListSize holds the estimated member counts of a user list.
type ListSize struct {
	ResourceName string `json:"resource_name"`
	Display      int64  `json:"size_for_display"`
	Search       int64  `json:"size_for_search"`
}

// int64Value decodes the API's int64 fields, which are sent as JSON strings.
type int64Value int64

func (v *int64Value) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("decoding int64 %s: %w", b, err)
	}
	*v = int64Value(n)
	return nil
}

var _ json.Unmarshaler = (*int64Value)(nil)
