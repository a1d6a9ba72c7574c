package googleads

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a search matches no row.
var ErrNotFound = errors.New("googleads: resource not found")

// APIError is returned when the Google Ads API rejects a request. It is
// never retried by this package.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	RequestID  string
	Details    []ErrorDetail
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "google ads API error (status %d", e.StatusCode)
	if e.Status != "" {
		fmt.Fprintf(&b, " %s", e.Status)
	}
	b.WriteString(")")
	if e.RequestID != "" {
		fmt.Fprintf(&b, " request %s", e.RequestID)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	for i, d := range e.Details {
		fmt.Fprintf(&b, "; error %d: %s", i+1, d.Message)
		if d.Code != "" {
			fmt.Fprintf(&b, " (%s)", d.Code)
		}
	}
	return b.String()
}

// rpcStatus is google.rpc.Status as rendered by the REST transport.
type rpcStatus struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Status  string        `json:"status"`
	Details []adsFailures `json:"details"`
}

// adsFailures is a GoogleAdsFailure detail. Other detail types decode with
// no errors and are ignored.
type adsFailures struct {
	Type      string     `json:"@type"`
	Errors    []adsError `json:"errors"`
	RequestID string     `json:"requestId"`
}

type adsError struct {
	ErrorCode map[string]any `json:"errorCode"`
	Message   string         `json:"message"`
	Location  *struct {
		FieldPathElements []struct {
			FieldName string `json:"fieldName"`
			Index     *int   `json:"index"`
		} `json:"fieldPathElements"`
	} `json:"location"`
}

func (s *rpcStatus) empty() bool {
	return s == nil || (s.Code == 0 && s.Message == "" && len(s.Details) == 0)
}

func (s *rpcStatus) requestID() string {
	for _, d := range s.Details {
		if d.RequestID != "" {
			return d.RequestID
		}
	}
	return ""
}

func (s *rpcStatus) errorDetails() []ErrorDetail {
	var out []ErrorDetail
	for _, d := range s.Details {
		for _, e := range d.Errors {
			out = append(out, ErrorDetail{
				Code:    e.code(),
				Message: e.Message,
				Index:   e.operationIndex(),
			})
		}
	}
	return out
}

// code renders the one-entry errorCode object as "category:VALUE".
func (e adsError) code() string {
	keys := make([]string, 0, len(e.ErrorCode))
	for k := range e.ErrorCode {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", k, e.ErrorCode[k]))
	}
	return strings.Join(parts, ",")
}

func (e adsError) operationIndex() int {
	if e.Location == nil {
		return -1
	}
	for _, el := range e.Location.FieldPathElements {
		if el.FieldName == "operations" && el.Index != nil {
			return *el.Index
		}
	}
	return -1
}

// parseAPIError builds an APIError from a non-2xx response. Bodies that are
// not a google.rpc.Status envelope are kept verbatim as the message.
func parseAPIError(statusCode int, requestID string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, RequestID: requestID}

	var envelope struct {
		Error *rpcStatus `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	apiErr.Status = envelope.Error.Status
	apiErr.Message = envelope.Error.Message
	apiErr.Details = envelope.Error.errorDetails()
	if apiErr.RequestID == "" {
		apiErr.RequestID = envelope.Error.requestID()
	}
	return apiErr
}

func partialFailureFrom(s *rpcStatus) *PartialFailure {
	if s.empty() {
		return nil
	}
	return &PartialFailure{Message: s.Message, Failures: s.errorDetails()}
}
