package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ignite/customer-match/internal/config"
	"github.com/ignite/customer-match/internal/googleads"
	"github.com/ignite/customer-match/internal/identifier"
	"github.com/ignite/customer-match/internal/pkg/logger"
	"github.com/ignite/customer-match/internal/workflow"
)

// errorStatus maps a workflow error to an HTTP status and a stable code.
func errorStatus(err error) (int, string) {
	var cfgErr *config.ConfigError
	var apiErr *googleads.APIError

	switch {
	case errors.As(err, &cfgErr):
		return http.StatusServiceUnavailable, "configuration_error"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "remote_api_error"
	case errors.Is(err, workflow.ErrNoIdentifiers):
		return http.StatusBadRequest, "no_identifiers"
	case errors.Is(err, identifier.ErrEncoding):
		return http.StatusBadRequest, "invalid_encoding"
	case errors.Is(err, googleads.ErrInvalidCustomerID), errors.Is(err, googleads.ErrInvalidResource):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, googleads.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}

// publicMessage returns what a client may see for err. Remote API errors
// and user input errors are passed through; anything else may carry
// internal detail (DSNs, file paths) and is replaced.
func publicMessage(status int, code string, err error) string {
	if status < 500 || code == "remote_api_error" || code == "configuration_error" {
		return err.Error()
	}
	if status == http.StatusGatewayTimeout {
		return "Request timed out"
	}
	return "An internal error occurred"
}

// errorDetails collects what the client needs to act on err: the request
// id of a rejected remote call and whatever the run created before failing.
func errorDetails(err error, res *workflow.Result) map[string]interface{} {
	details := map[string]interface{}{}
	var apiErr *googleads.APIError
	if errors.As(err, &apiErr) {
		details["request_id"] = apiErr.RequestID
		if len(apiErr.Details) > 0 {
			details["errors"] = apiErr.Details
		}
	}
	if res != nil {
		details["result"] = res
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// logFailure logs the full error server side before a sanitized reply.
func logFailure(r *http.Request, status int, err error) {
	if status >= 500 {
		logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
		return
	}
	logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
}
