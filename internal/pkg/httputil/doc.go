// Package httputil provides shared HTTP response helpers for handlers.
//
// Handlers use these instead of raw http.ResponseWriter calls so every
// endpoint returns the same error envelope and content types.
package httputil
