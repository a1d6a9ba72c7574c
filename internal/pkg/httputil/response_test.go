package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWithCode(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorWithCode(rr, http.StatusBadGateway, "remote_api_error", "rejected", map[string]string{"request_id": "r-1"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"rejected","code":"remote_api_error","details":{"request_id":"r-1"}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	ErrorWithCode(rr, http.StatusBadRequest, "no_identifiers", "empty", nil)
	assert.JSONEq(t, `{"error":"empty","code":"no_identifiers"}`, rr.Body.String())
}

func TestText(t *testing.T) {
	rr := httptest.NewRecorder()
	Text(rr, http.StatusOK, "ok")
	assert.Equal(t, "ok", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	require.True(t, Decode(rr, req, &dst))
	assert.Equal(t, "a", dst.Name)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nmae":"a"}`))
	assert.False(t, Decode(rr, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid JSON")
}
