package googleads

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/customer-match/internal/upload"
)

func TestParseJobStatus(t *testing.T) {
	tests := []struct {
		in       string
		want     JobStatus
		terminal bool
	}{
		{"PENDING", JobStatusPending, false},
		{"RUNNING", JobStatusRunning, false},
		{"SUCCESS", JobStatusSuccess, true},
		{"FAILED", JobStatusFailed, true},
		{"success", JobStatusSuccess, true},
		{"UNSPECIFIED", JobStatusUnknown, false},
		{"", JobStatusUnknown, false},
	}
	for _, tt := range tests {
		got := ParseJobStatus(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.terminal, got.IsTerminal(), tt.in)
	}
}

func TestValidMembershipLifeSpan(t *testing.T) {
	assert.False(t, ValidMembershipLifeSpan(0))
	assert.True(t, ValidMembershipLifeSpan(1))
	assert.True(t, ValidMembershipLifeSpan(30))
	assert.True(t, ValidMembershipLifeSpan(540))
	assert.False(t, ValidMembershipLifeSpan(541))
	assert.True(t, ValidMembershipLifeSpan(10000))
	assert.False(t, ValidMembershipLifeSpan(-1))
}

func TestUserListSpec_Validate(t *testing.T) {
	ok := UserListSpec{Name: "n", MembershipLifeSpan: 30, UploadKeyType: UploadKeyContactInfo}
	assert.NoError(t, ok.Validate())

	noName := ok
	noName.Name = "  "
	assert.Error(t, noName.Validate())

	badKey := ok
	badKey.UploadKeyType = "EMAIL"
	assert.Error(t, badKey.Validate())
}

func TestKeyTypeAccepts(t *testing.T) {
	assert.True(t, KeyTypeAccepts(UploadKeyContactInfo, upload.KindEmail))
	assert.True(t, KeyTypeAccepts(UploadKeyContactInfo, upload.KindPhone))
	assert.False(t, KeyTypeAccepts(UploadKeyCRMID, upload.KindEmail))
	assert.False(t, KeyTypeAccepts(UploadKeyMobileAdvertisingID, upload.KindPhone))
}

func TestPartialFailure_Rejected(t *testing.T) {
	var none *PartialFailure
	assert.Equal(t, 0, none.Rejected(10))
	assert.Nil(t, none.FailedIndexes())

	indexed := &PartialFailure{Failures: []ErrorDetail{
		{Index: 7}, {Index: 2}, {Index: 7}, {Index: -1},
	}}
	assert.Equal(t, []int{2, 7}, indexed.FailedIndexes())
	assert.Equal(t, 2, indexed.Rejected(10))

	unindexed := &PartialFailure{Failures: []ErrorDetail{{Index: -1}, {Index: -1}, {Index: -1}}}
	assert.Equal(t, 3, unindexed.Rejected(10))
	assert.Equal(t, 2, unindexed.Rejected(2))
}

func TestInt64Value(t *testing.T) {
	var v struct {
		Quoted int64Value `json:"quoted"`
		Bare   int64Value `json:"bare"`
		Null   int64Value `json:"null"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"quoted":"12345678901","bare":42,"null":null}`), &v))
	assert.Equal(t, int64Value(12345678901), v.Quoted)
	assert.Equal(t, int64Value(42), v.Bare)
	assert.Equal(t, int64Value(0), v.Null)

	assert.Error(t, json.Unmarshal([]byte(`{"quoted":"x"}`), &v))
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		StatusCode: 400,
		Status:     "INVALID_ARGUMENT",
		RequestID:  "r1",
		Message:    "bad",
		Details:    []ErrorDetail{{Code: "c:V", Message: "first", Index: -1}},
	}
	assert.Equal(t, "google ads API error (status 400 INVALID_ARGUMENT) request r1: bad; error 1: first (c:V)", err.Error())
}

func TestQueries(t *testing.T) {
	assert.Equal(t,
		"SELECT user_list.size_for_display, user_list.size_for_search FROM user_list WHERE user_list.resource_name = 'customers/1/userLists/2'",
		ListSizeQuery("customers/1/userLists/2"))
	assert.Contains(t, JobStatusQuery("customers/1/offlineUserDataJobs/3"),
		"FROM offline_user_data_job WHERE offline_user_data_job.resource_name = 'customers/1/offlineUserDataJobs/3'")
}
