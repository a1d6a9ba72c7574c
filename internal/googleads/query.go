package googleads

import "fmt"

// JobStatusQuery returns the GAQL query that reads an offline user data
// job's status. Callers polling on their own schedule can reuse it with
// GoogleAdsService.Search.
func JobStatusQuery(jobResource string) string {
	return fmt.Sprintf("SELECT offline_user_data_job.resource_name, "+
		"offline_user_data_job.id, "+
		"offline_user_data_job.status, "+
		"offline_user_data_job.type, "+
		"offline_user_data_job.failure_reason "+
		"FROM offline_user_data_job "+
		"WHERE offline_user_data_job.resource_name = '%s'", jobResource)
}

// ListSizeQuery returns the GAQL query that reads a user list's estimated
// sizes.
func ListSizeQuery(listResource string) string {
	return fmt.Sprintf("SELECT user_list.size_for_display, user_list.size_for_search "+
		"FROM user_list "+
		"WHERE user_list.resource_name = '%s'", listResource)
}
