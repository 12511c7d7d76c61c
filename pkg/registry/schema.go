// pkg/registry/schema.go
package registry

// ActivityRegistry describes every job type the worker manager serves.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID            string                 `json:"id"`
	DisplayName   string                 `json:"displayName"`
	Description   string                 `json:"description"`
	Category      string                 `json:"category"`
	Version       string                 `json:"version"`
	TaskType      string                 `json:"taskType"`
	Enabled       bool                   `json:"enabled"`
	InputSchema   map[string]interface{} `json:"inputSchema"`
	OutputSchema  map[string]interface{} `json:"outputSchema"`
	ErrorCodes    []string               `json:"errorCodes"`
	Timeout       string                 `json:"timeout"`
	Retries       int                    `json:"retries"`
	MaxJobsActive int                    `json:"maxJobsActive"`
	Tags          []string               `json:"tags"`
}

// Find returns the activity for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}
