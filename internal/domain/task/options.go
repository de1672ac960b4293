package task

// ListOptions provides filtering options for listing tasks.
type ListOptions struct {
	ProjectID string
	Statuses  []Status
	Assignee  string
	Limit     int
	Offset    int
}

// SearchOptions provides filtering options for search.
type SearchOptions struct {
	Statuses []Status
	Limit    int
	Offset   int
}
