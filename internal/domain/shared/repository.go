package shared

// Filter holds list query options shared by the repositories
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns page 1 of 20, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: 20, OrderBy: "created_at", OrderDir: "desc"}
}
