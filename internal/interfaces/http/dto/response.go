package dto

// Response is the envelope of every JSON answer
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request. Details carries context such as the
// row index, product key or rule id.
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   map[string]any     `json:"details,omitempty"`
	Fields    []ValidationDetail `json:"fields,omitempty"`
}

// ValidationDetail describes one invalid request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta carries pagination for list answers
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// OK wraps data in a success envelope
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Paged wraps one page of a listing
func Paged(data any, total int64, page, pageSize int) Response {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total, Page: page, PageSize: pageSize, TotalPages: pages},
	}
}

// Fail builds an error envelope
func Fail(code, message, requestID string) Response {
	return Response{Error: &ErrorInfo{Code: code, Message: message, RequestID: requestID}}
}

// WithDetails attaches domain context to an error envelope; empty maps are
// left out
func (r Response) WithDetails(details map[string]any) Response {
	if r.Error != nil && len(details) > 0 {
		info := *r.Error
		info.Details = details
		r.Error = &info
	}
	return r
}

// WithFields attaches per-field validation failures to an error envelope
func (r Response) WithFields(fields []ValidationDetail) Response {
	if r.Error != nil {
		info := *r.Error
		info.Fields = fields
		r.Error = &info
	}
	return r
}
