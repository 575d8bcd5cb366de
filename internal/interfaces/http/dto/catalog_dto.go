package dto

import (
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// ListRequest holds the paging and ordering parameters shared by listings
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
}

// EntryListQuery represents the query parameters of the catalog entry listing
type EntryListQuery struct {
	ListRequest
	State      string `form:"state" binding:"omitempty,oneof=pending approved rejected"`
	Tag        string `form:"tag" binding:"omitempty,max=100"`
	BatchID    string `form:"batch_id" binding:"omitempty,uuid"`
	InConflict *bool  `form:"in_conflict"`
}

// ToFilter converts the query to a repository filter
func (q EntryListQuery) ToFilter() catalog.EntryFilter {
	f := catalog.DefaultEntryFilter()
	q.apply(&f.Filter)
	f.State = catalog.ApprovalState(q.State)
	f.Tag = q.Tag
	f.InConflict = q.InConflict
	if id, err := uuid.Parse(q.BatchID); err == nil {
		f.BatchID = &id
	}
	return f
}

// BatchListQuery represents the query parameters of the upload batch listing
type BatchListQuery struct {
	ListRequest
	Status string `form:"status" binding:"omitempty,oneof=received staged committed partially_committed discarded failed"`
}

// ToFilter converts the query to a repository filter
func (q BatchListQuery) ToFilter() bulk.UploadBatchFilter {
	f := bulk.UploadBatchFilter{Filter: shared.DefaultFilter()}
	q.apply(&f.Filter)
	if q.Status != "" {
		status := bulk.BatchStatus(q.Status)
		f.Status = &status
	}
	return f
}

// ProposalListQuery represents the query parameters of the proposal listing
type ProposalListQuery struct {
	ListRequest
	ClientRef string `form:"client_ref" binding:"omitempty,max=100"`
}

// ToFilter converts the query to a repository filter
func (q ProposalListQuery) ToFilter() proposal.ProposalFilter {
	f := proposal.ProposalFilter{Filter: shared.DefaultFilter(), ClientRef: q.ClientRef}
	q.apply(&f.Filter)
	return f
}

// ChangesQuery narrows the pending change table to one kind
type ChangesQuery struct {
	Kind string `form:"kind" binding:"omitempty,oneof=insert update conflict no_change rejected"`
}

// RejectEntryRequest carries the reason for rejecting a catalog entry
type RejectEntryRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// Pagination returns the effective page and page size
func (r ListRequest) Pagination() (int, int) {
	page, size := r.Page, r.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return page, size
}

func (r ListRequest) apply(f *shared.Filter) {
	f.Page, f.PageSize = r.Pagination()
	if r.OrderBy != "" {
		f.OrderBy = r.OrderBy
	}
	if r.OrderDir != "" {
		f.OrderDir = r.OrderDir
	}
	f.Search = r.Search
}
