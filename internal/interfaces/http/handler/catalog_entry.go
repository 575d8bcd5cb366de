package handler

import (
	catalogapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// CatalogEntryHandler handles catalog entry approval endpoints
type CatalogEntryHandler struct {
	approvals *catalogapp.ApprovalService
}

// NewCatalogEntryHandler creates a new CatalogEntryHandler
func NewCatalogEntryHandler(approvals *catalogapp.ApprovalService) *CatalogEntryHandler {
	return &CatalogEntryHandler{approvals: approvals}
}

// List godoc
//
//	@ID				listCatalogEntries
//	@Summary		List catalog entries
//	@Tags			catalog-entries
//	@Produce		json
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Param			search		query		string	false	"Search by key"
//	@Param			state		query		string	false	"Approval state"	Enums(pending, approved, rejected)
//	@Param			tag			query		string	false	"Entries carrying this tag"
//	@Param			batch_id	query		string	false	"Entries last written by this batch"	format(uuid)
//	@Param			in_conflict	query		bool	false	"Only entries with an open conflict"
//	@Success		200			{object}	APIResponse[[]catalogapp.EntryResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/catalog/entries [get]
func (h *CatalogEntryHandler) List(c *gin.Context) {
	var query dto.EntryListQuery
	if !bindQuery(c, &query) {
		return
	}
	entries, total, err := h.approvals.ListEntries(c.Request.Context(), query.ToFilter())
	if err != nil {
		respondErr(c, err)
		return
	}
	page, size := query.Pagination()
	paged(c, entries, total, page, size)
}

// Get godoc
//
//	@ID				getCatalogEntry
//	@Summary		Get a catalog entry
//	@Description	Keys are matched after trimming and upper-casing
//	@Tags			catalog-entries
//	@Produce		json
//	@Param			key	path		string	true	"Product key"
//	@Success		200	{object}	APIResponse[catalogapp.EntryResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/catalog/entries/{key} [get]
func (h *CatalogEntryHandler) Get(c *gin.Context) {
	entry, err := h.approvals.GetEntry(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, entry)
}

// Approve godoc
//
//	@ID				approveCatalogEntry
//	@Summary		Approve a catalog entry
//	@Description	Approving an approved entry is a no-op. Entries with an open conflict cannot be approved.
//	@Tags			catalog-entries
//	@Produce		json
//	@Param			key	path		string	true	"Product key"
//	@Success		200	{object}	APIResponse[catalogapp.EntryResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/catalog/entries/{key}/approve [post]
func (h *CatalogEntryHandler) Approve(c *gin.Context) {
	entry, err := h.approvals.Approve(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, entry)
}

// Reject godoc
//
//	@ID				rejectCatalogEntry
//	@Summary		Reject a catalog entry
//	@Tags			catalog-entries
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string					true	"Product key"
//	@Param			request	body		dto.RejectEntryRequest	true	"Rejection reason"
//	@Success		200		{object}	APIResponse[catalogapp.EntryResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/catalog/entries/{key}/reject [post]
func (h *CatalogEntryHandler) Reject(c *gin.Context) {
	var req dto.RejectEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.approvals.Reject(c.Request.Context(), c.Param("key"), req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, entry)
}

// Resolve godoc
//
//	@ID				resolveCatalogEntry
//	@Summary		Resolve a conflict
//	@Description	Keeps the existing fields or adopts one candidate row. The entry returns to pending and still needs approval.
//	@Tags			catalog-entries
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string								true	"Product key"
//	@Param			request	body		catalogapp.ResolveConflictRequest	true	"Resolution"
//	@Success		200		{object}	APIResponse[catalogapp.EntryResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/catalog/entries/{key}/resolve [post]
func (h *CatalogEntryHandler) Resolve(c *gin.Context) {
	var req catalogapp.ResolveConflictRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.approvals.Resolve(c.Request.Context(), c.Param("key"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, entry)
}
