package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	catalogapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	csvimport "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/import"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadSize applies when no upload limit is configured (10MB)
const DefaultMaxUploadSize = 10 * 1024 * 1024

// CatalogUploadHandler handles catalog file uploads and their staged plans
type CatalogUploadHandler struct {
	imports   *catalogapp.ImportService
	approvals *catalogapp.ApprovalService
	maxSize   int64
}

// NewCatalogUploadHandler creates a new CatalogUploadHandler. maxSize <= 0
// selects DefaultMaxUploadSize.
func NewCatalogUploadHandler(imports *catalogapp.ImportService, approvals *catalogapp.ApprovalService, maxSize int64) *CatalogUploadHandler {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &CatalogUploadHandler{imports: imports, approvals: approvals, maxSize: maxSize}
}

// ArchiveLinkResponse is a time-limited download link for an uploaded file
type ArchiveLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Upload godoc
//
//	@ID				uploadCatalogFile
//	@Summary		Upload a catalog file
//	@Description	Decodes, verifies and reconciles a CSV, TSV or XLSX file and stages the resulting change plan. Uploading identical content while a plan is staged returns that plan.
//	@Tags			catalog-uploads
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Catalog file (.csv, .tsv, .txt, .xlsx)"
//	@Success		201		{object}	APIResponse[catalogapp.UploadResult]
//	@Success		200		{object}	APIResponse[catalogapp.UploadResult]	"Identical content is already staged"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/catalog/uploads [post]
func (h *CatalogUploadHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, dto.ErrCodePayloadTooLarge, h.tooLargeMessage())
			return
		}
		badRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		fail(c, dto.ErrCodePayloadTooLarge, h.tooLargeMessage())
		return
	}
	if _, err := csvimport.FormatOf(header.Filename); err != nil {
		fail(c, dto.ErrCodeUnsupportedMedia, "file must be a .csv, .tsv, .txt or .xlsx file")
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		badRequest(c, "failed to read file")
		return
	}
	if int64(len(content)) > h.maxSize {
		fail(c, dto.ErrCodePayloadTooLarge, h.tooLargeMessage())
		return
	}

	result, err := h.imports.Upload(c.Request.Context(), header.Filename, content)
	if err != nil {
		respondErr(c, err)
		return
	}
	if result.Reused {
		success(c, result)
		return
	}
	created(c, result)
}

func (h *CatalogUploadHandler) tooLargeMessage() string {
	return fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxSize)
}

// List godoc
//
//	@ID				listCatalogUploads
//	@Summary		List upload batches
//	@Tags			catalog-uploads
//	@Produce		json
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Param			status		query		string	false	"Batch status"	Enums(received, staged, committed, partially_committed, discarded, failed)
//	@Success		200			{object}	APIResponse[[]catalogapp.BatchResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/catalog/uploads [get]
func (h *CatalogUploadHandler) List(c *gin.Context) {
	var query dto.BatchListQuery
	if !bindQuery(c, &query) {
		return
	}
	batches, total, err := h.imports.ListBatches(c.Request.Context(), query.ToFilter())
	if err != nil {
		respondErr(c, err)
		return
	}
	page, size := query.Pagination()
	paged(c, batches, total, page, size)
}

// Get godoc
//
//	@ID				getCatalogUpload
//	@Summary		Get an upload batch
//	@Tags			catalog-uploads
//	@Produce		json
//	@Param			id	path		string	true	"Batch ID"	format(uuid)
//	@Success		200	{object}	APIResponse[catalogapp.BatchResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/catalog/uploads/{id} [get]
func (h *CatalogUploadHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "batch ID")
	if !ok {
		return
	}
	batch, err := h.imports.GetBatch(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, batch)
}

// Changes godoc
//
//	@ID				listCatalogUploadChanges
//	@Summary		Show the staged change plan
//	@Description	Returns the pending changes of a staged batch in source row order
//	@Tags			catalog-uploads
//	@Produce		json
//	@Param			id		path		string	true	"Batch ID"	format(uuid)
//	@Param			kind	query		string	false	"Change kind"	Enums(insert, update, conflict, no_change, rejected)
//	@Success		200		{object}	APIResponse[catalogapp.ChangesResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/catalog/uploads/{id}/changes [get]
func (h *CatalogUploadHandler) Changes(c *gin.Context) {
	id, ok := uuidParam(c, "id", "batch ID")
	if !ok {
		return
	}
	var query dto.ChangesQuery
	if !bindQuery(c, &query) {
		return
	}
	changes, err := h.imports.GetChanges(c.Request.Context(), id, catalog.ChangeKind(query.Kind))
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, changes)
}

// File godoc
//
//	@ID				getCatalogUploadFile
//	@Summary		Link to the original file
//	@Description	Returns a time-limited download link for the archived upload
//	@Tags			catalog-uploads
//	@Produce		json
//	@Param			id	path		string	true	"Batch ID"	format(uuid)
//	@Success		200	{object}	APIResponse[ArchiveLinkResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/catalog/uploads/{id}/file [get]
func (h *CatalogUploadHandler) File(c *gin.Context) {
	id, ok := uuidParam(c, "id", "batch ID")
	if !ok {
		return
	}
	url, expires, err := h.imports.ArchiveURL(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, ArchiveLinkResponse{URL: url, ExpiresAt: expires})
}

// Commit godoc
//
//	@ID				commitCatalogUpload
//	@Summary		Commit a staged batch
//	@Description	Applies inserts and updates under optimistic locking and records conflicts. Entries changed since staging are reported as stale.
//	@Tags			catalog-uploads
//	@Produce		json
//	@Param			id	path		string	true	"Batch ID"	format(uuid)
//	@Success		200	{object}	APIResponse[catalogapp.CommitResult]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/catalog/uploads/{id}/commit [post]
func (h *CatalogUploadHandler) Commit(c *gin.Context) {
	id, ok := uuidParam(c, "id", "batch ID")
	if !ok {
		return
	}
	result, err := h.imports.Commit(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, result)
}

// Reconcile godoc
//
//	@ID				reconcileCatalogUpload
//	@Summary		Re-plan a staged batch
//	@Description	Reconciles the staged verdicts against the current catalog again, typically after a partial commit
//	@Tags			catalog-uploads
//	@Produce		json
//	@Param			id	path		string	true	"Batch ID"	format(uuid)
//	@Success		200	{object}	APIResponse[catalogapp.ChangesResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/catalog/uploads/{id}/reconcile [post]
func (h *CatalogUploadHandler) Reconcile(c *gin.Context) {
	id, ok := uuidParam(c, "id", "batch ID")
	if !ok {
		return
	}
	changes, err := h.imports.Reconcile(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, changes)
}

// Discard godoc
//
//	@ID				discardCatalogUpload
//	@Summary		Discard a staged batch
//	@Tags			catalog-uploads
//	@Produce		json
//	@Param			id	path		string	true	"Batch ID"	format(uuid)
//	@Success		200	{object}	APIResponse[catalogapp.BatchResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/catalog/uploads/{id} [delete]
func (h *CatalogUploadHandler) Discard(c *gin.Context) {
	id, ok := uuidParam(c, "id", "batch ID")
	if !ok {
		return
	}
	batch, err := h.imports.Discard(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, batch)
}

// Pending godoc
//
//	@ID				listCatalogUploadPending
//	@Summary		List entries awaiting approval
//	@Description	Returns the pending entries the batch wrote, including those held by a conflict
//	@Tags			catalog-uploads
//	@Produce		json
//	@Param			id	path		string	true	"Batch ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]catalogapp.EntryResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/catalog/uploads/{id}/pending [get]
func (h *CatalogUploadHandler) Pending(c *gin.Context) {
	id, ok := uuidParam(c, "id", "batch ID")
	if !ok {
		return
	}
	entries, err := h.approvals.ListPending(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, entries)
}

// ApproveAll godoc
//
//	@ID				approveCatalogUpload
//	@Summary		Approve every pending entry of a batch
//	@Description	Entries in conflict are skipped and reported; a concurrent write makes only that entry stale
//	@Tags			catalog-uploads
//	@Produce		json
//	@Param			id	path		string	true	"Batch ID"	format(uuid)
//	@Success		200	{object}	APIResponse[catalogapp.ApproveAllResult]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/catalog/uploads/{id}/approve-all [post]
func (h *CatalogUploadHandler) ApproveAll(c *gin.Context) {
	id, ok := uuidParam(c, "id", "batch ID")
	if !ok {
		return
	}
	result, err := h.approvals.ApproveAll(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, result)
}
