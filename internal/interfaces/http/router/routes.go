package router

import "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/handler"

// CatalogHandlers groups the handlers behind the /catalog routes
type CatalogHandlers struct {
	Uploads *handler.CatalogUploadHandler
	Entries *handler.CatalogEntryHandler
	Rules   *handler.CatalogRulesHandler
}

// NewCatalogRoutes builds the upload, approval and rules routes
func NewCatalogRoutes(h CatalogHandlers) *Group {
	catalog := NewGroup("/catalog")

	uploads := catalog.Sub("/uploads")
	uploads.POST("", h.Uploads.Upload).
		GET("", h.Uploads.List).
		GET("/:id", h.Uploads.Get).
		DELETE("/:id", h.Uploads.Discard).
		GET("/:id/changes", h.Uploads.Changes).
		GET("/:id/file", h.Uploads.File).
		GET("/:id/pending", h.Uploads.Pending).
		POST("/:id/commit", h.Uploads.Commit).
		POST("/:id/reconcile", h.Uploads.Reconcile).
		POST("/:id/approve-all", h.Uploads.ApproveAll)

	entries := catalog.Sub("/entries")
	entries.GET("", h.Entries.List).
		GET("/:key", h.Entries.Get).
		POST("/:key/approve", h.Entries.Approve).
		POST("/:key/reject", h.Entries.Reject).
		POST("/:key/resolve", h.Entries.Resolve)

	rules := catalog.Sub("/rules")
	rules.GET("", h.Rules.Show).
		POST("/validate", h.Rules.Validate).
		POST("/reload", h.Rules.Reload)

	return catalog
}

// NewProposalRoutes builds the proposal and cost comparison routes
func NewProposalRoutes(h *handler.ProposalHandler) *Group {
	root := NewGroup("")
	root.POST("/cost-analysis", h.CompareCosts)

	proposals := root.Sub("/proposals")
	proposals.POST("", h.Assemble).
		GET("", h.List).
		GET("/:id", h.Get).
		GET("/:id/pdf", h.PDF).
		POST("/:id/cost-analysis", h.CostAnalysis)

	return root
}

// NewSystemRoutes builds the system information routes
func NewSystemRoutes(h *handler.SystemHandler) *Group {
	system := NewGroup("/system")
	system.GET("/info", h.GetSystemInfo).
		GET("/ping", h.Ping)
	return system
}
