package handler

import (
	"fmt"
	"net/http"

	proposalapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProposalHandler handles proposal assembly and cost comparison endpoints
type ProposalHandler struct {
	proposals *proposalapp.ProposalService
}

// NewProposalHandler creates a new ProposalHandler
func NewProposalHandler(proposals *proposalapp.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals}
}

// Assemble godoc
//
//	@ID				assembleProposal
//	@Summary		Assemble a proposal
//	@Description	Prices the requested lines from approved catalog entries. Any unapproved or unknown product fails the whole request.
//	@Tags			proposals
//	@Accept			json
//	@Produce		json
//	@Param			request	body		proposalapp.AssembleProposalRequest	true	"Proposal lines"
//	@Success		201		{object}	APIResponse[proposalapp.ProposalResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/proposals [post]
func (h *ProposalHandler) Assemble(c *gin.Context) {
	var req proposalapp.AssembleProposalRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.proposals.Assemble(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	created(c, resp)
}

// List godoc
//
//	@ID				listProposals
//	@Summary		List proposals
//	@Tags			proposals
//	@Produce		json
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Param			client_ref	query		string	false	"Client reference"
//	@Success		200			{object}	APIResponse[[]proposalapp.ProposalListItem]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	var query dto.ProposalListQuery
	if !bindQuery(c, &query) {
		return
	}
	items, total, err := h.proposals.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		respondErr(c, err)
		return
	}
	page, size := query.Pagination()
	paged(c, items, total, page, size)
}

// Get godoc
//
//	@ID				getProposal
//	@Summary		Get a proposal
//	@Tags			proposals
//	@Produce		json
//	@Param			id	path		string	true	"Proposal ID"	format(uuid)
//	@Success		200	{object}	APIResponse[proposalapp.ProposalResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/proposals/{id} [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "proposal ID")
	if !ok {
		return
	}
	resp, err := h.proposals.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, resp)
}

// CostAnalysis godoc
//
//	@ID				analyzeProposalCost
//	@Summary		Compare a proposal with the current spend
//	@Description	Computes savings against the client's current cost. With with_narrative set, adds prose; a narrative failure is reported in narrative_error and does not fail the call.
//	@Tags			proposals
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Proposal ID"	format(uuid)
//	@Param			request	body		proposalapp.CostAnalysisRequest	true	"Current spend"
//	@Success		200		{object}	APIResponse[proposalapp.CostAnalysisResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/proposals/{id}/cost-analysis [post]
func (h *ProposalHandler) CostAnalysis(c *gin.Context) {
	id, ok := uuidParam(c, "id", "proposal ID")
	if !ok {
		return
	}
	var req proposalapp.CostAnalysisRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.proposals.CostAnalysis(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, resp)
}

// PDF godoc
//
//	@ID				printProposal
//	@Summary		Render a proposal as PDF
//	@Tags			proposals
//	@Produce		application/pdf
//	@Param			id				path		string	true	"Proposal ID"	format(uuid)
//	@Param			current_cost	query		string	false	"Current spend, adds the cost comparison"
//	@Success		200				{file}		binary
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		422				{object}	ErrorResponse
//	@Router			/proposals/{id}/pdf [get]
func (h *ProposalHandler) PDF(c *gin.Context) {
	id, ok := uuidParam(c, "id", "proposal ID")
	if !ok {
		return
	}

	var currentCost *decimal.Decimal
	if raw := c.Query("current_cost"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			badRequest(c, "current_cost must be a decimal number")
			return
		}
		currentCost = &d
	}

	data, err := h.proposals.PDF(c.Request.Context(), id, currentCost)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"proposal-%s.pdf\"", id))
	c.Data(http.StatusOK, "application/pdf", data)
}

// CompareCosts godoc
//
//	@ID				compareCosts
//	@Summary		Compare two totals
//	@Description	Savings amount and rate between a current and a new cost. The rate is zero when the current cost is zero.
//	@Tags			proposals
//	@Accept			json
//	@Produce		json
//	@Param			request	body		proposalapp.CompareCostsRequest	true	"Totals"
//	@Success		200		{object}	APIResponse[proposalapp.CostAnalysisResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/cost-analysis [post]
func (h *ProposalHandler) CompareCosts(c *gin.Context) {
	var req proposalapp.CompareCostsRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.proposals.CompareCosts(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, resp)
}
