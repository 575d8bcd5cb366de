package handler

import (
	"errors"
	"io"
	"net/http"

	catalogapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// maxRulesDocumentSize bounds a rules document submitted for validation
const maxRulesDocumentSize = 1 << 20

// CatalogRulesHandler exposes the verification rule set
type CatalogRulesHandler struct {
	rules *catalogapp.RulesService
}

// NewCatalogRulesHandler creates a new CatalogRulesHandler
func NewCatalogRulesHandler(rules *catalogapp.RulesService) *CatalogRulesHandler {
	return &CatalogRulesHandler{rules: rules}
}

// Show godoc
//
//	@ID				getCatalogRules
//	@Summary		Show the active rule set
//	@Description	Lists the rules in evaluation order with their effects and any configuration warnings
//	@Tags			catalog-rules
//	@Produce		json
//	@Success		200	{object}	APIResponse[catalogapp.RuleSetResponse]
//	@Router			/catalog/rules [get]
func (h *CatalogRulesHandler) Show(c *gin.Context) {
	success(c, h.rules.Show(c.Request.Context()))
}

// Validate godoc
//
//	@ID				validateCatalogRules
//	@Summary		Check a rules document
//	@Description	Parses and compiles a YAML or JSON rules document without activating it
//	@Tags			catalog-rules
//	@Accept			application/yaml
//	@Accept			json
//	@Produce		json
//	@Param			document	body		string	true	"Rules document"
//	@Success		200			{object}	APIResponse[catalogapp.RuleCheckResult]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		413			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/catalog/rules/validate [post]
func (h *CatalogRulesHandler) Validate(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRulesDocumentSize+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, dto.ErrCodePayloadTooLarge, "rules document is too large")
			return
		}
		badRequest(c, "failed to read rules document")
		return
	}
	if len(data) > maxRulesDocumentSize {
		fail(c, dto.ErrCodePayloadTooLarge, "rules document is too large")
		return
	}
	if len(data) == 0 {
		badRequest(c, "rules document is required")
		return
	}

	result, err := h.rules.Validate(c.Request.Context(), data)
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, result)
}

// Reload godoc
//
//	@ID				reloadCatalogRules
//	@Summary		Reload the rules file
//	@Description	Re-reads the configured rules file. An invalid file leaves the previous rule set active.
//	@Tags			catalog-rules
//	@Produce		json
//	@Success		200	{object}	APIResponse[catalogapp.RuleSetResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Router			/catalog/rules/reload [post]
func (h *CatalogRulesHandler) Reload(c *gin.Context) {
	resp, err := h.rules.Reload(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	success(c, resp)
}
